package queue

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"ronda-app-go/internal/offline/kvstore"
)

const (
	DefaultKey      = "offline/queue"
	documentVersion = 1
)

type document struct {
	Version     int          `json:"version"`
	Operations  []Operation  `json:"operations"`
	DeadLetters []DeadLetter `json:"dead_letters"`
}

// Store keeps the queue in memory and mirrors every change to a single key
// of a kvstore.Store. A change becomes visible only after its write returned
// without error.
type Store struct {
	kv    kvstore.Store
	key   string
	now   func() time.Time
	newID func() string

	mu  sync.Mutex
	doc document
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) {
		if strings.TrimSpace(key) != "" {
			s.key = key
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// Open loads the persisted queue. A document that cannot be decoded returns
// ErrCorruptQueue together with a usable, empty Store so the caller can
// decide to Clear it.
func Open(ctx context.Context, kv kvstore.Store, opts ...Option) (*Store, error) {
	s := &Store{
		kv:    kv,
		key:   DefaultKey,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
		doc:   document{Version: documentVersion},
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, ok, err := kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}
	if !ok || len(raw) == 0 {
		return s, nil
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return s, fmt.Errorf("%w: %v", ErrCorruptQueue, err)
	}
	seen := make(map[string]struct{}, len(doc.Operations))
	for _, op := range doc.Operations {
		if op.ID == "" {
			return s, fmt.Errorf("%w: operation without id", ErrCorruptQueue)
		}
		if _, dup := seen[op.ID]; dup {
			return s, fmt.Errorf("%w: duplicate id %s", ErrCorruptQueue, op.ID)
		}
		seen[op.ID] = struct{}{}
	}
	doc.Version = documentVersion
	s.doc = doc
	return s, nil
}

// Enqueue appends op to the tail. ID and CreatedAt are filled in when empty.
// The returned operation is the one that was persisted.
func (s *Store) Enqueue(ctx context.Context, op Operation) (Operation, error) {
	op = op.clone()
	op.Entity = strings.TrimSpace(op.Entity)
	op.EntityID = strings.TrimSpace(op.EntityID)
	if err := op.validate(); err != nil {
		return Operation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if op.ID == "" {
		op.ID = s.newID()
	}
	if s.indexOf(op.ID) >= 0 || s.deadLetterIndex(op.ID) >= 0 {
		return Operation{}, fmt.Errorf("%w: %s", ErrDuplicateOperation, op.ID)
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = s.now()
	}

	next := s.copyDoc()
	next.Operations = append(next.Operations, op)
	if err := s.commit(ctx, next); err != nil {
		return Operation{}, err
	}
	return op.clone(), nil
}

// PeekAll returns the queue oldest first. The slice is a copy.
func (s *Store) PeekAll() []Operation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Operation, 0, len(s.doc.Operations))
	for _, op := range s.doc.Operations {
		out = append(out, op.clone())
	}
	return out
}

func (s *Store) Get(id string) (Operation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return Operation{}, false
	}
	return s.doc.Operations[idx].clone(), true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doc.Operations)
}

// Remove deletes the operation with id. Unknown ids are ignored.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}

	next := s.copyDoc()
	next.Operations = append(next.Operations[:idx:idx], next.Operations[idx+1:]...)
	return s.commit(ctx, next)
}

func (s *Store) Update(ctx context.Context, id string, patch Patch) (Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return Operation{}, fmt.Errorf("%w: %s", ErrOperationNotFound, id)
	}

	next := s.copyDoc()
	op := next.Operations[idx]
	if patch.Attempts != nil {
		if *patch.Attempts < 0 {
			return Operation{}, fmt.Errorf("%w: attempts must be non-negative", ErrInvalidOperation)
		}
		op.Attempts = *patch.Attempts
	}
	if patch.LastError != nil {
		op.LastError = *patch.LastError
	}
	next.Operations[idx] = op

	if err := s.commit(ctx, next); err != nil {
		return Operation{}, err
	}
	return op.clone(), nil
}

// Clear drops every queued operation. Dead letters are kept.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyDoc()
	next.Operations = nil
	return s.commit(ctx, next)
}

// DeadLetter moves the operation out of the queue into the dead-letter list
// in a single write.
func (s *Store) DeadLetter(ctx context.Context, id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrOperationNotFound, id)
	}

	next := s.copyDoc()
	op := next.Operations[idx]
	next.Operations = append(next.Operations[:idx:idx], next.Operations[idx+1:]...)
	next.DeadLetters = append(next.DeadLetters, DeadLetter{Operation: op, Reason: reason, FailedAt: s.now()})
	return s.commit(ctx, next)
}

func (s *Store) DeadLetters() []DeadLetter {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]DeadLetter, 0, len(s.doc.DeadLetters))
	for _, dl := range s.doc.DeadLetters {
		dl.Operation = dl.Operation.clone()
		out = append(out, dl)
	}
	return out
}

func (s *Store) DeadLetterLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doc.DeadLetters)
}

// RequeueDeadLetters appends every dead letter back to the tail of the queue
// with its attempt counter reset, keeping their relative order.
func (s *Store) RequeueDeadLetters(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.doc.DeadLetters) == 0 {
		return 0, nil
	}

	next := s.copyDoc()
	for _, dl := range next.DeadLetters {
		op := dl.Operation
		op.Attempts = 0
		op.LastError = ""
		next.Operations = append(next.Operations, op)
	}
	count := len(next.DeadLetters)
	next.DeadLetters = nil

	if err := s.commit(ctx, next); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) ClearDeadLetters(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.copyDoc()
	next.DeadLetters = nil
	return s.commit(ctx, next)
}

func (s *Store) commit(ctx context.Context, next document) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("persist queue: %w", err)
	}
	s.doc = next
	return nil
}

func (s *Store) copyDoc() document {
	next := document{Version: documentVersion}
	next.Operations = append([]Operation(nil), s.doc.Operations...)
	next.DeadLetters = append([]DeadLetter(nil), s.doc.DeadLetters...)
	return next
}

func (s *Store) indexOf(id string) int {
	for i, op := range s.doc.Operations {
		if op.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) deadLetterIndex(id string) int {
	for i, dl := range s.doc.DeadLetters {
		if dl.Operation.ID == id {
			return i
		}
	}
	return -1
}
