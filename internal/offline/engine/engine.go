// Package engine replays the offline queue against the remote, one operation
// at a time and strictly in enqueue order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/metric"

	"ronda-app-go/internal/offline/queue"
	"ronda-app-go/pkg/logger"
)

const DefaultOperationTimeout = 30 * time.Second

type FailurePolicy int

const (
	// AbortOnFailure stops the drain at the first failed operation and leaves
	// it and everything after it queued.
	AbortOnFailure FailurePolicy = iota
	// SkipFailed keeps draining after a failure. Later operations on the same
	// entity are held back so they never overtake the failed one.
	SkipFailed
)

func (p FailurePolicy) String() string {
	switch p {
	case SkipFailed:
		return "skip"
	default:
		return "abort"
	}
}

func ParseFailurePolicy(value string) (FailurePolicy, error) {
	switch value {
	case "", "abort":
		return AbortOnFailure, nil
	case "skip":
		return SkipFailed, nil
	default:
		return AbortOnFailure, fmt.Errorf("unknown failure policy %q", value)
	}
}

// Status is a snapshot; it is recomputed on every change.
type Status struct {
	IsOnline        bool   `json:"is_online"`
	IsSyncing       bool   `json:"is_syncing"`
	PendingCount    int    `json:"pending_count"`
	DeadLetterCount int    `json:"dead_letter_count"`
	LastError       string `json:"last_error,omitempty"`
}

// DrainResult summarizes one ProcessQueue call.
type DrainResult struct {
	Started      bool
	Replayed     int
	Failed       int
	DeadLettered int
	Held         int
	Remaining    int
	Aborted      bool
	Interrupted  bool
}

type subscriber struct {
	id int
	fn func(Status)
}

type Engine struct {
	store       *queue.Store
	remote      Remote
	conn        Connectivity
	log         logger.Logger
	timeout     time.Duration
	maxAttempts int
	policy      FailurePolicy
	meter       metric.Meter
	metrics     replayMetrics

	draining atomic.Bool

	mu        sync.Mutex
	lastError string
	subs      []subscriber
	nextSubID int
}

type Option func(*Engine)

func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithOperationTimeout bounds each remote call. A call that runs out of time
// counts as an ordinary, retryable failure.
func WithOperationTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithMaxAttempts dead-letters an operation once it failed n times.
// Zero keeps retrying forever.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxAttempts = n
		}
	}
}

func WithFailurePolicy(policy FailurePolicy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

// WithMeter records replay counters on meter instead of the global meter
// provider.
func WithMeter(meter metric.Meter) Option {
	return func(e *Engine) {
		e.meter = meter
	}
}

// New builds an engine over store. A nil conn is treated as always online.
func New(store *queue.Store, remote Remote, conn Connectivity, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		remote:  remote,
		conn:    conn,
		log:     logger.Nop(),
		timeout: DefaultOperationTimeout,
		policy:  AbortOnFailure,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logger.Component(e.log, "offline.engine")

	var err error
	if e.metrics, err = newReplayMetrics(e.meter); err != nil {
		e.log.Warn("offline.engine: replay metrics unavailable", "err", err)
	}
	return e
}

// Enqueue persists op and publishes the new status. Storage and validation
// errors are returned to the caller; nothing is queued in that case.
func (e *Engine) Enqueue(ctx context.Context, op queue.Operation) (queue.Operation, error) {
	stored, err := e.store.Enqueue(ctx, op)
	if err != nil {
		return queue.Operation{}, err
	}
	e.log.Debug("offline.engine: operation queued", "operation_id", stored.ID, "kind", stored.Kind, "entity", stored.Entity)
	e.publish()
	return stored, nil
}

// ProcessQueue drains the queue once. It is a no-op while another drain is
// running, while offline or when nothing is queued. Replay failures never
// surface as errors; they are recorded on the operation and in Status.
func (e *Engine) ProcessQueue(ctx context.Context) DrainResult {
	if !e.online() {
		return DrainResult{Remaining: e.store.Len()}
	}
	if !e.draining.CompareAndSwap(false, true) {
		return DrainResult{Remaining: e.store.Len()}
	}

	ops := e.store.PeekAll()
	if len(ops) == 0 {
		e.draining.Store(false)
		return DrainResult{}
	}

	result := DrainResult{Started: true}
	e.publish()
	e.log.Info("offline.engine: drain started", "pending", len(ops), "policy", e.policy.String())

	held := make(map[string]struct{})

loop:
	for _, op := range ops {
		if ctx.Err() != nil || !e.online() {
			result.Interrupted = true
			break
		}
		if _, blocked := held[entityKey(op)]; blocked {
			result.Held++
			continue
		}

		err := e.replay(ctx, op)
		if err == nil {
			if err := e.store.Remove(ctx, op.ID); err != nil {
				e.log.InternalError("offline.engine: remove replayed operation", err, "operation_id", op.ID)
				e.setLastError(err.Error())
				result.Aborted = true
				break
			}
			result.Replayed++
			e.metrics.record(ctx, e.metrics.succeeded, op)
			e.publish()
			continue
		}

		// Shutdown is not the operation's fault.
		if ctx.Err() != nil {
			result.Interrupted = true
			break
		}

		result.Failed++
		e.metrics.record(ctx, e.metrics.failed, op)
		deadLettered, recordErr := e.recordFailure(ctx, op, err)
		if recordErr != nil {
			e.log.InternalError("offline.engine: record replay failure", recordErr, "operation_id", op.ID)
			result.Aborted = true
			e.publish()
			break
		}
		if deadLettered {
			result.DeadLettered++
			e.metrics.record(ctx, e.metrics.deadLettered, op)
		}
		e.publish()

		switch e.policy {
		case SkipFailed:
			if !deadLettered {
				held[entityKey(op)] = struct{}{}
			}
		default:
			result.Aborted = true
			break loop
		}
	}

	if result.Failed == 0 && !result.Aborted {
		e.setLastError("")
	}
	result.Remaining = e.store.Len()
	e.draining.Store(false)
	e.publish()

	e.log.Info("offline.engine: drain finished",
		"replayed", result.Replayed,
		"failed", result.Failed,
		"dead_lettered", result.DeadLettered,
		"remaining", result.Remaining,
		"aborted", result.Aborted,
		"interrupted", result.Interrupted,
	)
	return result
}

// Status returns the current snapshot.
func (e *Engine) Status() Status {
	e.mu.Lock()
	lastError := e.lastError
	e.mu.Unlock()

	return Status{
		IsOnline:        e.online(),
		IsSyncing:       e.draining.Load(),
		PendingCount:    e.store.Len(),
		DeadLetterCount: e.store.DeadLetterLen(),
		LastError:       lastError,
	}
}

// OnStatusChange registers fn for every status change. Callbacks run in
// registration order; a panicking callback is logged and the rest still run.
func (e *Engine) OnStatusChange(fn func(Status)) func() {
	if fn == nil {
		return func() {}
	}

	e.mu.Lock()
	e.nextSubID++
	id := e.nextSubID
	e.subs = append(e.subs, subscriber{id: id, fn: fn})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			for i, sub := range e.subs {
				if sub.id == id {
					e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// ConnectivityChanged republishes the status after the signal flipped.
func (e *Engine) ConnectivityChanged() {
	e.publish()
}

func (e *Engine) replay(ctx context.Context, op queue.Operation) error {
	callCtx, cancel := context.WithTimeout(WithOperationID(ctx, op.ID), e.timeout)
	defer cancel()

	var err error
	switch op.Kind {
	case queue.KindCreate:
		err = e.remote.Create(callCtx, op.Entity, op.EntityID, op.Payload)
	case queue.KindUpdate:
		err = e.remote.Update(callCtx, op.Entity, op.EntityID, op.Payload)
	case queue.KindDelete:
		err = e.remote.Delete(callCtx, op.Entity, op.EntityID)
	default:
		err = Permanent(fmt.Errorf("unknown operation kind %q", op.Kind))
	}

	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %s: %w", e.timeout, err)
	}
	return err
}

func (e *Engine) recordFailure(ctx context.Context, op queue.Operation, replayErr error) (bool, error) {
	attempts := op.Attempts + 1
	message := replayErr.Error()
	e.setLastError(message)

	if _, err := e.store.Update(ctx, op.ID, queue.Patch{Attempts: &attempts, LastError: &message}); err != nil {
		return false, err
	}

	var reason string
	switch {
	case IsPermanent(replayErr):
		reason = "rejected: " + message
	case e.maxAttempts > 0 && attempts >= e.maxAttempts:
		reason = fmt.Sprintf("gave up after %d attempts: %s", attempts, message)
	default:
		e.log.BusinessError("offline.engine: replay failed", replayErr,
			"operation_id", op.ID, "entity", op.Entity, "attempts", attempts)
		return false, nil
	}

	if err := e.store.DeadLetter(ctx, op.ID, reason); err != nil {
		return false, err
	}
	e.log.Warn("offline.engine: operation dead-lettered",
		"operation_id", op.ID, "entity", op.Entity, "attempts", attempts, "reason", reason)
	return true, nil
}

func (e *Engine) publish() {
	status := e.Status()

	e.mu.Lock()
	subs := make([]subscriber, len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	for _, sub := range subs {
		var catcher panics.Catcher
		catcher.Try(func() { sub.fn(status) })
		if recovered := catcher.Recovered(); recovered != nil {
			e.log.InternalError("offline.engine: status subscriber panicked", recovered.AsError(), "subscriber", sub.id)
		}
	}
}

func (e *Engine) setLastError(message string) {
	e.mu.Lock()
	e.lastError = message
	e.mu.Unlock()
}

func (e *Engine) online() bool {
	if e.conn == nil {
		return true
	}
	return e.conn.Online()
}

func entityKey(op queue.Operation) string {
	if op.EntityID == "" {
		return "op/" + op.ID
	}
	return op.Entity + "/" + op.EntityID
}
