// Package queue is the durable FIFO of mutations made while the device could
// not reach the server.
package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var (
	ErrOperationNotFound  = errors.New("queued operation not found")
	ErrDuplicateOperation = errors.New("queued operation id already used")
	ErrInvalidOperation   = errors.New("invalid queued operation")
	ErrCorruptQueue       = errors.New("persisted queue is corrupt")
)

type Kind string

const (
	KindCreate Kind = "CREATE"
	KindUpdate Kind = "UPDATE"
	KindDelete Kind = "DELETE"
)

func ParseKind(value string) (Kind, error) {
	switch k := Kind(strings.ToUpper(strings.TrimSpace(value))); k {
	case KindCreate, KindUpdate, KindDelete:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, value)
	}
}

// Operation is one pending mutation. EntityID is the key for UPDATE and
// DELETE and the client-assigned id of the new record for CREATE.
type Operation struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entity_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"last_error,omitempty"`
}

// DeadLetter is an operation the sync engine gave up on.
type DeadLetter struct {
	Operation Operation `json:"operation"`
	Reason    string    `json:"reason"`
	FailedAt  time.Time `json:"failed_at"`
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Attempts  *int
	LastError *string
}

func (op Operation) validate() error {
	switch op.Kind {
	case KindCreate, KindUpdate, KindDelete:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, op.Kind)
	}
	if strings.TrimSpace(op.Entity) == "" {
		return fmt.Errorf("%w: entity is required", ErrInvalidOperation)
	}
	if op.Kind != KindCreate && strings.TrimSpace(op.EntityID) == "" {
		return fmt.Errorf("%w: entity_id is required for %s", ErrInvalidOperation, op.Kind)
	}
	if op.Kind != KindDelete {
		if len(op.Payload) == 0 {
			return fmt.Errorf("%w: payload is required for %s", ErrInvalidOperation, op.Kind)
		}
		if !json.Valid(op.Payload) {
			return fmt.Errorf("%w: payload is not valid json", ErrInvalidOperation)
		}
	}
	return nil
}

func (op Operation) clone() Operation {
	if op.Payload != nil {
		payload := make(json.RawMessage, len(op.Payload))
		copy(payload, op.Payload)
		op.Payload = payload
	}
	return op
}
