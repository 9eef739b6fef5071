package engine

import (
	"context"
	"errors"
)

// Remote is the persistence collaborator queued operations are replayed
// against. id is the entity key; for Create it is the client-assigned id.
type Remote interface {
	Create(ctx context.Context, entity, id string, payload []byte) error
	Update(ctx context.Context, entity, id string, payload []byte) error
	Delete(ctx context.Context, entity, id string) error
}

// Connectivity reports whether the remote is currently reachable.
type Connectivity interface {
	Online() bool
}

// PermanentError marks a replay failure that will not succeed on retry,
// such as a payload the remote rejects as invalid. The engine moves the
// operation to the dead-letter list instead of retrying it.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	if e.Err == nil {
		return "permanent failure"
	}
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func IsPermanent(err error) bool {
	var permanent *PermanentError
	return errors.As(err, &permanent)
}

type operationIDKey struct{}

// WithOperationID stores the queue id of the operation being replayed.
func WithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, operationIDKey{}, id)
}

// OperationID returns the queue id of the operation being replayed, so a
// Remote can send it along and let the server drop duplicate replays.
func OperationID(ctx context.Context) string {
	id, _ := ctx.Value(operationIDKey{}).(string)
	return id
}
