package sync

import (
	"errors"
	"fmt"
)

var (
	ErrNoOperations  = errors.New("operations are required")
	ErrBatchTooLarge = fmt.Errorf("sync batch exceeds %d operations", MaxBatchOperations)
	// ErrIdempotencyKeyReused means the key was first sent with a different body.
	ErrIdempotencyKeyReused = errors.New("idempotency key reused with a different payload")
	ErrBatchInProgress      = errors.New("sync batch in progress")
)
