package sync

import "context"

type Repository interface {
	// BeginBatch reports false with a nil record when another request holds
	// the idempotency key but its row is not visible yet.
	BeginBatch(ctx context.Context, batch *BatchRecord) (bool, *BatchRecord, error)
	CompleteBatch(ctx context.Context, batchID string, status BatchState, responseJSON []byte) error
	// ClaimFailedBatch moves a failed batch back to processing. It reports
	// false when the batch is not failed or another request claimed it first.
	ClaimFailedBatch(ctx context.Context, batchID string) (bool, error)
	ReserveOperation(ctx context.Context, operation *OperationRecord) (bool, *OperationRecord, error)
	UpdateOperation(ctx context.Context, operation *OperationRecord) error
	// ClaimFailedOperation moves a failed retryable operation back to pending.
	// It reports false when another request claimed it first.
	ClaimFailedOperation(ctx context.Context, id string) (bool, error)
}
