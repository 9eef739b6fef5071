package sync

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	syncdomain "ronda-app-go/internal/domain/sync"
)

const pgUniqueViolation = "23505"

// PostgresRepository keeps sync_batches and sync_operations. Both tables are
// keyed per contrato, so every lookup filters on contrato_id first.
type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) BeginBatch(ctx context.Context, batch *syncdomain.BatchRecord) (bool, *syncdomain.BatchRecord, error) {
	err := r.db.WithContext(ctx).Create(batch).Error
	switch {
	case err == nil:
		return true, nil, nil
	case !isDuplicate(err):
		return false, nil, err
	case batch.IdempotencyKey == nil:
		return false, nil, nil
	}

	existing, err := firstOrNil[syncdomain.BatchRecord](r.db.WithContext(ctx).
		Where("contrato_id = ? AND idempotency_key = ?", batch.ContratoID, *batch.IdempotencyKey))
	return false, existing, err
}

func (r *PostgresRepository) CompleteBatch(ctx context.Context, batchID string, status syncdomain.BatchState, responseJSON []byte) error {
	return r.db.WithContext(ctx).
		Model(&syncdomain.BatchRecord{ID: batchID}).
		Select("status", "response_json").
		Updates(&syncdomain.BatchRecord{Status: status, ResponseJSON: responseJSON}).Error
}

func (r *PostgresRepository) ClaimFailedBatch(ctx context.Context, batchID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&syncdomain.BatchRecord{}).
		Where("id = ? AND status = ?", batchID, syncdomain.BatchStateFailed).
		Update("status", syncdomain.BatchStateProcessing)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ReserveOperation inserts the operation unless (contrato_id, operation_id)
// exists. On conflict the stored row is returned so the caller can replay its
// outcome.
func (r *PostgresRepository) ReserveOperation(ctx context.Context, operation *syncdomain.OperationRecord) (bool, *syncdomain.OperationRecord, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contrato_id"}, {Name: "operation_id"}},
			DoNothing: true,
		}).
		Create(operation)
	if result.Error != nil {
		return false, nil, result.Error
	}
	if result.RowsAffected == 1 {
		return true, nil, nil
	}

	existing, err := firstOrNil[syncdomain.OperationRecord](r.db.WithContext(ctx).
		Where("contrato_id = ? AND operation_id = ?", operation.ContratoID, operation.OperationID))
	return false, existing, err
}

func (r *PostgresRepository) UpdateOperation(ctx context.Context, operation *syncdomain.OperationRecord) error {
	return r.db.WithContext(ctx).
		Model(&syncdomain.OperationRecord{ID: operation.ID}).
		Select("status", "entity_id", "error_code", "error_message", "retryable").
		Updates(operation).Error
}

// ClaimFailedOperation flips the row in a single statement so that only one
// concurrent replay wins it.
func (r *PostgresRepository) ClaimFailedOperation(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&syncdomain.OperationRecord{}).
		Where("id = ? AND status = ? AND retryable", id, syncdomain.OperationStateFailed).
		Updates(map[string]any{
			"status":        syncdomain.OperationStatePending,
			"error_code":    gorm.Expr("NULL"),
			"error_message": gorm.Expr("NULL"),
			"retryable":     gorm.Expr("NULL"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func firstOrNil[T any](query *gorm.DB) (*T, error) {
	var record T
	err := query.First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
