package agenda

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	agendadomain "ronda-app-go/internal/domain/agenda"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListItems(ctx context.Context, contratoID string) ([]agendadomain.Item, error) {
	var items []agendadomain.Item
	if err := r.db.WithContext(ctx).
		Where("contrato_id = ?", contratoID).
		Order("data asc, hora asc, created_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PostgresRepository) GetItem(ctx context.Context, contratoID, id string) (*agendadomain.Item, error) {
	var item agendadomain.Item
	if err := r.db.WithContext(ctx).
		Where("contrato_id = ? AND id = ?", contratoID, id).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, agendadomain.ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *PostgresRepository) CreateItem(ctx context.Context, item *agendadomain.Item) error {
	err := r.db.WithContext(ctx).Create(item).Error
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return agendadomain.ErrAlreadyExists
	}
	return err
}

func (r *PostgresRepository) UpdateItem(ctx context.Context, item *agendadomain.Item) error {
	return r.db.WithContext(ctx).
		Model(&agendadomain.Item{}).
		Where("id = ? AND contrato_id = ?", item.ID, item.ContratoID).
		Updates(map[string]interface{}{
			"titulo":               item.Titulo,
			"descricao":            item.Descricao,
			"data":                 item.Data,
			"hora":                 item.Hora,
			"recurrence_type":      item.RecurrenceType,
			"recurrence_interval":  item.RecurrenceInterval,
			"recurrence_end":       item.RecurrenceEnd,
			"recurrence_week_days": item.RecurrenceWeekDays,
		}).Error
}

func (r *PostgresRepository) SoftDeleteItem(ctx context.Context, contratoID, id string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&agendadomain.Item{}, "contrato_id = ? AND id = ?", contratoID, id)
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) ListExclusions(ctx context.Context, itemIDs []string) ([]agendadomain.Exclusion, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var exclusions []agendadomain.Exclusion
	if err := r.db.WithContext(ctx).
		Where("agenda_item_id IN ?", itemIDs).
		Order("data asc").
		Find(&exclusions).Error; err != nil {
		return nil, err
	}
	return exclusions, nil
}

func (r *PostgresRepository) AddExclusion(ctx context.Context, exclusion *agendadomain.Exclusion) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "agenda_item_id"}, {Name: "data"}},
			DoNothing: true,
		}).
		Create(exclusion).Error
}
