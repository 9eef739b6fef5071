package contratos

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	contratosdomain "ronda-app-go/internal/domain/contratos"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, filter contratosdomain.ListFilter) ([]contratosdomain.Contrato, int64, error) {
	query := r.db.WithContext(ctx).Model(&contratosdomain.Contrato{})
	if search := strings.TrimSpace(filter.Query); search != "" {
		query = query.Where("nome ILIKE ?", "%"+search+"%")
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("nome asc, created_at asc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var items []contratosdomain.Contrato
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*contratosdomain.Contrato, error) {
	var contrato contratosdomain.Contrato
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&contrato).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, contratosdomain.ErrContratoNotFound
		}
		return nil, err
	}
	return &contrato, nil
}

func (r *PostgresRepository) Create(ctx context.Context, contrato *contratosdomain.Contrato) error {
	err := r.db.WithContext(ctx).Create(contrato).Error
	if isUniqueViolation(err) {
		return contratosdomain.ErrContratoExists
	}
	return err
}

func (r *PostgresRepository) Update(ctx context.Context, contrato *contratosdomain.Contrato) error {
	result := r.db.WithContext(ctx).
		Model(&contratosdomain.Contrato{}).
		Where("id = ?", contrato.ID).
		Updates(map[string]interface{}{
			"nome":     contrato.Nome,
			"endereco": contrato.Endereco,
			"sindico":  contrato.Sindico,
			"status":   contrato.Status,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return contratosdomain.ErrContratoNotFound
	}
	return nil
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&contratosdomain.Contrato{}, "id = ?", id)
	return result.RowsAffected > 0, result.Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
