package rondas

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	rondasdomain "ronda-app-go/internal/domain/rondas"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(rondasdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) ListRondas(ctx context.Context, contratoID string, filter rondasdomain.RondaFilter) ([]rondasdomain.Ronda, int64, error) {
	query := r.db.WithContext(ctx).Model(&rondasdomain.Ronda{}).Where("contrato_id = ?", contratoID)
	if filter.From != nil {
		query = query.Where("data >= ?", filter.From.Time(time.UTC))
	}
	if filter.To != nil {
		query = query.Where("data <= ?", filter.To.Time(time.UTC))
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("data desc, hora desc, created_at desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rondas []rondasdomain.Ronda
	if err := query.Find(&rondas).Error; err != nil {
		return nil, 0, err
	}
	return rondas, total, nil
}

func (r *PostgresRepository) GetRonda(ctx context.Context, contratoID, id string) (*rondasdomain.Ronda, error) {
	var ronda rondasdomain.Ronda
	if err := r.db.WithContext(ctx).
		Where("contrato_id = ? AND id = ?", contratoID, id).
		First(&ronda).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rondasdomain.ErrRondaNotFound
		}
		return nil, err
	}
	return &ronda, nil
}

func (r *PostgresRepository) CreateRonda(ctx context.Context, ronda *rondasdomain.Ronda) error {
	return translateCreate(r.db.WithContext(ctx).Create(ronda).Error)
}

func (r *PostgresRepository) UpdateRonda(ctx context.Context, ronda *rondasdomain.Ronda) error {
	return r.db.WithContext(ctx).
		Model(&rondasdomain.Ronda{}).
		Where("id = ? AND contrato_id = ?", ronda.ID, ronda.ContratoID).
		Updates(map[string]interface{}{
			"nome":        ronda.Nome,
			"data":        ronda.Data,
			"hora":        ronda.Hora,
			"responsavel": ronda.Responsavel,
			"observacoes": ronda.Observacoes,
		}).Error
}

func (r *PostgresRepository) SoftDeleteRonda(ctx context.Context, contratoID, id string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&rondasdomain.Ronda{}, "contrato_id = ? AND id = ?", contratoID, id)
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) ListAreas(ctx context.Context, rondaID string) ([]rondasdomain.AreaTecnica, error) {
	var areas []rondasdomain.AreaTecnica
	if err := r.db.WithContext(ctx).
		Where("ronda_id = ?", rondaID).
		Order("created_at asc").
		Find(&areas).Error; err != nil {
		return nil, err
	}
	return areas, nil
}

// GetArea only finds areas whose ronda is alive and belongs to contratoID.
func (r *PostgresRepository) GetArea(ctx context.Context, contratoID, id string) (*rondasdomain.AreaTecnica, error) {
	var area rondasdomain.AreaTecnica
	if err := r.db.WithContext(ctx).
		Joins("JOIN rondas ON rondas.id = areas_tecnicas.ronda_id AND rondas.deleted_at IS NULL").
		Where("rondas.contrato_id = ? AND areas_tecnicas.id = ?", contratoID, id).
		First(&area).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rondasdomain.ErrAreaNotFound
		}
		return nil, err
	}
	return &area, nil
}

func (r *PostgresRepository) CreateArea(ctx context.Context, area *rondasdomain.AreaTecnica) error {
	return translateCreate(r.db.WithContext(ctx).Create(area).Error)
}

func (r *PostgresRepository) UpdateArea(ctx context.Context, area *rondasdomain.AreaTecnica) error {
	return r.db.WithContext(ctx).
		Model(&rondasdomain.AreaTecnica{}).
		Where("id = ?", area.ID).
		Updates(map[string]interface{}{
			"nome":        area.Nome,
			"status":      area.Status,
			"observacoes": area.Observacoes,
			"foto_url":    area.FotoURL,
		}).Error
}

func (r *PostgresRepository) SoftDeleteArea(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&rondasdomain.AreaTecnica{}, "id = ?", id)
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) SoftDeleteAreasByRonda(ctx context.Context, rondaID string) error {
	return r.db.WithContext(ctx).Delete(&rondasdomain.AreaTecnica{}, "ronda_id = ?", rondaID).Error
}

func (r *PostgresRepository) ListItens(ctx context.Context, rondaID string, status *rondasdomain.ItemStatus) ([]rondasdomain.ItemRelevante, error) {
	query := r.db.WithContext(ctx).Where("ronda_id = ?", rondaID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var itens []rondasdomain.ItemRelevante
	if err := query.Order("created_at asc").Find(&itens).Error; err != nil {
		return nil, err
	}
	return itens, nil
}

func (r *PostgresRepository) GetItem(ctx context.Context, contratoID, id string) (*rondasdomain.ItemRelevante, error) {
	var item rondasdomain.ItemRelevante
	if err := r.db.WithContext(ctx).
		Joins("JOIN rondas ON rondas.id = itens_relevantes.ronda_id AND rondas.deleted_at IS NULL").
		Where("rondas.contrato_id = ? AND itens_relevantes.id = ?", contratoID, id).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rondasdomain.ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *PostgresRepository) CreateItem(ctx context.Context, item *rondasdomain.ItemRelevante) error {
	return translateCreate(r.db.WithContext(ctx).Create(item).Error)
}

func (r *PostgresRepository) UpdateItem(ctx context.Context, item *rondasdomain.ItemRelevante) error {
	return r.db.WithContext(ctx).
		Model(&rondasdomain.ItemRelevante{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"descricao":    item.Descricao,
			"prioridade":   item.Prioridade,
			"status":       item.Status,
			"foto_url":     item.FotoURL,
			"corrigido_em": item.CorrigidoEm,
		}).Error
}

func (r *PostgresRepository) SoftDeleteItem(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&rondasdomain.ItemRelevante{}, "id = ?", id)
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) SoftDeleteItensByRonda(ctx context.Context, rondaID string) error {
	return r.db.WithContext(ctx).Delete(&rondasdomain.ItemRelevante{}, "ronda_id = ?", rondaID).Error
}

func translateCreate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return rondasdomain.ErrAlreadyExists
		case "23503":
			return rondasdomain.ErrRondaNotFound
		}
	}
	return err
}
