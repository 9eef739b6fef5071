package dashboard

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	dashboarddomain "ronda-app-go/internal/domain/dashboard"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const rondaWhere = "r.contrato_id = ? AND r.deleted_at IS NULL AND r.data >= ? AND r.data <= ?"

// Stats counts rondas and area states inside the period. Open itens are
// counted over the whole contrato since an item stays open until corrected,
// while corrected itens count by the day they were corrected.
func (r *PostgresRepository) Stats(ctx context.Context, contratoID string, from, to time.Time) (dashboarddomain.Stats, error) {
	db := r.db.WithContext(ctx)

	var rondaRow struct {
		Rondas    int64      `gorm:"column:rondas"`
		LastRonda *time.Time `gorm:"column:last_ronda"`
	}
	query := "SELECT COUNT(*) AS rondas, MAX(r.data) AS last_ronda FROM rondas r WHERE " + rondaWhere
	if err := db.Raw(query, contratoID, from, to).Scan(&rondaRow).Error; err != nil {
		return dashboarddomain.Stats{}, err
	}

	var areas []dashboarddomain.StatusCount
	query = "SELECT a.status AS status, COUNT(*) AS count FROM areas_tecnicas a " +
		"JOIN rondas r ON r.id = a.ronda_id " +
		"WHERE a.deleted_at IS NULL AND " + rondaWhere + " GROUP BY a.status ORDER BY a.status"
	if err := db.Raw(query, contratoID, from, to).Scan(&areas).Error; err != nil {
		return dashboarddomain.Stats{}, err
	}

	var open []dashboarddomain.StatusCount
	query = "SELECT i.prioridade AS status, COUNT(*) AS count FROM itens_relevantes i " +
		"JOIN rondas r ON r.id = i.ronda_id " +
		"WHERE i.deleted_at IS NULL AND i.status = 'ABERTO' AND r.contrato_id = ? AND r.deleted_at IS NULL " +
		"GROUP BY i.prioridade ORDER BY i.prioridade"
	if err := db.Raw(query, contratoID).Scan(&open).Error; err != nil {
		return dashboarddomain.Stats{}, err
	}

	var correctedRow struct {
		Count int64 `gorm:"column:count"`
	}
	query = "SELECT COUNT(*) AS count FROM itens_relevantes i " +
		"JOIN rondas r ON r.id = i.ronda_id " +
		"WHERE i.deleted_at IS NULL AND i.status = 'CORRIGIDO' AND r.contrato_id = ? AND r.deleted_at IS NULL " +
		"AND i.corrigido_em >= ? AND i.corrigido_em < ?"
	if err := db.Raw(query, contratoID, from, to.AddDate(0, 0, 1)).Scan(&correctedRow).Error; err != nil {
		return dashboarddomain.Stats{}, err
	}

	return dashboarddomain.Stats{
		Rondas:         rondaRow.Rondas,
		AreasByStatus:  areas,
		OpenByPriority: open,
		CorrectedItens: correctedRow.Count,
		LastRondaDate:  rondaRow.LastRonda,
	}, nil
}

func (r *PostgresRepository) Timeseries(ctx context.Context, contratoID string, from, to time.Time, groupBy dashboarddomain.GroupBy) ([]dashboarddomain.TimeseriesPoint, error) {
	if !groupBy.Valid() {
		return nil, fmt.Errorf("invalid group_by")
	}

	// r.data is a DATE. Converting through a timezone here would move rondas
	// to the neighbor bucket.
	periodExpr := fmt.Sprintf("date_trunc('%s', r.data::timestamp)", groupBy)
	query := fmt.Sprintf("SELECT to_char(%s, 'YYYY-MM-DD') AS period, COUNT(DISTINCT r.id) AS rondas, COUNT(i.id) AS itens "+
		"FROM rondas r LEFT JOIN itens_relevantes i ON i.ronda_id = r.id AND i.deleted_at IS NULL "+
		"WHERE %s GROUP BY 1 ORDER BY 1", periodExpr, rondaWhere)

	var rows []dashboarddomain.TimeseriesPoint
	if err := r.db.WithContext(ctx).Raw(query, contratoID, from, to).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
