package dashboard

import (
	"time"

	"ronda-app-go/internal/recurrence"
)

type GroupBy string

const (
	GroupByDay   GroupBy = "day"
	GroupByWeek  GroupBy = "week"
	GroupByMonth GroupBy = "month"
)

func (g GroupBy) Valid() bool {
	return g == GroupByDay || g == GroupByWeek || g == GroupByMonth
}

type SummaryFilter struct {
	From recurrence.Date
	To   recurrence.Date
}

type TimeseriesFilter struct {
	From    recurrence.Date
	To      recurrence.Date
	GroupBy GroupBy
}

// Stats is what the repository aggregates for a contrato in a period.
type Stats struct {
	Rondas         int64
	AreasByStatus  []StatusCount
	OpenByPriority []StatusCount
	CorrectedItens int64
	LastRondaDate  *time.Time
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type TimeseriesPoint struct {
	Period string `json:"period"`
	Rondas int64  `json:"rondas"`
	Itens  int64  `json:"itens"`
}

type UpcomingItem struct {
	Date   string `json:"date"`
	ItemID string `json:"item_id"`
	Titulo string `json:"titulo"`
	Hora   string `json:"hora,omitempty"`
}

type Summary struct {
	From                  string           `json:"from"`
	To                    string           `json:"to"`
	Rondas                int64            `json:"rondas"`
	RondasPerWeek         float64          `json:"rondas_per_week"`
	LastRondaDate         *string          `json:"last_ronda_date,omitempty"`
	AreasByStatus         map[string]int64 `json:"areas_by_status"`
	OpenItensByPrioridade map[string]int64 `json:"open_itens_by_prioridade"`
	OpenItens             int64            `json:"open_itens"`
	CorrectedItens        int64            `json:"corrected_itens"`
	Upcoming              []UpcomingItem   `json:"upcoming"`
}
