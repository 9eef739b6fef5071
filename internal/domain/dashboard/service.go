package dashboard

import (
	"context"
	"fmt"
	"math"
	"time"

	agendadomain "ronda-app-go/internal/domain/agenda"
	rondasdomain "ronda-app-go/internal/domain/rondas"
	"ronda-app-go/internal/recurrence"
)

const (
	maxPeriodDays = 366

	defaultCacheTTL      = 30 * time.Second
	defaultUpcomingDays  = 14
	defaultUpcomingLimit = 10
)

type UpcomingSource interface {
	Upcoming(ctx context.Context, contratoID string, from recurrence.Date, days, limit int) ([]agendadomain.Occurrence, error)
}

// Cache holds computed summaries. Keys start with the contrato id so a write
// to one contrato can drop all of its periods at once.
type Cache interface {
	Get(key string) (Summary, bool)
	Set(key string, summary Summary, ttl time.Duration)
	Invalidate(contratoID string)
}

type Config struct {
	CacheTTL      time.Duration
	UpcomingDays  int
	UpcomingLimit int
}

type Service struct {
	repo     Repository
	upcoming UpcomingSource
	cache    Cache
	cfg      Config
	now      func() time.Time
}

func NewService(repo Repository, upcoming UpcomingSource) *Service {
	return NewServiceWithCache(repo, upcoming, nil, Config{})
}

func NewServiceWithCache(repo Repository, upcoming UpcomingSource, cache Cache, cfg Config) *Service {
	if cache == nil {
		cache = noopCache{}
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.UpcomingDays <= 0 {
		cfg.UpcomingDays = defaultUpcomingDays
	}
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = defaultUpcomingLimit
	}
	return &Service{
		repo:     repo,
		upcoming: upcoming,
		cache:    cache,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *Service) Summary(ctx context.Context, contratoID string, filter SummaryFilter) (Summary, error) {
	if err := validatePeriod(filter.From, filter.To); err != nil {
		return Summary{}, err
	}

	key := cacheKey(contratoID, filter)
	if cached, ok := s.cache.Get(key); ok {
		return cloneSummary(cached), nil
	}

	stats, err := s.repo.Stats(ctx, contratoID, filter.From.Time(time.UTC), filter.To.Time(time.UTC))
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		From:                  filter.From.String(),
		To:                    filter.To.String(),
		Rondas:                stats.Rondas,
		RondasPerWeek:         perWeek(stats.Rondas, filter.From.DaysUntil(filter.To)+1),
		AreasByStatus:         zeroCounts(string(rondasdomain.AreaStatusAtivo), string(rondasdomain.AreaStatusEmManutencao), string(rondasdomain.AreaStatusAtencao)),
		OpenItensByPrioridade: zeroCounts(string(rondasdomain.PrioridadeBaixa), string(rondasdomain.PrioridadeMedia), string(rondasdomain.PrioridadeAlta)),
		CorrectedItens:        stats.CorrectedItens,
		Upcoming:              []UpcomingItem{},
	}
	if stats.LastRondaDate != nil {
		last := recurrence.FromTime(*stats.LastRondaDate).String()
		summary.LastRondaDate = &last
	}
	for _, row := range stats.AreasByStatus {
		summary.AreasByStatus[row.Status] += row.Count
	}
	for _, row := range stats.OpenByPriority {
		summary.OpenItensByPrioridade[row.Status] += row.Count
		summary.OpenItens += row.Count
	}

	if s.upcoming != nil {
		today := recurrence.FromTime(s.now())
		occurrences, err := s.upcoming.Upcoming(ctx, contratoID, today, s.cfg.UpcomingDays, s.cfg.UpcomingLimit)
		if err != nil {
			return Summary{}, err
		}
		for _, occ := range occurrences {
			summary.Upcoming = append(summary.Upcoming, UpcomingItem{
				Date:   occ.Date.String(),
				ItemID: occ.ItemID,
				Titulo: occ.Titulo,
				Hora:   occ.Hora,
			})
		}
	}

	s.cache.Set(key, cloneSummary(summary), s.cfg.CacheTTL)
	return summary, nil
}

func (s *Service) Timeseries(ctx context.Context, contratoID string, filter TimeseriesFilter) ([]TimeseriesPoint, error) {
	if err := validatePeriod(filter.From, filter.To); err != nil {
		return nil, err
	}
	if filter.GroupBy == "" {
		filter.GroupBy = GroupByDay
	}
	if !filter.GroupBy.Valid() {
		return nil, fmt.Errorf("%w: group_by must be day, week or month", ErrInvalidFilter)
	}
	return s.repo.Timeseries(ctx, contratoID, filter.From.Time(time.UTC), filter.To.Time(time.UTC), filter.GroupBy)
}

// Invalidate drops every cached summary of the contrato.
func (s *Service) Invalidate(contratoID string) {
	s.cache.Invalidate(contratoID)
}

func validatePeriod(from, to recurrence.Date) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: from and to are required", ErrInvalidFilter)
	}
	if from.After(to) {
		return fmt.Errorf("%w: from %s is after to %s", ErrInvalidFilter, from, to)
	}
	if from.DaysUntil(to) >= maxPeriodDays {
		return fmt.Errorf("%w: period longer than %d days", ErrInvalidFilter, maxPeriodDays)
	}
	return nil
}

func perWeek(count int64, days int) float64 {
	if days <= 0 {
		return 0
	}
	value := float64(count) / (float64(days) / 7)
	return math.Round(value*100) / 100
}

func zeroCounts(keys ...string) map[string]int64 {
	counts := make(map[string]int64, len(keys))
	for _, key := range keys {
		counts[key] = 0
	}
	return counts
}

func cacheKey(contratoID string, filter SummaryFilter) string {
	return contratoID + "|" + filter.From.String() + "|" + filter.To.String()
}

func cloneSummary(summary Summary) Summary {
	cloned := summary
	cloned.AreasByStatus = cloneCounts(summary.AreasByStatus)
	cloned.OpenItensByPrioridade = cloneCounts(summary.OpenItensByPrioridade)
	if summary.Upcoming != nil {
		cloned.Upcoming = make([]UpcomingItem, len(summary.Upcoming))
		copy(cloned.Upcoming, summary.Upcoming)
	}
	if summary.LastRondaDate != nil {
		last := *summary.LastRondaDate
		cloned.LastRondaDate = &last
	}
	return cloned
}

func cloneCounts(counts map[string]int64) map[string]int64 {
	if counts == nil {
		return nil
	}
	cloned := make(map[string]int64, len(counts))
	for key, value := range counts {
		cloned[key] = value
	}
	return cloned
}

type noopCache struct{}

func (noopCache) Get(string) (Summary, bool) {
	return Summary{}, false
}

func (noopCache) Set(string, Summary, time.Duration) {}

func (noopCache) Invalidate(string) {}
