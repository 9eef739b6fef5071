package agenda

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"ronda-app-go/internal/recurrence"
)

// MaxPeriodDays bounds occurrence projections so a single request cannot
// scan years of calendar days per item.
const MaxPeriodDays = 366

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListItems(ctx context.Context, contratoID string) ([]Item, error) {
	return s.repo.ListItems(ctx, contratoID)
}

func (s *Service) GetItem(ctx context.Context, contratoID, id string) (*Item, error) {
	return s.repo.GetItem(ctx, contratoID, id)
}

func (s *Service) CreateItem(ctx context.Context, input CreateItemInput) (*Item, error) {
	titulo := strings.TrimSpace(input.Titulo)
	if titulo == "" {
		return nil, fmt.Errorf("%w: titulo is required", ErrInvalidInput)
	}
	if input.Data.IsZero() {
		return nil, fmt.Errorf("%w: data is required", ErrInvalidInput)
	}
	hora, err := normalizeHora(input.Hora)
	if err != nil {
		return nil, err
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: id must be a uuid", ErrInvalidInput)
	}

	item := Item{
		ID:                 id,
		ContratoID:         input.ContratoID,
		Titulo:             titulo,
		Descricao:          strings.TrimSpace(input.Descricao),
		Data:               input.Data.Time(time.UTC),
		Hora:               hora,
		RecurrenceInterval: 1,
	}
	if err := applyRecurrence(&item, input.Recurrence); err != nil {
		return nil, err
	}

	if err := s.repo.CreateItem(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Service) UpdateItem(ctx context.Context, input UpdateItemInput) (*Item, error) {
	if input.Titulo == nil && input.Descricao == nil && input.Data == nil && input.Hora == nil &&
		input.Recurrence == nil && !input.ClearRepeat {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	if input.Recurrence != nil && input.ClearRepeat {
		return nil, fmt.Errorf("%w: recurrence and clear_recurrence are exclusive", ErrInvalidInput)
	}

	item, err := s.repo.GetItem(ctx, input.ContratoID, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Titulo != nil {
		titulo := strings.TrimSpace(*input.Titulo)
		if titulo == "" {
			return nil, fmt.Errorf("%w: titulo is required", ErrInvalidInput)
		}
		item.Titulo = titulo
	}
	if input.Descricao != nil {
		item.Descricao = strings.TrimSpace(*input.Descricao)
	}
	if input.Data != nil {
		if input.Data.IsZero() {
			return nil, fmt.Errorf("%w: data is required", ErrInvalidInput)
		}
		item.Data = input.Data.Time(time.UTC)
	}
	if input.Hora != nil {
		hora, err := normalizeHora(*input.Hora)
		if err != nil {
			return nil, err
		}
		item.Hora = hora
	}
	if input.ClearRepeat {
		item.RecurrenceType = nil
		item.RecurrenceInterval = 1
		item.RecurrenceEnd = nil
		item.RecurrenceWeekDays = ""
	}
	if input.Recurrence != nil {
		if err := applyRecurrence(item, input.Recurrence); err != nil {
			return nil, err
		}
	} else if item.Recurring() {
		// A new start date can invalidate a stored end date.
		if _, err := validRule(*item); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, contratoID, id string) error {
	deleted, err := s.repo.SoftDeleteItem(ctx, contratoID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrItemNotFound
	}
	return nil
}

// AddExclusion skips one occurrence of a recurring item. Excluding a date
// twice is not an error.
func (s *Service) AddExclusion(ctx context.Context, contratoID, itemID string, date recurrence.Date) error {
	item, err := s.repo.GetItem(ctx, contratoID, itemID)
	if err != nil {
		return err
	}
	rule, err := item.Rule(nil)
	if err != nil {
		return err
	}
	if !recurrence.IsOccurrence(date, rule) {
		return fmt.Errorf("%w: %s", ErrNotAnOccurrence, date)
	}

	return s.repo.AddExclusion(ctx, &Exclusion{
		ID:     uuid.NewString(),
		ItemID: item.ID,
		Data:   date.Time(time.UTC),
	})
}

// Occurrences projects every item of the contrato onto [from, to], sorted by
// date and hora.
func (s *Service) Occurrences(ctx context.Context, contratoID string, from, to recurrence.Date) ([]Occurrence, error) {
	if from.After(to) {
		return nil, fmt.Errorf("%w: from %s is after to %s", ErrInvalidInput, from, to)
	}
	if from.DaysUntil(to) >= MaxPeriodDays {
		return nil, fmt.Errorf("%w: at most %d days", ErrPeriodTooLong, MaxPeriodDays)
	}

	items, err := s.repo.ListItems(ctx, contratoID)
	if err != nil {
		return nil, err
	}

	exclusions, err := s.exclusionsFor(ctx, items)
	if err != nil {
		return nil, err
	}

	result := make([]Occurrence, 0, len(items))
	for _, item := range items {
		if !item.Recurring() {
			date := recurrence.FromTime(item.Data)
			if !date.Before(from) && !date.After(to) {
				result = append(result, occurrenceOf(item, date))
			}
			continue
		}

		rule, err := item.Rule(exclusions[item.ID])
		if err != nil {
			return nil, fmt.Errorf("agenda item %s: %w", item.ID, err)
		}
		dates, err := recurrence.GenerateForPeriod(item.ID, rule, from, to)
		if err != nil {
			return nil, fmt.Errorf("agenda item %s: %w", item.ID, err)
		}
		for _, occ := range dates {
			result = append(result, occurrenceOf(item, occ.Date))
		}
	}

	sort.SliceStable(result, func(a, b int) bool {
		if c := result[a].Date.Compare(result[b].Date); c != 0 {
			return c < 0
		}
		if result[a].Hora != result[b].Hora {
			return result[a].Hora < result[b].Hora
		}
		return result[a].Titulo < result[b].Titulo
	})
	return result, nil
}

// Upcoming returns at most limit occurrences in the days after from.
func (s *Service) Upcoming(ctx context.Context, contratoID string, from recurrence.Date, days, limit int) ([]Occurrence, error) {
	if days < 1 {
		days = 1
	}
	occurrences, err := s.Occurrences(ctx, contratoID, from, from.AddDays(days-1))
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(occurrences) > limit {
		occurrences = occurrences[:limit]
	}
	return occurrences, nil
}

func (s *Service) exclusionsFor(ctx context.Context, items []Item) (map[string][]recurrence.Date, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.Recurring() {
			ids = append(ids, item.ID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.repo.ListExclusions(ctx, ids)
	if err != nil {
		return nil, err
	}
	byItem := make(map[string][]recurrence.Date, len(ids))
	for _, row := range rows {
		byItem[row.ItemID] = append(byItem[row.ItemID], recurrence.FromTime(row.Data))
	}
	return byItem, nil
}

func applyRecurrence(item *Item, input *Recurrence) error {
	if input == nil {
		return nil
	}
	interval := input.Interval
	if interval == 0 {
		interval = 1
	}

	freq := string(input.Type)
	item.RecurrenceType = &freq
	item.RecurrenceInterval = interval
	item.RecurrenceWeekDays = FormatWeekDays(input.WeekDays)
	item.RecurrenceEnd = nil
	if input.End != nil {
		end := input.End.Time(time.UTC)
		item.RecurrenceEnd = &end
	}

	_, err := validRule(*item)
	return err
}

func validRule(item Item) (recurrence.Rule, error) {
	rule, err := item.Rule(nil)
	if err == nil {
		err = rule.Validate()
	}
	if err != nil {
		return recurrence.Rule{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return rule, nil
}

func occurrenceOf(item Item, date recurrence.Date) Occurrence {
	return Occurrence{Date: date, ItemID: item.ID, Titulo: item.Titulo, Hora: item.Hora}
}

func normalizeHora(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return "", fmt.Errorf("%w: hora must be HH:MM", ErrInvalidInput)
	}
	return parsed.Format("15:04"), nil
}
