package agenda

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"ronda-app-go/internal/recurrence"
)

// Item is a scheduled task for a contrato, such as a pump inspection or a
// laudo renewal. Items without RecurrenceType happen once, on Data.
type Item struct {
	ID                 string         `gorm:"type:uuid;primaryKey"`
	ContratoID         string         `gorm:"type:uuid;index;not null"`
	Titulo             string         `gorm:"not null"`
	Descricao          string         `gorm:"not null;default:''"`
	Data               time.Time      `gorm:"type:date;not null"`
	Hora               string         `gorm:"type:varchar(5);not null;default:''"`
	RecurrenceType     *string        `gorm:"type:varchar(16)"`
	RecurrenceInterval int            `gorm:"not null;default:1"`
	RecurrenceEnd      *time.Time     `gorm:"type:date"`
	RecurrenceWeekDays string         `gorm:"column:recurrence_week_days;not null;default:''"`
	CreatedAt          time.Time      `gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime"`
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (Item) TableName() string {
	return "agenda_itens"
}

func (i Item) Recurring() bool {
	return i.RecurrenceType != nil && *i.RecurrenceType != ""
}

// Rule rebuilds the recurrence rule stored on the item. Exclusions are kept
// in their own table and passed in by the caller.
func (i Item) Rule(exclusions []recurrence.Date) (recurrence.Rule, error) {
	if !i.Recurring() {
		return recurrence.Rule{}, ErrNotRecurring
	}
	freq, err := recurrence.ParseFrequency(*i.RecurrenceType)
	if err != nil {
		return recurrence.Rule{}, err
	}
	weekDays, err := ParseWeekDays(i.RecurrenceWeekDays)
	if err != nil {
		return recurrence.Rule{}, err
	}

	rule := recurrence.Rule{
		Type:       freq,
		Interval:   i.RecurrenceInterval,
		Start:      recurrence.FromTime(i.Data),
		WeekDays:   weekDays,
		Exclusions: exclusions,
	}
	if i.RecurrenceEnd != nil {
		end := recurrence.FromTime(*i.RecurrenceEnd)
		rule.End = &end
	}
	return rule, nil
}

// Exclusion removes a single date from a recurring item.
type Exclusion struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	ItemID    string    `gorm:"column:agenda_item_id;type:uuid;index;not null"`
	Data      time.Time `gorm:"type:date;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Exclusion) TableName() string {
	return "agenda_exclusions"
}

// Occurrence is one dated instance of an item inside a queried period.
type Occurrence struct {
	Date   recurrence.Date
	ItemID string
	Titulo string
	Hora   string
}

type Recurrence struct {
	Type     recurrence.Frequency
	Interval int
	End      *recurrence.Date
	WeekDays []time.Weekday
}

type CreateItemInput struct {
	ID         string
	ContratoID string
	Titulo     string
	Descricao  string
	Data       recurrence.Date
	Hora       string
	Recurrence *Recurrence
}

type UpdateItemInput struct {
	ID          string
	ContratoID  string
	Titulo      *string
	Descricao   *string
	Data        *recurrence.Date
	Hora        *string
	Recurrence  *Recurrence
	ClearRepeat bool
}

// FormatWeekDays stores weekdays as a sorted comma separated list of
// numbers, Sunday being 0.
func FormatWeekDays(days []time.Weekday) string {
	if len(days) == 0 {
		return ""
	}
	sorted := append([]time.Weekday(nil), days...)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a] < sorted[b] })

	parts := make([]string, len(sorted))
	for i, day := range sorted {
		parts[i] = strconv.Itoa(int(day))
	}
	return strings.Join(parts, ",")
}

func ParseWeekDays(value string) ([]time.Weekday, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("%w: bad week day %q", ErrInvalidInput, part)
		}
		days = append(days, time.Weekday(n))
	}
	return days, nil
}
