package sync

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	agendadomain "ronda-app-go/internal/domain/agenda"
	rondasdomain "ronda-app-go/internal/domain/rondas"
	"ronda-app-go/internal/recurrence"
)

var (
	errBadJSON     = errors.New("payload is not valid json")
	errMissingID   = errors.New("entity_id is required")
	errUnsupported = errors.New("unsupported operation")
)

type rondaPayload struct {
	ID          string           `json:"id"`
	Nome        *string          `json:"nome"`
	Data        *recurrence.Date `json:"data"`
	Hora        *string          `json:"hora"`
	Responsavel *string          `json:"responsavel"`
	Observacoes *string          `json:"observacoes"`
}

type areaPayload struct {
	ID          string                   `json:"id"`
	RondaID     string                   `json:"ronda_id"`
	Nome        *string                  `json:"nome"`
	Status      *rondasdomain.AreaStatus `json:"status"`
	Observacoes *string                  `json:"observacoes"`
	FotoURL     *string                  `json:"foto_url"`
}

type itemPayload struct {
	ID         string                   `json:"id"`
	RondaID    string                   `json:"ronda_id"`
	Descricao  *string                  `json:"descricao"`
	Prioridade *rondasdomain.Prioridade `json:"prioridade"`
	Status     *rondasdomain.ItemStatus `json:"status"`
	FotoURL    *string                  `json:"foto_url"`
}

type agendaPayload struct {
	ID              string             `json:"id"`
	Titulo          *string            `json:"titulo"`
	Descricao       *string            `json:"descricao"`
	Data            *recurrence.Date   `json:"data"`
	Hora            *string            `json:"hora"`
	Recurrence      *recurrencePayload `json:"recurrence"`
	ClearRecurrence bool               `json:"clear_recurrence"`
}

type recurrencePayload struct {
	Type     string           `json:"type"`
	Interval int              `json:"interval"`
	EndDate  *recurrence.Date `json:"end_date"`
	WeekDays []int            `json:"week_days"`
}

func (p *recurrencePayload) toDomain() (*agendadomain.Recurrence, error) {
	if p == nil {
		return nil, nil
	}
	freq, err := recurrence.ParseFrequency(p.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", agendadomain.ErrInvalidInput, err)
	}
	weekDays := make([]time.Weekday, 0, len(p.WeekDays))
	for _, day := range p.WeekDays {
		weekDays = append(weekDays, time.Weekday(day))
	}
	return &agendadomain.Recurrence{
		Type:     freq,
		Interval: p.Interval,
		End:      p.EndDate,
		WeekDays: weekDays,
	}, nil
}

func decodePayload(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return nil
}

func pickID(entityID, payloadID string) string {
	if id := strings.TrimSpace(entityID); id != "" {
		return id
	}
	return strings.TrimSpace(payloadID)
}
