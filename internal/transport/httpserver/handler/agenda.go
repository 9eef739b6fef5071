package handler

import (
	"errors"
	"net/http"
	"time"

	agendadomain "ronda-app-go/internal/domain/agenda"
	"ronda-app-go/internal/recurrence"
)

type recurrenceRequest struct {
	Type     string `json:"type"`
	Interval int    `json:"interval"`
	EndDate  string `json:"end_date"`
	WeekDays []int  `json:"week_days"`
}

type createAgendaItemRequest struct {
	ID         string             `json:"id"`
	Titulo     string             `json:"titulo"`
	Descricao  string             `json:"descricao"`
	Data       string             `json:"data"`
	Hora       string             `json:"hora"`
	Recurrence *recurrenceRequest `json:"recurrence"`
}

type updateAgendaItemRequest struct {
	Titulo          *string            `json:"titulo"`
	Descricao       *string            `json:"descricao"`
	Data            *string            `json:"data"`
	Hora            *string            `json:"hora"`
	Recurrence      *recurrenceRequest `json:"recurrence"`
	ClearRecurrence bool               `json:"clear_recurrence"`
}

type addExclusionRequest struct {
	Data string `json:"data"`
}

type recurrenceResponse struct {
	Type     string  `json:"type"`
	Interval int     `json:"interval"`
	EndDate  *string `json:"end_date"`
	WeekDays []int   `json:"week_days"`
}

type agendaItemResponse struct {
	ID         string              `json:"id"`
	ContratoID string              `json:"contrato_id"`
	Titulo     string              `json:"titulo"`
	Descricao  string              `json:"descricao"`
	Data       string              `json:"data"`
	Hora       string              `json:"hora"`
	Recurrence *recurrenceResponse `json:"recurrence"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

type occurrenceResponse struct {
	Date   string `json:"date"`
	ItemID string `json:"item_id"`
	Titulo string `json:"titulo"`
	Hora   string `json:"hora"`
}

func (h *Handlers) ListAgenda(w http.ResponseWriter, r *http.Request) {
	contrato, ok := h.contrato(w, r, "agenda.list")
	if !ok {
		return
	}

	items, err := h.Agenda.ListItems(r.Context(), contrato.ID)
	if err != nil {
		h.writeAgendaError(w, "agenda.list", err, "contrato_id", contrato.ID)
		return
	}

	response := make([]agendaItemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, toAgendaItemResponse(item))
	}
	writeJSON(w, http.StatusOK, newList(response))
}

func (h *Handlers) GetAgendaItem(w http.ResponseWriter, r *http.Request) {
	contrato, ok := h.contrato(w, r, "agenda.get")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "agenda_id")
	if !ok {
		return
	}

	item, err := h.Agenda.GetItem(r.Context(), contrato.ID, itemID)
	if err != nil {
		h.writeAgendaError(w, "agenda.get", err, "contrato_id", contrato.ID, "agenda_id", itemID)
		return
	}
	writeJSON(w, http.StatusOK, toAgendaItemResponse(*item))
}

func (h *Handlers) CreateAgendaItem(w http.ResponseWriter, r *http.Request) {
	var req createAgendaItemRequest
	if !readJSON(w, r, &req) {
		return
	}

	contrato, ok := h.contrato(w, r, "agenda.create")
	if !ok {
		return
	}

	data, err := parseDateRequired(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid data")
		return
	}
	rec, err := parseRecurrence(req.Recurrence)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	created, err := h.Agenda.CreateItem(r.Context(), agendadomain.CreateItemInput{
		ID:         req.ID,
		ContratoID: contrato.ID,
		Titulo:     req.Titulo,
		Descricao:  req.Descricao,
		Data:       data,
		Hora:       req.Hora,
		Recurrence: rec,
	})
	if err != nil {
		h.writeAgendaError(w, "agenda.create", err, "contrato_id", contrato.ID)
		return
	}
	writeJSON(w, http.StatusCreated, toAgendaItemResponse(*created))
}

func (h *Handlers) UpdateAgendaItem(w http.ResponseWriter, r *http.Request) {
	var req updateAgendaItemRequest
	if !readJSON(w, r, &req) {
		return
	}

	contrato, ok := h.contrato(w, r, "agenda.update")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "agenda_id")
	if !ok {
		return
	}

	input := agendadomain.UpdateItemInput{
		ID:          itemID,
		ContratoID:  contrato.ID,
		Titulo:      req.Titulo,
		Descricao:   req.Descricao,
		Hora:        req.Hora,
		ClearRepeat: req.ClearRecurrence,
	}
	if req.Data != nil {
		data, err := parseDateRequired(*req.Data)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid data")
			return
		}
		input.Data = &data
	}
	rec, err := parseRecurrence(req.Recurrence)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	input.Recurrence = rec

	updated, err := h.Agenda.UpdateItem(r.Context(), input)
	if err != nil {
		h.writeAgendaError(w, "agenda.update", err, "contrato_id", contrato.ID, "agenda_id", itemID)
		return
	}
	writeJSON(w, http.StatusOK, toAgendaItemResponse(*updated))
}

func (h *Handlers) DeleteAgendaItem(w http.ResponseWriter, r *http.Request) {
	contrato, ok := h.contrato(w, r, "agenda.delete")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "agenda_id")
	if !ok {
		return
	}

	if err := h.Agenda.DeleteItem(r.Context(), contrato.ID, itemID); err != nil {
		h.writeAgendaError(w, "agenda.delete", err, "contrato_id", contrato.ID, "agenda_id", itemID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AddAgendaExclusion(w http.ResponseWriter, r *http.Request) {
	var req addExclusionRequest
	if !readJSON(w, r, &req) {
		return
	}

	contrato, ok := h.contrato(w, r, "agenda.exclusion")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "agenda_id")
	if !ok {
		return
	}

	date, err := parseDateRequired(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid data")
		return
	}

	if err := h.Agenda.AddExclusion(r.Context(), contrato.ID, itemID, date); err != nil {
		h.writeAgendaError(w, "agenda.exclusion", err, "contrato_id", contrato.ID, "agenda_id", itemID, "data", date.String())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListOccurrences(w http.ResponseWriter, r *http.Request) {
	contrato, ok := h.contrato(w, r, "agenda.occurrences")
	if !ok {
		return
	}

	query := r.URL.Query()
	from, err := parseDateRequired(query.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid from date")
		return
	}
	to, err := parseDateRequired(query.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid to date")
		return
	}

	occurrences, err := h.Agenda.Occurrences(r.Context(), contrato.ID, from, to)
	if err != nil {
		h.writeAgendaError(w, "agenda.occurrences", err, "contrato_id", contrato.ID)
		return
	}

	response := make([]occurrenceResponse, 0, len(occurrences))
	for _, occ := range occurrences {
		response = append(response, occurrenceResponse{
			Date:   occ.Date.String(),
			ItemID: occ.ItemID,
			Titulo: occ.Titulo,
			Hora:   occ.Hora,
		})
	}
	writeJSON(w, http.StatusOK, newList(response))
}

func (h *Handlers) writeAgendaError(w http.ResponseWriter, op string, err error, attrs ...any) {
	switch {
	case errors.Is(err, agendadomain.ErrInvalidInput):
		h.log.BusinessError(op+": invalid input", err, attrs...)
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, agendadomain.ErrPeriodTooLong):
		h.log.BusinessError(op+": period too long", err, attrs...)
		writeError(w, http.StatusBadRequest, "period_too_long", err.Error())
	case errors.Is(err, agendadomain.ErrNotRecurring):
		h.log.BusinessError(op+": not recurring", err, attrs...)
		writeError(w, http.StatusConflict, "not_recurring", "agenda item does not repeat")
	case errors.Is(err, agendadomain.ErrNotAnOccurrence):
		h.log.BusinessError(op+": not an occurrence", err, attrs...)
		writeError(w, http.StatusBadRequest, "not_an_occurrence", err.Error())
	case errors.Is(err, agendadomain.ErrItemNotFound):
		h.log.BusinessError(op+": item not found", err, attrs...)
		writeError(w, http.StatusNotFound, "agenda_item_not_found", "agenda item not found")
	case errors.Is(err, agendadomain.ErrAlreadyExists):
		h.log.BusinessError(op+": already exists", err, attrs...)
		writeError(w, http.StatusConflict, "already_exists", "record with this id already exists")
	default:
		h.log.InternalError(op+": failed", err, attrs...)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func parseRecurrence(req *recurrenceRequest) (*agendadomain.Recurrence, error) {
	if req == nil {
		return nil, nil
	}
	freq, err := recurrence.ParseFrequency(req.Type)
	if err != nil {
		return nil, err
	}
	end, err := parseDateParam(req.EndDate)
	if err != nil {
		return nil, errors.New("invalid end_date")
	}
	weekDays := make([]time.Weekday, 0, len(req.WeekDays))
	for _, day := range req.WeekDays {
		weekDays = append(weekDays, time.Weekday(day))
	}
	return &agendadomain.Recurrence{
		Type:     freq,
		Interval: req.Interval,
		End:      end,
		WeekDays: weekDays,
	}, nil
}

func toAgendaItemResponse(item agendadomain.Item) agendaItemResponse {
	response := agendaItemResponse{
		ID:         item.ID,
		ContratoID: item.ContratoID,
		Titulo:     item.Titulo,
		Descricao:  item.Descricao,
		Data:       recurrence.FromTime(item.Data).String(),
		Hora:       item.Hora,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
	if item.Recurring() {
		rec := &recurrenceResponse{
			Type:     *item.RecurrenceType,
			Interval: item.RecurrenceInterval,
			WeekDays: []int{},
		}
		if item.RecurrenceEnd != nil {
			end := recurrence.FromTime(*item.RecurrenceEnd)
			rec.EndDate = formatDatePtr(&end)
		}
		days, _ := agendadomain.ParseWeekDays(item.RecurrenceWeekDays)
		for _, day := range days {
			rec.WeekDays = append(rec.WeekDays, int(day))
		}
		response.Recurrence = rec
	}
	return response
}
