package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	rondasdomain "ronda-app-go/internal/domain/rondas"
	"ronda-app-go/internal/recurrence"
)

type createRondaRequest struct {
	ID          string `json:"id"`
	Nome        string `json:"nome"`
	Data        string `json:"data"`
	Hora        string `json:"hora"`
	Responsavel string `json:"responsavel"`
	Observacoes string `json:"observacoes"`
}

type updateRondaRequest struct {
	Nome        *string `json:"nome"`
	Data        *string `json:"data"`
	Hora        *string `json:"hora"`
	Responsavel *string `json:"responsavel"`
	Observacoes *string `json:"observacoes"`
}

type createAreaRequest struct {
	ID          string  `json:"id"`
	Nome        string  `json:"nome"`
	Status      string  `json:"status"`
	Observacoes string  `json:"observacoes"`
	FotoURL     *string `json:"foto_url"`
}

type updateAreaRequest struct {
	Nome        *string `json:"nome"`
	Status      *string `json:"status"`
	Observacoes *string `json:"observacoes"`
	FotoURL     *string `json:"foto_url"`
}

type createItemRequest struct {
	ID         string  `json:"id"`
	Descricao  string  `json:"descricao"`
	Prioridade string  `json:"prioridade"`
	FotoURL    *string `json:"foto_url"`
}

type updateItemRequest struct {
	Descricao  *string `json:"descricao"`
	Prioridade *string `json:"prioridade"`
	Status     *string `json:"status"`
	FotoURL    *string `json:"foto_url"`
}

type rondaResponse struct {
	ID          string    `json:"id"`
	ContratoID  string    `json:"contrato_id"`
	Nome        string    `json:"nome"`
	Data        string    `json:"data"`
	Hora        string    `json:"hora"`
	Responsavel string    `json:"responsavel"`
	Observacoes string    `json:"observacoes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type rondaDetailResponse struct {
	rondaResponse
	Areas []areaResponse `json:"areas"`
	Itens []itemResponse `json:"itens"`
}

type areaResponse struct {
	ID          string    `json:"id"`
	RondaID     string    `json:"ronda_id"`
	Nome        string    `json:"nome"`
	Status      string    `json:"status"`
	Observacoes string    `json:"observacoes"`
	FotoURL     *string   `json:"foto_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type itemResponse struct {
	ID          string     `json:"id"`
	RondaID     string     `json:"ronda_id"`
	Descricao   string     `json:"descricao"`
	Prioridade  string     `json:"prioridade"`
	Status      string     `json:"status"`
	FotoURL     *string    `json:"foto_url"`
	CorrigidoEm *time.Time `json:"corrigido_em"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (h *Handlers) ListRondas(w http.ResponseWriter, r *http.Request) {
	contrato, ok := h.contrato(w, r, "rondas.list")
	if !ok {
		return
	}

	query := r.URL.Query()
	from, err := parseDateParam(query.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid from date")
		return
	}
	to, err := parseDateParam(query.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid to date")
		return
	}
	limit, err := parseIntParam(query.Get("limit"), 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
		return
	}
	offset, err := parseIntParam(query.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid offset")
		return
	}

	items, total, err := h.Rondas.ListRondas(r.Context(), contrato.ID, rondasdomain.RondaFilter{
		From:   from,
		To:     to,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.writeRondasError(w, "rondas.list", err, "contrato_id", contrato.ID)
		return
	}

	response := make([]rondaResponse, 0, len(items))
	for _, ronda := range items {
		response = append(response, toRondaResponse(ronda))
	}
	writeJSON(w, http.StatusOK, listResponse[rondaResponse]{Items: response, Total: total})
}

func (h *Handlers) GetRonda(w http.ResponseWriter, r *http.Request) {
	contrato, ok := h.contrato(w, r, "rondas.get")
	if !ok {
		return
	}
	rondaID, ok := pathID(w, r, "ronda_id")
	if !ok {
		return
	}

	detail, err := h.Rondas.GetRonda(r.Context(), contrato.ID, rondaID)
	if err != nil {
		h.writeRondasError(w, "rondas.get", err, "contrato_id", contrato.ID, "ronda_id", rondaID)
		return
	}

	response := rondaDetailResponse{
		rondaResponse: toRondaResponse(detail.Ronda),
		Areas:         make([]areaResponse, 0, len(detail.Areas)),
		Itens:         make([]itemResponse, 0, len(detail.Itens)),
	}
	for _, area := range detail.Areas {
		response.Areas = append(response.Areas, toAreaResponse(area))
	}
	for _, item := range detail.Itens {
		response.Itens = append(response.Itens, toItemResponse(item))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateRonda(w http.ResponseWriter, r *http.Request) {
	var req createRondaRequest
	if !readJSON(w, r, &req) {
		return
	}

	contrato, ok := h.contrato(w, r, "rondas.create")
	if !ok {
		return
	}

	data, err := parseDateRequired(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid data")
		return
	}

	created, err := h.Rondas.CreateRonda(r.Context(), rondasdomain.CreateRondaInput{
		ID:          req.ID,
		ContratoID:  contrato.ID,
		Nome:        req.Nome,
		Data:        data,
		Hora:        req.Hora,
		Responsavel: req.Responsavel,
		Observacoes: req.Observacoes,
	})
	if err != nil {
		h.writeRondasError(w, "rondas.create", err, "contrato_id", contrato.ID)
		return
	}
	writeJSON(w, http.StatusCreated, toRondaResponse(*created))
}

func (h *Handlers) UpdateRonda(w http.ResponseWriter, r *http.Request) {
	var req updateRondaRequest
	if !readJSON(w, r, &req) {
		return
	}

	contrato, ok := h.contrato(w, r, "rondas.update")
	if !ok {
		return
	}
	rondaID, ok := pathID(w, r, "ronda_id")
	if !ok {
		return
	}

	input := rondasdomain.UpdateRondaInput{
		ID:          rondaID,
		ContratoID:  contrato.ID,
		Nome:        req.Nome,
		Hora:        req.Hora,
		Responsavel: req.Responsavel,
		Observacoes: req.Observacoes,
	}
	if req.Data != nil {
		data, err := parseDateRequired(*req.Data)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid data")
			return
		}
		input.Data = &data
	}

	updated, err := h.Rondas.UpdateRonda(r.Context(), input)
	if err != nil {
		h.writeRondasError(w, "rondas.update", err, "contrato_id", contrato.ID, "ronda_id", rondaID)
		return
	}
	writeJSON(w, http.StatusOK, toRondaResponse(*updated))
}

func (h *Handlers) DeleteRonda(w http.ResponseWriter, r *http.Request) {
	contrato, ok := h.contrato(w, r, "rondas.delete")
	if !ok {
		return
	}
	rondaID, ok := pathID(w, r, "ronda_id")
	if !ok {
		return
	}

	if err := h.Rondas.DeleteRonda(r.Context(), contrato.ID, rondaID); err != nil {
		h.writeRondasError(w, "rondas.delete", err, "contrato_id", contrato.ID, "ronda_id", rondaID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListAreas(w http.ResponseWriter, r *http.Request) {
	contrato, ok := h.contrato(w, r, "areas.list")
	if !ok {
		return
	}
	rondaID, ok := pathID(w, r, "ronda_id")
	if !ok {
		return
	}

	areas, err := h.Rondas.ListAreas(r.Context(), contrato.ID, rondaID)
	if err != nil {
		h.writeRondasError(w, "areas.list", err, "contrato_id", contrato.ID, "ronda_id", rondaID)
		return
	}

	response := make([]areaResponse, 0, len(areas))
	for _, area := range areas {
		response = append(response, toAreaResponse(area))
	}
	writeJSON(w, http.StatusOK, newList(response))
}

func (h *Handlers) CreateArea(w http.ResponseWriter, r *http.Request) {
	var req createAreaRequest
	if !readJSON(w, r, &req) {
		return
	}

	contrato, ok := h.contrato(w, r, "areas.create")
	if !ok {
		return
	}
	rondaID, ok := pathID(w, r, "ronda_id")
	if !ok {
		return
	}

	created, err := h.Rondas.CreateArea(r.Context(), contrato.ID, rondasdomain.CreateAreaInput{
		ID:          req.ID,
		RondaID:     rondaID,
		Nome:        req.Nome,
		Status:      rondasdomain.AreaStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
		Observacoes: req.Observacoes,
		FotoURL:     req.FotoURL,
	})
	if err != nil {
		h.writeRondasError(w, "areas.create", err, "contrato_id", contrato.ID, "ronda_id", rondaID)
		return
	}
	writeJSON(w, http.StatusCreated, toAreaResponse(*created))
}

func (h *Handlers) UpdateArea(w http.ResponseWriter, r *http.Request) {
	var req updateAreaRequest
	if !readJSON(w, r, &req) {
		return
	}

	contrato, ok := h.contrato(w, r, "areas.update")
	if !ok {
		return
	}
	areaID, ok := pathID(w, r, "area_id")
	if !ok {
		return
	}

	input := rondasdomain.UpdateAreaInput{
		ID:          areaID,
		Nome:        req.Nome,
		Observacoes: req.Observacoes,
		FotoURL:     req.FotoURL,
	}
	if req.Status != nil {
		status := rondasdomain.AreaStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		input.Status = &status
	}

	updated, err := h.Rondas.UpdateArea(r.Context(), contrato.ID, input)
	if err != nil {
		h.writeRondasError(w, "areas.update", err, "contrato_id", contrato.ID, "area_id", areaID)
		return
	}
	writeJSON(w, http.StatusOK, toAreaResponse(*updated))
}

func (h *Handlers) DeleteArea(w http.ResponseWriter, r *http.Request) {
	contrato, ok := h.contrato(w, r, "areas.delete")
	if !ok {
		return
	}
	areaID, ok := pathID(w, r, "area_id")
	if !ok {
		return
	}

	if err := h.Rondas.DeleteArea(r.Context(), contrato.ID, areaID); err != nil {
		h.writeRondasError(w, "areas.delete", err, "contrato_id", contrato.ID, "area_id", areaID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListItens(w http.ResponseWriter, r *http.Request) {
	contrato, ok := h.contrato(w, r, "itens.list")
	if !ok {
		return
	}
	rondaID, ok := pathID(w, r, "ronda_id")
	if !ok {
		return
	}

	var status *rondasdomain.ItemStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed := rondasdomain.ItemStatus(strings.ToUpper(raw))
		status = &parsed
	}

	itens, err := h.Rondas.ListItens(r.Context(), contrato.ID, rondaID, status)
	if err != nil {
		h.writeRondasError(w, "itens.list", err, "contrato_id", contrato.ID, "ronda_id", rondaID)
		return
	}

	response := make([]itemResponse, 0, len(itens))
	for _, item := range itens {
		response = append(response, toItemResponse(item))
	}
	writeJSON(w, http.StatusOK, newList(response))
}

func (h *Handlers) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if !readJSON(w, r, &req) {
		return
	}

	contrato, ok := h.contrato(w, r, "itens.create")
	if !ok {
		return
	}
	rondaID, ok := pathID(w, r, "ronda_id")
	if !ok {
		return
	}

	created, err := h.Rondas.CreateItem(r.Context(), contrato.ID, rondasdomain.CreateItemInput{
		ID:         req.ID,
		RondaID:    rondaID,
		Descricao:  req.Descricao,
		Prioridade: rondasdomain.Prioridade(strings.ToUpper(strings.TrimSpace(req.Prioridade))),
		FotoURL:    req.FotoURL,
	})
	if err != nil {
		h.writeRondasError(w, "itens.create", err, "contrato_id", contrato.ID, "ronda_id", rondaID)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(*created))
}

func (h *Handlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if !readJSON(w, r, &req) {
		return
	}

	contrato, ok := h.contrato(w, r, "itens.update")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "item_id")
	if !ok {
		return
	}

	input := rondasdomain.UpdateItemInput{
		ID:        itemID,
		Descricao: req.Descricao,
		FotoURL:   req.FotoURL,
	}
	if req.Prioridade != nil {
		prioridade := rondasdomain.Prioridade(strings.ToUpper(strings.TrimSpace(*req.Prioridade)))
		input.Prioridade = &prioridade
	}
	if req.Status != nil {
		status := rondasdomain.ItemStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		input.Status = &status
	}

	updated, err := h.Rondas.UpdateItem(r.Context(), contrato.ID, input)
	if err != nil {
		h.writeRondasError(w, "itens.update", err, "contrato_id", contrato.ID, "item_id", itemID)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(*updated))
}

func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	contrato, ok := h.contrato(w, r, "itens.delete")
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "item_id")
	if !ok {
		return
	}

	if err := h.Rondas.DeleteItem(r.Context(), contrato.ID, itemID); err != nil {
		h.writeRondasError(w, "itens.delete", err, "contrato_id", contrato.ID, "item_id", itemID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeRondasError(w http.ResponseWriter, op string, err error, attrs ...any) {
	switch {
	case errors.Is(err, rondasdomain.ErrInvalidInput):
		h.log.BusinessError(op+": invalid input", err, attrs...)
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, rondasdomain.ErrRondaNotFound):
		h.log.BusinessError(op+": ronda not found", err, attrs...)
		writeError(w, http.StatusNotFound, "ronda_not_found", "ronda not found")
	case errors.Is(err, rondasdomain.ErrAreaNotFound):
		h.log.BusinessError(op+": area not found", err, attrs...)
		writeError(w, http.StatusNotFound, "area_not_found", "area tecnica not found")
	case errors.Is(err, rondasdomain.ErrItemNotFound):
		h.log.BusinessError(op+": item not found", err, attrs...)
		writeError(w, http.StatusNotFound, "item_not_found", "item relevante not found")
	case errors.Is(err, rondasdomain.ErrAlreadyExists):
		h.log.BusinessError(op+": already exists", err, attrs...)
		writeError(w, http.StatusConflict, "already_exists", "record with this id already exists")
	default:
		h.log.InternalError(op+": failed", err, attrs...)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func toRondaResponse(ronda rondasdomain.Ronda) rondaResponse {
	return rondaResponse{
		ID:          ronda.ID,
		ContratoID:  ronda.ContratoID,
		Nome:        ronda.Nome,
		Data:        recurrence.FromTime(ronda.Data).String(),
		Hora:        ronda.Hora,
		Responsavel: ronda.Responsavel,
		Observacoes: ronda.Observacoes,
		CreatedAt:   ronda.CreatedAt,
		UpdatedAt:   ronda.UpdatedAt,
	}
}

func toAreaResponse(area rondasdomain.AreaTecnica) areaResponse {
	return areaResponse{
		ID:          area.ID,
		RondaID:     area.RondaID,
		Nome:        area.Nome,
		Status:      string(area.Status),
		Observacoes: area.Observacoes,
		FotoURL:     area.FotoURL,
		CreatedAt:   area.CreatedAt,
		UpdatedAt:   area.UpdatedAt,
	}
}

func toItemResponse(item rondasdomain.ItemRelevante) itemResponse {
	return itemResponse{
		ID:          item.ID,
		RondaID:     item.RondaID,
		Descricao:   item.Descricao,
		Prioridade:  string(item.Prioridade),
		Status:      string(item.Status),
		FotoURL:     item.FotoURL,
		CorrigidoEm: item.CorrigidoEm,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}
