package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	contratosdomain "ronda-app-go/internal/domain/contratos"
)

type createContratoRequest struct {
	ID       string `json:"id"`
	Nome     string `json:"nome"`
	Endereco string `json:"endereco"`
	Sindico  string `json:"sindico"`
}

type updateContratoRequest struct {
	Nome     *string `json:"nome"`
	Endereco *string `json:"endereco"`
	Sindico  *string `json:"sindico"`
	Status   *string `json:"status"`
}

type contratoResponse struct {
	ID        string    `json:"id"`
	Nome      string    `json:"nome"`
	Endereco  string    `json:"endereco"`
	Sindico   string    `json:"sindico"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *Handlers) ListContratos(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

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

	filter := contratosdomain.ListFilter{
		Query:  strings.TrimSpace(query.Get("q")),
		Limit:  limit,
		Offset: offset,
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, ok := contratosdomain.ParseStatus(strings.ToUpper(raw))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid status")
			return
		}
		filter.Status = status
	}

	items, total, err := h.Contratos.List(r.Context(), filter)
	if err != nil {
		h.log.InternalError("contratos.list: list failed", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]contratoResponse, 0, len(items))
	for _, contrato := range items {
		response = append(response, toContratoResponse(contrato))
	}
	writeJSON(w, http.StatusOK, listResponse[contratoResponse]{Items: response, Total: total})
}

func (h *Handlers) GetContrato(w http.ResponseWriter, r *http.Request) {
	contrato, ok := h.contrato(w, r, "contratos.get")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toContratoResponse(*contrato))
}

func (h *Handlers) CreateContrato(w http.ResponseWriter, r *http.Request) {
	var req createContratoRequest
	if !readJSON(w, r, &req) {
		return
	}

	created, err := h.Contratos.Create(r.Context(), contratosdomain.CreateContratoInput{
		ID:       req.ID,
		Nome:     req.Nome,
		Endereco: req.Endereco,
		Sindico:  req.Sindico,
	})
	if err != nil {
		h.writeContratoError(w, "contratos.create", err)
		return
	}
	writeJSON(w, http.StatusCreated, toContratoResponse(*created))
}

func (h *Handlers) UpdateContrato(w http.ResponseWriter, r *http.Request) {
	var req updateContratoRequest
	if !readJSON(w, r, &req) {
		return
	}

	contratoID, ok := pathID(w, r, "contrato_id")
	if !ok {
		return
	}

	input := contratosdomain.UpdateContratoInput{
		ID:       contratoID,
		Nome:     req.Nome,
		Endereco: req.Endereco,
		Sindico:  req.Sindico,
	}
	if req.Status != nil {
		status := contratosdomain.Status(strings.ToUpper(strings.TrimSpace(*req.Status)))
		input.Status = &status
	}

	updated, err := h.Contratos.Update(r.Context(), input)
	if err != nil {
		h.writeContratoError(w, "contratos.update", err, "contrato_id", contratoID)
		return
	}
	writeJSON(w, http.StatusOK, toContratoResponse(*updated))
}

func (h *Handlers) DeleteContrato(w http.ResponseWriter, r *http.Request) {
	contratoID, ok := pathID(w, r, "contrato_id")
	if !ok {
		return
	}

	if err := h.Contratos.Delete(r.Context(), contratoID); err != nil {
		h.writeContratoError(w, "contratos.delete", err, "contrato_id", contratoID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeContratoError(w http.ResponseWriter, op string, err error, attrs ...any) {
	switch {
	case errors.Is(err, contratosdomain.ErrInvalidContrato):
		h.log.BusinessError(op+": invalid contrato", err, attrs...)
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, contratosdomain.ErrContratoNotFound):
		h.log.BusinessError(op+": contrato not found", err, attrs...)
		writeError(w, http.StatusNotFound, "contrato_not_found", "contrato not found")
	case errors.Is(err, contratosdomain.ErrContratoExists):
		h.log.BusinessError(op+": contrato exists", err, attrs...)
		writeError(w, http.StatusConflict, "contrato_exists", "contrato already exists")
	default:
		h.log.InternalError(op+": failed", err, attrs...)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func toContratoResponse(contrato contratosdomain.Contrato) contratoResponse {
	return contratoResponse{
		ID:        contrato.ID,
		Nome:      contrato.Nome,
		Endereco:  contrato.Endereco,
		Sindico:   contrato.Sindico,
		Status:    string(contrato.Status),
		CreatedAt: contrato.CreatedAt,
		UpdatedAt: contrato.UpdatedAt,
	}
}
