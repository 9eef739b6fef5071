package handler

import (
	"errors"
	"net/http"

	agendadomain "ronda-app-go/internal/domain/agenda"
	contratosdomain "ronda-app-go/internal/domain/contratos"
	dashboarddomain "ronda-app-go/internal/domain/dashboard"
	rondasdomain "ronda-app-go/internal/domain/rondas"
	syncdomain "ronda-app-go/internal/domain/sync"
	"ronda-app-go/pkg/logger"
)

type Handlers struct {
	Contratos *contratosdomain.Service
	Rondas    *rondasdomain.Service
	Agenda    *agendadomain.Service
	Dashboard *dashboarddomain.Service
	Sync      *syncdomain.Service
	log       logger.Logger
}

func New(contratos *contratosdomain.Service, rondas *rondasdomain.Service, agenda *agendadomain.Service, dashboard *dashboarddomain.Service, sync *syncdomain.Service, log logger.Logger) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	return &Handlers{
		Contratos: contratos,
		Rondas:    rondas,
		Agenda:    agenda,
		Dashboard: dashboard,
		Sync:      sync,
		log:       log,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// contrato resolves {contrato_id} and writes the error response itself when
// it cannot.
func (h *Handlers) contrato(w http.ResponseWriter, r *http.Request, op string) (*contratosdomain.Contrato, bool) {
	contratoID, ok := pathID(w, r, "contrato_id")
	if !ok {
		return nil, false
	}

	contrato, err := h.Contratos.Get(r.Context(), contratoID)
	if err != nil {
		if errors.Is(err, contratosdomain.ErrContratoNotFound) {
			h.log.BusinessError(op+": contrato not found", err, "contrato_id", contratoID)
			writeError(w, http.StatusNotFound, "contrato_not_found", "contrato not found")
			return nil, false
		}
		h.log.InternalError(op+": get contrato failed", err, "contrato_id", contratoID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return nil, false
	}
	return contrato, true
}
