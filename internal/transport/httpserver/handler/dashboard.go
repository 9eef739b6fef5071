package handler

import (
	"errors"
	"net/http"
	"strings"

	dashboarddomain "ronda-app-go/internal/domain/dashboard"
)

func (h *Handlers) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	contrato, ok := h.contrato(w, r, "dashboard.summary")
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

	summary, err := h.Dashboard.Summary(r.Context(), contrato.ID, dashboarddomain.SummaryFilter{From: from, To: to})
	if err != nil {
		h.writeDashboardError(w, "dashboard.summary", err, "contrato_id", contrato.ID)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handlers) DashboardTimeseries(w http.ResponseWriter, r *http.Request) {
	contrato, ok := h.contrato(w, r, "dashboard.timeseries")
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

	points, err := h.Dashboard.Timeseries(r.Context(), contrato.ID, dashboarddomain.TimeseriesFilter{
		From:    from,
		To:      to,
		GroupBy: dashboarddomain.GroupBy(strings.ToLower(strings.TrimSpace(query.Get("group_by")))),
	})
	if err != nil {
		h.writeDashboardError(w, "dashboard.timeseries", err, "contrato_id", contrato.ID)
		return
	}
	if points == nil {
		points = []dashboarddomain.TimeseriesPoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *Handlers) writeDashboardError(w http.ResponseWriter, op string, err error, attrs ...any) {
	if errors.Is(err, dashboarddomain.ErrInvalidFilter) {
		h.log.BusinessError(op+": invalid filter", err, attrs...)
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	h.log.InternalError(op+": failed", err, attrs...)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
