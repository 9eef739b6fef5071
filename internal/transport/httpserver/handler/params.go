package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ronda-app-go/internal/recurrence"
)

func parseDateRequired(value string) (recurrence.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return recurrence.Date{}, fmt.Errorf("date is required")
	}
	return recurrence.ParseDate(value)
}

func parseDateParam(value string) (*recurrence.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := recurrence.ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseIntParam(value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0, fmt.Errorf("invalid int")
	}
	return parsed, nil
}

func urlParam(r *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(r, name))
}

// pathID reads a uuid path parameter, writing a 400 when it is missing or
// malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value := urlParam(r, name)
	if value == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", name+" is required")
		return "", false
	}
	if _, err := uuid.Parse(value); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", name+" must be a uuid")
		return "", false
	}
	return value, true
}

func formatDatePtr(value *recurrence.Date) *string {
	if value == nil {
		return nil
	}
	formatted := value.String()
	return &formatted
}
