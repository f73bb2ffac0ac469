package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andhikafr19/eo-app/internal/domain"
	"github.com/andhikafr19/eo-app/internal/http/response"
	"github.com/andhikafr19/eo-app/pkg/logger"
)

// ListAttendance handles GET /v1/events/{id}/attendance.
func (h *Handlers) ListAttendance(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	limit, offset := parsePagination(r)

	var sessionID *string
	if v := r.URL.Query().Get("session_id"); v != "" {
		sessionID = &v
	}

	records, err := h.attendance.ListByEvent(r.Context(), eventID, sessionID, limit, offset)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			response.NotFound(w, "Event not found")
			return
		}
		logger.ErrorContext(r.Context(), "Attendance listing failed", "error", err, "event_id", eventID)
		response.InternalError(w, "Unexpected error while listing attendance")
		return
	}

	if records == nil {
		records = []domain.Attendance{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"attendance": records,
		"count":      len(records),
	})
}
