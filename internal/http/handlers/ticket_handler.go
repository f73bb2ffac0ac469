package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andhikafr19/eo-app/internal/domain"
	"github.com/andhikafr19/eo-app/internal/http/response"
	"github.com/andhikafr19/eo-app/pkg/logger"
)

type ticketDTO struct {
	ID             string `json:"id"`
	RegistrationID string `json:"registration_id"`
	TicketNumber   string `json:"ticket_number"`
	PayloadText    string `json:"payload_text"`
	IsUsed         bool   `json:"is_used"`
	UsedAt         any    `json:"used_at,omitempty"`
}

func toTicketDTO(t *domain.Ticket) ticketDTO {
	dto := ticketDTO{
		ID:             t.ID,
		RegistrationID: t.RegistrationID,
		TicketNumber:   t.TicketNumber,
		PayloadText:    t.PayloadText,
		IsUsed:         t.IsUsed,
	}
	if t.UsedAt != nil {
		dto.UsedAt = t.UsedAt
	}
	return dto
}

// IssueTicket handles POST /v1/registrations/{id}/ticket.
func (h *Handlers) IssueTicket(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "id")
	if registrationID == "" {
		response.BadRequest(w, "registration id is required")
		return
	}

	t, err := h.ticketService.IssueTicket(r.Context(), registrationID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRegistrationNotFound):
			response.NotFound(w, "Registration not found")
		case errors.Is(err, domain.ErrEventNotFound):
			response.NotFound(w, "Event not found")
		case errors.Is(err, domain.ErrRegistrationNotConfirmed):
			response.WriteError(w, http.StatusBadRequest, "Registration is not confirmed", response.CodeNotConfirmed)
		case errors.Is(err, domain.ErrTicketAlreadyIssued):
			response.WriteError(w, http.StatusConflict, "A ticket was already issued for this registration", response.CodeDuplicateNumber)
		case errors.Is(err, domain.ErrDuplicateTicketNumber):
			response.WriteError(w, http.StatusConflict, "Could not allocate a unique ticket number", response.CodeDuplicateNumber)
		case errors.Is(err, domain.ErrRenderFailure):
			response.WriteError(w, http.StatusInternalServerError, "Failed to render ticket code", response.CodeRenderFailure)
		default:
			logger.ErrorContext(r.Context(), "Ticket issuance failed", "error", err, "registration_id", registrationID)
			response.InternalError(w, "Unexpected error while issuing ticket")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toTicketDTO(t))
}

// GetTicket handles GET /v1/registrations/{id}/ticket.
func (h *Handlers) GetTicket(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "id")

	t, err := h.ticketService.GetTicket(r.Context(), registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrTicketNotFound) {
			response.NotFound(w, "No ticket issued for this registration")
			return
		}
		logger.ErrorContext(r.Context(), "Ticket lookup failed", "error", err, "registration_id", registrationID)
		response.InternalError(w, "Unexpected error while loading ticket")
		return
	}

	writeJSON(w, http.StatusOK, toTicketDTO(t))
}

// GetTicketCode handles GET /v1/registrations/{id}/ticket/code, serving
// the rendered QR image.
func (h *Handlers) GetTicketCode(w http.ResponseWriter, r *http.Request) {
	registrationID := chi.URLParam(r, "id")

	t, err := h.ticketService.GetTicket(r.Context(), registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrTicketNotFound) {
			response.NotFound(w, "No ticket issued for this registration")
			return
		}
		response.InternalError(w, "Unexpected error while loading ticket")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(t.RenderedCode)
}

// LegacyCheckIn handles POST /v1/tickets/{number}/check-in, the
// single-shot used-flag endpoint kept for non-session events.
func (h *Handlers) LegacyCheckIn(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")

	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if req.Action != "check-in" {
		response.BadRequest(w, "action must be check-in")
		return
	}

	t, err := h.ticketService.LegacyCheckIn(r.Context(), number)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTicketNotFound):
			response.NotFound(w, "Ticket not found")
		case errors.Is(err, domain.ErrAlreadyCheckedIn):
			response.WriteError(w, http.StatusBadRequest, "Ticket has already been used", response.CodeAlreadyCheckedIn)
		default:
			logger.ErrorContext(r.Context(), "Legacy check-in failed", "error", err, "ticket_number", number)
			response.InternalError(w, "Unexpected error while checking in ticket")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Ticket checked in",
		"ticket":  toTicketDTO(t),
	})
}
