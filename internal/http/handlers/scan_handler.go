package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/andhikafr19/eo-app/internal/domain"
	"github.com/andhikafr19/eo-app/internal/http/response"
	"github.com/andhikafr19/eo-app/internal/service"
	"github.com/andhikafr19/eo-app/pkg/logger"
)

type scanRequest struct {
	QRData    string  `json:"qrData"`
	SessionID *string `json:"sessionId,omitempty"`
	Action    string  `json:"action"`
	// Manual marks typed entry rather than a camera/upload scan.
	Manual bool `json:"manual,omitempty"`
}

type scanResponse struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	Attendance  *domain.Attendance  `json:"attendance"`
	Participant service.Participant `json:"participant"`
}

// Scan handles POST /v1/scan: resolve raw scan text, validate the ticket
// and apply one check-in or check-out transition.
func (h *Handlers) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if req.QRData == "" {
		response.BadRequest(w, "qrData is required")
		return
	}

	action, ok := service.ParseScanAction(req.Action)
	if !ok {
		response.BadRequest(w, "action must be checkin or checkout")
		return
	}

	method := domain.MethodQRCode
	if req.Manual {
		method = domain.MethodManual
	}

	result, err := h.scanService.Scan(r.Context(), &service.ScanRequest{
		QRData:    req.QRData,
		SessionID: req.SessionID,
		Action:    action,
		Method:    method,
	})
	if err != nil {
		writeScanError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, scanResponse{
		Success:     true,
		Message:     result.Message,
		Attendance:  result.Attendance,
		Participant: result.Participant,
	})
}

// writeScanError maps the scan error taxonomy onto HTTP statuses:
// validation and state conflicts are 400, lookup misses 404,
// policy refusals 403, everything else 500.
func writeScanError(w http.ResponseWriter, r *http.Request, err error) {
	var unrecognized *domain.UnrecognizedFormatError
	if errors.As(err, &unrecognized) {
		response.WriteErrorWithDetails(w, http.StatusBadRequest,
			"Scan text matched no known format", response.CodeUnrecognizedFormat,
			"Expected a ticket payload, link or registration id",
			map[string]string{"preview": unrecognized.Preview})
		return
	}

	var notFound *domain.TicketNotFoundError
	if errors.As(err, &notFound) {
		response.WriteErrorWithDetails(w, http.StatusNotFound,
			"Ticket not found", response.CodeNotFound,
			"No ticket matched the scanned reference",
			map[string]interface{}{"candidate": notFound.Candidate, "known_tickets": notFound.Previews})
		return
	}

	switch {
	case errors.Is(err, domain.ErrMalformedPayload):
		response.WriteError(w, http.StatusBadRequest, "Ticket payload is malformed", response.CodeMalformedPayload)
	case errors.Is(err, domain.ErrTamperedPayload):
		response.WriteError(w, http.StatusBadRequest, "Ticket payload failed verification", response.CodeTamperedPayload)
	case errors.Is(err, domain.ErrExpiredPayload):
		response.WriteError(w, http.StatusBadRequest, "Ticket payload has expired", response.CodeExpiredPayload)
	case errors.Is(err, domain.ErrInvalidAction):
		response.BadRequest(w, "action must be checkin or checkout")
	case errors.Is(err, domain.ErrUnauthenticatedScan):
		response.WriteError(w, http.StatusForbidden, "Only signed ticket payloads may drive attendance changes", response.CodeForbidden)
	case errors.Is(err, domain.ErrRegistrationNotFound), errors.Is(err, domain.ErrEventNotFound):
		response.NotFound(w, "Registration or event no longer exists")
	case errors.Is(err, domain.ErrRegistrationNotConfirmed):
		response.WriteError(w, http.StatusBadRequest, "Registration is not confirmed", response.CodeNotConfirmed)
	case errors.Is(err, domain.ErrEventNotStarted):
		response.WriteErrorWithDetails(w, http.StatusBadRequest, "Event has not started", response.CodeEventNotScannable, "Scanning opens at the event start time", nil)
	case errors.Is(err, domain.ErrEventEnded):
		response.WriteErrorWithDetails(w, http.StatusBadRequest, "Event has ended", response.CodeEventNotScannable, "Scanning closed at the event end time", nil)
	case errors.Is(err, domain.ErrEventNotScannable):
		response.WriteError(w, http.StatusBadRequest, "Event is not accepting scans", response.CodeEventNotScannable)
	case errors.Is(err, domain.ErrAlreadyCheckedIn):
		response.WriteError(w, http.StatusBadRequest, "Participant is already checked in", response.CodeAlreadyCheckedIn)
	case errors.Is(err, domain.ErrNoOpenCheckIn):
		response.WriteError(w, http.StatusBadRequest, "No open check-in to check out from", response.CodeNoOpenCheckIn)
	default:
		logger.ErrorContext(r.Context(), "Scan failed", "error", err)
		response.InternalError(w, "Unexpected error while processing scan")
	}
}
