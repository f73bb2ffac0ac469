package response

import (
	"encoding/json"
	"net/http"

	"github.com/andhikafr19/eo-app/pkg/logger"
)

// ErrorResponse is the structured JSON error body shared by every
// endpoint. Debug carries bounded diagnostics only, never payload text
// or secrets.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details string      `json:"details,omitempty"`
	Debug   interface{} `json:"debug,omitempty"`
}

// Error codes
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeMalformedPayload   = "MALFORMED_PAYLOAD"
	CodeTamperedPayload    = "TAMPERED_PAYLOAD"
	CodeExpiredPayload     = "EXPIRED_PAYLOAD"
	CodeUnrecognizedFormat = "UNRECOGNIZED_FORMAT"
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyCheckedIn   = "ALREADY_CHECKED_IN"
	CodeNoOpenCheckIn      = "NO_OPEN_CHECKIN"
	CodeNotConfirmed       = "REGISTRATION_NOT_CONFIRMED"
	CodeEventNotScannable  = "EVENT_NOT_SCANNABLE"
	CodeDuplicateNumber    = "DUPLICATE_TICKET_NUMBER"
	CodeRenderFailure      = "RENDER_FAILURE"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeRateLimit          = "RATE_LIMIT_EXCEEDED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message, code string) {
	write(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// WriteErrorWithDetails writes a structured JSON error response with
// additional details and optional debug payload
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, code, details string, debug interface{}) {
	write(w, statusCode, ErrorResponse{Error: message, Code: code, Details: details, Debug: debug})
}

func write(w http.ResponseWriter, statusCode int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}

// Convenience writers for common cases
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}
