package domain

import (
	"errors"
	"fmt"
)

// Payload authentication failures.
var (
	ErrMalformedPayload = errors.New("payload is malformed")
	ErrTamperedPayload  = errors.New("payload signature mismatch")
	ErrExpiredPayload   = errors.New("payload validity window has passed")
)

// Scan resolution and lookup failures.
var (
	ErrUnrecognizedFormat   = errors.New("scan text matched no known format")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrEventNotFound        = errors.New("event not found")
)

// Attendance state conflicts.
var (
	ErrAlreadyCheckedIn         = errors.New("attendance already recorded for this registration and session")
	ErrNoOpenCheckIn            = errors.New("no open check-in to check out from")
	ErrRegistrationNotConfirmed = errors.New("registration is not confirmed")
	ErrEventNotScannable        = errors.New("event is not accepting scans")
	ErrEventNotStarted          = errors.New("event has not started")
	ErrEventEnded               = errors.New("event has ended")
)

// Issuance failures.
var (
	ErrDuplicateTicketNumber = errors.New("ticket number already exists")
	ErrTicketAlreadyIssued   = errors.New("a ticket was already issued for this registration")
	ErrRenderFailure         = errors.New("failed to render ticket code")
)

// Request-level failures.
var (
	ErrInvalidAction      = errors.New("scan action must be checkin or checkout")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ErrUnauthenticatedScan is returned when policy restricts state-mutating
// scans to authenticated payloads and the scan text resolved through an
// unauthenticated path.
var ErrUnauthenticatedScan = errors.New("unauthenticated scan text may not drive attendance changes")

// UnrecognizedFormatError carries a bounded preview of the rejected scan
// text for diagnostics. It unwraps to ErrUnrecognizedFormat.
type UnrecognizedFormatError struct {
	Preview string
}

func (e *UnrecognizedFormatError) Error() string {
	return fmt.Sprintf("scan text matched no known format: %q", e.Preview)
}

func (e *UnrecognizedFormatError) Unwrap() error {
	return ErrUnrecognizedFormat
}

// TicketNotFoundError carries a handful of existing ticket previews so an
// operator can spot mismatched ids. It unwraps to ErrTicketNotFound.
type TicketNotFoundError struct {
	Candidate string
	Previews  []TicketPreview
}

func (e *TicketNotFoundError) Error() string {
	return fmt.Sprintf("ticket not found for %q", e.Candidate)
}

func (e *TicketNotFoundError) Unwrap() error {
	return ErrTicketNotFound
}
