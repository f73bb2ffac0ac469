package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/andhikafr19/eo-app/internal/domain"
	"github.com/andhikafr19/eo-app/internal/repository"
	"github.com/andhikafr19/eo-app/internal/ticket"
	"github.com/andhikafr19/eo-app/pkg/config"
	"github.com/andhikafr19/eo-app/pkg/events"
	"github.com/andhikafr19/eo-app/pkg/logger"
)

type ScanAction string

const (
	ActionCheckIn  ScanAction = "checkin"
	ActionCheckOut ScanAction = "checkout"
)

func ParseScanAction(s string) (ScanAction, bool) {
	switch ScanAction(s) {
	case ActionCheckIn, ActionCheckOut:
		return ScanAction(s), true
	default:
		return "", false
	}
}

type ScanRequest struct {
	QRData    string
	SessionID *string
	Action    ScanAction
	// Method records the initiating path: camera/upload scans are
	// QR_CODE, typed entry is MANUAL.
	Method domain.AttendanceMethod
}

type Participant struct {
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Event        string     `json:"event"`
	CheckInTime  *time.Time `json:"checkInTime,omitempty"`
	CheckOutTime *time.Time `json:"checkOutTime,omitempty"`
}

type ScanResult struct {
	Message     string             `json:"message"`
	Attendance  *domain.Attendance `json:"attendance"`
	Participant Participant        `json:"participant"`
}

type ScanService interface {
	Scan(ctx context.Context, req *ScanRequest) (*ScanResult, error)
}

type scanService struct {
	signer           *ticket.Signer
	ticketRepo       repository.TicketRepository
	registrationRepo repository.RegistrationRepository
	eventRepo        repository.EventRepository
	attendanceRepo   repository.AttendanceRepository
	eventBus         events.EventBus
	config           *config.Config
	now              func() time.Time
}

func NewScanService(
	signer *ticket.Signer,
	ticketRepo repository.TicketRepository,
	registrationRepo repository.RegistrationRepository,
	eventRepo repository.EventRepository,
	attendanceRepo repository.AttendanceRepository,
	eventBus events.EventBus,
	config *config.Config,
) ScanService {
	return &scanService{
		signer:           signer,
		ticketRepo:       ticketRepo,
		registrationRepo: registrationRepo,
		eventRepo:        eventRepo,
		attendanceRepo:   attendanceRepo,
		eventBus:         eventBus,
		config:           config,
		now:              time.Now,
	}
}

// Scan resolves raw scan text to a ticket, validates registration and
// event state, and applies exactly one idempotent attendance transition.
func (s *scanService) Scan(ctx context.Context, req *ScanRequest) (*ScanResult, error) {
	if _, ok := ParseScanAction(string(req.Action)); !ok {
		return nil, domain.ErrInvalidAction
	}

	resolved, err := ticket.Resolve(req.QRData)
	if err != nil {
		return nil, err
	}

	authenticated := false
	if resolved.Source == ticket.SourceJSON && carriesSignature(req.QRData) {
		// The text claims to be a signed payload, so it must verify;
		// tamper and expiry failures surface instead of falling through
		// to the lenient paths.
		if _, err := s.signer.Authenticate(strings.TrimSpace(req.QRData)); err != nil {
			return nil, err
		}
		authenticated = true
	}

	if !authenticated && !s.config.Scan.AllowUnauthenticated {
		return nil, domain.ErrUnauthenticatedScan
	}

	tk, err := s.lookupTicket(ctx, strings.TrimSpace(req.QRData), resolved.RegistrationID)
	if err != nil {
		return nil, err
	}

	reg, err := s.registrationRepo.GetByID(ctx, tk.RegistrationID)
	if err != nil {
		return nil, fmt.Errorf("load registration: %w", err)
	}
	if reg == nil {
		return nil, domain.ErrRegistrationNotFound
	}
	if !reg.IsConfirmed() {
		return nil, domain.ErrRegistrationNotConfirmed
	}

	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	if err := event.Scannable(s.now()); err != nil {
		return nil, err
	}

	switch req.Action {
	case ActionCheckIn:
		return s.checkIn(ctx, req, reg, event)
	default:
		return s.checkOut(ctx, req, reg, event)
	}
}

// lookupTicket tries, in order: exact stored payload text against the raw
// scan text, the resolved candidate as a registration id, then as a
// ticket number. A miss returns a bounded diagnostic of existing tickets.
func (s *scanService) lookupTicket(ctx context.Context, rawText, candidate string) (*domain.Ticket, error) {
	tk, err := s.ticketRepo.GetByPayloadText(ctx, rawText)
	if err != nil {
		return nil, fmt.Errorf("lookup by payload: %w", err)
	}
	if tk == nil {
		tk, err = s.ticketRepo.GetByRegistrationID(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("lookup by registration: %w", err)
		}
	}
	if tk == nil {
		tk, err = s.ticketRepo.GetByTicketNumber(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("lookup by number: %w", err)
		}
	}
	if tk != nil {
		return tk, nil
	}

	previews, err := s.ticketRepo.ListRecentPreviews(ctx, 5)
	if err != nil {
		logger.WarnContext(ctx, "Failed to list ticket previews for diagnostics", "error", err)
	}
	return nil, &domain.TicketNotFoundError{Candidate: candidate, Previews: previews}
}

func (s *scanService) checkIn(ctx context.Context, req *ScanRequest, reg *domain.Registration, event *domain.Event) (*ScanResult, error) {
	att, err := s.attendanceRepo.CheckIn(ctx, reg.ID, req.SessionID, req.Method, s.now())
	if err != nil {
		return nil, fmt.Errorf("record check-in: %w", err)
	}
	if att == nil {
		return nil, domain.ErrAlreadyCheckedIn
	}

	// Legacy projection for single-shot events; never consulted for
	// concurrency control.
	if err := s.ticketRepo.MarkUsed(ctx, reg.ID, att.CheckInTime); err != nil {
		logger.WarnContext(ctx, "Failed to update legacy used flag", "error", err, "registration_id", reg.ID)
	}

	evt := events.AttendanceCheckedInEvent{
		AttendanceID:   att.ID,
		RegistrationID: reg.ID,
		EventID:        event.ID,
		SessionID:      att.SessionID,
		Method:         string(att.Method),
		CheckInTime:    att.CheckInTime,
	}
	if err := s.eventBus.Publish(ctx, events.AttendanceCheckedIn, evt); err != nil {
		logger.ErrorContext(ctx, "Failed to publish check-in event", "error", err, "attendance_id", att.ID)
	}

	return &ScanResult{
		Message:    fmt.Sprintf("%s checked in to %s", reg.Name, event.Name),
		Attendance: att,
		Participant: Participant{
			Name:        reg.Name,
			Email:       reg.Email,
			Event:       event.Name,
			CheckInTime: &att.CheckInTime,
		},
	}, nil
}

func (s *scanService) checkOut(ctx context.Context, req *ScanRequest, reg *domain.Registration, event *domain.Event) (*ScanResult, error) {
	att, err := s.attendanceRepo.CheckOut(ctx, reg.ID, req.SessionID, s.now())
	if err != nil {
		return nil, fmt.Errorf("record check-out: %w", err)
	}
	if att == nil {
		return nil, domain.ErrNoOpenCheckIn
	}

	evt := events.AttendanceCheckedOutEvent{
		AttendanceID:   att.ID,
		RegistrationID: reg.ID,
		EventID:        event.ID,
		SessionID:      att.SessionID,
		CheckOutTime:   *att.CheckOutTime,
	}
	if err := s.eventBus.Publish(ctx, events.AttendanceCheckedOut, evt); err != nil {
		logger.ErrorContext(ctx, "Failed to publish check-out event", "error", err, "attendance_id", att.ID)
	}

	return &ScanResult{
		Message:    fmt.Sprintf("%s checked out of %s", reg.Name, event.Name),
		Attendance: att,
		Participant: Participant{
			Name:         reg.Name,
			Email:        reg.Email,
			Event:        event.Name,
			CheckInTime:  &att.CheckInTime,
			CheckOutTime: att.CheckOutTime,
		},
	}, nil
}

// carriesSignature reports whether the scan text is a JSON object with a
// hash field, i.e. it presents itself as a signed payload.
func carriesSignature(raw string) bool {
	var probe struct {
		Hash *string `json:"hash"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &probe); err != nil {
		return false
	}
	return probe.Hash != nil
}
