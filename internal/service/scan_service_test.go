package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/andhikafr19/eo-app/internal/domain"
	"github.com/andhikafr19/eo-app/internal/ticket"
	"github.com/andhikafr19/eo-app/pkg/config"
)

type scanFixture struct {
	svc         *scanService
	signer      *ticket.Signer
	tickets     *mockTicketRepo
	regs        *mockRegistrationRepo
	events      *mockEventRepo
	attendance  *mockAttendanceRepo
	bus         *mockEventBus
	cfg         *config.Config
	now         time.Time
	payloadText string
}

// newScanFixture wires a scan service over in-memory stores with one
// confirmed registration (r1) on an ongoing event (e1) and its issued
// ticket.
func newScanFixture(t *testing.T) *scanFixture {
	t.Helper()

	signer, err := ticket.NewSigner("test-secret", ticket.DefaultPayloadTTL)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	payloadText, err := signer.Sign("r1", "e1", "u1")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	f := &scanFixture{
		signer: signer,
		tickets: &mockTicketRepo{tickets: []*domain.Ticket{{
			ID:             "t1",
			RegistrationID: "r1",
			TicketNumber:   "TK-m3kq9xdeadbeef",
			PayloadText:    payloadText,
			CreatedAt:      now.Add(-time.Hour),
		}}},
		regs: &mockRegistrationRepo{registrations: map[string]*domain.Registration{
			"r1": {ID: "r1", EventID: "e1", UserID: "u1", Name: "Ada Lovelace", Email: "ada@example.com", Status: domain.RegistrationConfirmed},
		}},
		events: &mockEventRepo{events: map[string]*domain.Event{
			"e1": {ID: "e1", Name: "GopherConf", Status: domain.EventOngoing, StartDate: now.Add(-2 * time.Hour), EndDate: now.Add(6 * time.Hour)},
		}},
		attendance: newMockAttendanceRepo(),
		bus:        &mockEventBus{},
		cfg: &config.Config{
			Scan:   config.ScanConfig{AllowUnauthenticated: true},
			Ticket: config.TicketConfig{IssueAttempts: 3},
		},
		now:         now,
		payloadText: payloadText,
	}
	f.svc = &scanService{
		signer:           signer,
		ticketRepo:       f.tickets,
		registrationRepo: f.regs,
		eventRepo:        f.events,
		attendanceRepo:   f.attendance,
		eventBus:         f.bus,
		config:           f.cfg,
		now:              func() time.Time { return f.now },
	}
	return f
}

func (f *scanFixture) scan(qrData string, action ScanAction) (*ScanResult, error) {
	return f.svc.Scan(context.Background(), &ScanRequest{
		QRData: qrData,
		Action: action,
		Method: domain.MethodQRCode,
	})
}

func TestScan_CheckInWithSignedPayload(t *testing.T) {
	f := newScanFixture(t)

	result, err := f.scan(f.payloadText, ActionCheckIn)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if result.Attendance == nil || !result.Attendance.IsOpen() {
		t.Fatalf("Expected open attendance, got %+v", result.Attendance)
	}
	if !result.Attendance.CheckInTime.Equal(f.now) {
		t.Fatalf("Expected check-in at %v, got %v", f.now, result.Attendance.CheckInTime)
	}
	if result.Participant.Name != "Ada Lovelace" || result.Participant.Event != "GopherConf" {
		t.Fatalf("Unexpected participant: %+v", result.Participant)
	}
	if !strings.Contains(result.Message, "checked in") {
		t.Fatalf("Unexpected message: %q", result.Message)
	}

	if f.tickets.tickets[0].IsUsed != true {
		t.Fatal("Expected legacy used flag to be set")
	}
	if len(f.bus.published) != 1 || !strings.Contains(f.bus.published[0], "checked_in") {
		t.Fatalf("Expected one check-in event, got %v", f.bus.published)
	}
}

func TestScan_SecondCheckInRejected(t *testing.T) {
	f := newScanFixture(t)

	if _, err := f.scan(f.payloadText, ActionCheckIn); err != nil {
		t.Fatalf("First scan failed: %v", err)
	}
	if _, err := f.scan(f.payloadText, ActionCheckIn); !errors.Is(err, domain.ErrAlreadyCheckedIn) {
		t.Fatalf("Expected ErrAlreadyCheckedIn, got %v", err)
	}
}

func TestScan_CheckOutWithoutCheckIn(t *testing.T) {
	f := newScanFixture(t)

	if _, err := f.scan(f.payloadText, ActionCheckOut); !errors.Is(err, domain.ErrNoOpenCheckIn) {
		t.Fatalf("Expected ErrNoOpenCheckIn, got %v", err)
	}
}

func TestScan_CheckOutCompletes(t *testing.T) {
	f := newScanFixture(t)

	if _, err := f.scan(f.payloadText, ActionCheckIn); err != nil {
		t.Fatalf("Check-in failed: %v", err)
	}

	f.now = f.now.Add(3 * time.Hour)
	result, err := f.scan(f.payloadText, ActionCheckOut)
	if err != nil {
		t.Fatalf("Check-out failed: %v", err)
	}
	if result.Attendance.CheckOutTime == nil || !result.Attendance.CheckOutTime.Equal(f.now) {
		t.Fatalf("Expected check-out at %v, got %+v", f.now, result.Attendance.CheckOutTime)
	}
	if len(f.bus.published) != 2 || !strings.Contains(f.bus.published[1], "checked_out") {
		t.Fatalf("Expected a check-out event, got %v", f.bus.published)
	}

	// The record is completed; another check-out has nothing to close.
	if _, err := f.scan(f.payloadText, ActionCheckOut); !errors.Is(err, domain.ErrNoOpenCheckIn) {
		t.Fatalf("Expected ErrNoOpenCheckIn after completion, got %v", err)
	}
}

func TestScan_SessionsTrackedIndependently(t *testing.T) {
	f := newScanFixture(t)

	if _, err := f.scan(f.payloadText, ActionCheckIn); err != nil {
		t.Fatalf("Event-level check-in failed: %v", err)
	}

	session := "workshop-a"
	result, err := f.svc.Scan(context.Background(), &ScanRequest{
		QRData:    f.payloadText,
		SessionID: &session,
		Action:    ActionCheckIn,
		Method:    domain.MethodQRCode,
	})
	if err != nil {
		t.Fatalf("Session check-in failed: %v", err)
	}
	if result.Attendance.SessionID == nil || *result.Attendance.SessionID != session {
		t.Fatalf("Expected session %q on attendance, got %+v", session, result.Attendance.SessionID)
	}
}

func TestScan_TamperedPayloadRejected(t *testing.T) {
	f := newScanFixture(t)

	mutated := strings.Replace(f.payloadText, `"registrationId":"r1"`, `"registrationId":"r2"`, 1)
	if mutated == f.payloadText {
		t.Fatal("Mutation did not apply")
	}

	if _, err := f.scan(mutated, ActionCheckIn); !errors.Is(err, domain.ErrTamperedPayload) {
		t.Fatalf("Expected ErrTamperedPayload, got %v", err)
	}
	if len(f.attendance.rows) != 0 {
		t.Fatal("Tampered scan must not record attendance")
	}
}

func TestScan_ExpiredPayloadRejected(t *testing.T) {
	f := newScanFixture(t)

	shortLived, err := ticket.NewSigner("test-secret", time.Millisecond)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	f.svc.signer = shortLived

	payloadText, err := shortLived.Sign("r1", "e1", "u1")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := f.scan(payloadText, ActionCheckIn); !errors.Is(err, domain.ErrExpiredPayload) {
		t.Fatalf("Expected ErrExpiredPayload, got %v", err)
	}
}

func TestScan_UnauthenticatedPolicy(t *testing.T) {
	f := newScanFixture(t)
	f.cfg.Scan.AllowUnauthenticated = false

	// Bare ids and deep links are refused when policy demands
	// authenticated payloads.
	if _, err := f.scan("r1", ActionCheckIn); !errors.Is(err, domain.ErrUnauthenticatedScan) {
		t.Fatalf("Expected ErrUnauthenticatedScan for bare id, got %v", err)
	}
	if _, err := f.scan("https://example.com/t?registrationId=r1", ActionCheckIn); !errors.Is(err, domain.ErrUnauthenticatedScan) {
		t.Fatalf("Expected ErrUnauthenticatedScan for url, got %v", err)
	}

	// A signed payload still passes.
	if _, err := f.scan(f.payloadText, ActionCheckIn); err != nil {
		t.Fatalf("Signed scan failed under strict policy: %v", err)
	}
}

func TestScan_LookupFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		qrData string
	}{
		{"bare registration id", "r1"},
		{"bare ticket number", "TK-m3kq9xdeadbeef"},
		{"url deep link", "https://example.com/checkin?registrationId=r1"},
		{"json without signature", `{"registrationId":"r1","eventId":"e1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newScanFixture(t)
			result, err := f.scan(tt.qrData, ActionCheckIn)
			if err != nil {
				t.Fatalf("Scan failed: %v", err)
			}
			if result.Attendance.RegistrationID != "r1" {
				t.Fatalf("Resolved wrong registration: %q", result.Attendance.RegistrationID)
			}
		})
	}
}

func TestScan_TicketNotFound(t *testing.T) {
	f := newScanFixture(t)

	_, err := f.scan("unknown-registration", ActionCheckIn)
	var notFound *domain.TicketNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected TicketNotFoundError, got %v", err)
	}
	if notFound.Candidate != "unknown-registration" {
		t.Fatalf("Expected candidate in error, got %q", notFound.Candidate)
	}
	if len(notFound.Previews) != 1 {
		t.Fatalf("Expected preview of the one known ticket, got %d", len(notFound.Previews))
	}
	if !errors.Is(err, domain.ErrTicketNotFound) {
		t.Fatal("Expected error to unwrap to ErrTicketNotFound")
	}
}

func TestScan_RegistrationNotConfirmed(t *testing.T) {
	f := newScanFixture(t)
	f.regs.registrations["r1"].Status = domain.RegistrationPending

	if _, err := f.scan(f.payloadText, ActionCheckIn); !errors.Is(err, domain.ErrRegistrationNotConfirmed) {
		t.Fatalf("Expected ErrRegistrationNotConfirmed, got %v", err)
	}
}

func TestScan_EventStateGates(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *domain.Event, now time.Time)
		wantErr error
	}{
		{
			name:    "draft event",
			mutate:  func(e *domain.Event, now time.Time) { e.Status = domain.EventDraft },
			wantErr: domain.ErrEventNotScannable,
		},
		{
			name:    "cancelled event",
			mutate:  func(e *domain.Event, now time.Time) { e.Status = domain.EventCancelled },
			wantErr: domain.ErrEventNotScannable,
		},
		{
			name:    "not started yet",
			mutate:  func(e *domain.Event, now time.Time) { e.StartDate = now.Add(time.Hour) },
			wantErr: domain.ErrEventNotStarted,
		},
		{
			name:    "already ended",
			mutate:  func(e *domain.Event, now time.Time) { e.EndDate = now.Add(-time.Hour) },
			wantErr: domain.ErrEventEnded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newScanFixture(t)
			tt.mutate(f.events.events["e1"], f.now)

			if _, err := f.scan(f.payloadText, ActionCheckIn); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestScan_InvalidAction(t *testing.T) {
	f := newScanFixture(t)

	if _, err := f.scan(f.payloadText, ScanAction("verify")); !errors.Is(err, domain.ErrInvalidAction) {
		t.Fatalf("Expected ErrInvalidAction, got %v", err)
	}
}

func TestScan_UnrecognizedFormat(t *testing.T) {
	f := newScanFixture(t)

	_, err := f.scan("two words and !", ActionCheckIn)
	var uf *domain.UnrecognizedFormatError
	if !errors.As(err, &uf) {
		t.Fatalf("Expected UnrecognizedFormatError, got %v", err)
	}
}
