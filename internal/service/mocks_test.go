package service

import (
	"context"
	"sync"
	"time"

	"github.com/andhikafr19/eo-app/internal/domain"
	"github.com/andhikafr19/eo-app/pkg/events"
)

type mockTicketRepo struct {
	tickets []*domain.Ticket
	// createErrs is consumed one per Create call before the insert is
	// attempted, simulating store-level uniqueness conflicts.
	createErrs []error
	creates    int
}

func (m *mockTicketRepo) Create(ctx context.Context, t *domain.Ticket) (*domain.Ticket, error) {
	m.creates++
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	for _, existing := range m.tickets {
		if existing.RegistrationID == t.RegistrationID {
			return nil, domain.ErrTicketAlreadyIssued
		}
		if existing.TicketNumber == t.TicketNumber {
			return nil, domain.ErrDuplicateTicketNumber
		}
	}
	stored := *t
	stored.CreatedAt = time.Now()
	m.tickets = append(m.tickets, &stored)
	return &stored, nil
}

func (m *mockTicketRepo) GetByPayloadText(ctx context.Context, payloadText string) (*domain.Ticket, error) {
	for _, t := range m.tickets {
		if t.PayloadText == payloadText {
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockTicketRepo) GetByRegistrationID(ctx context.Context, registrationID string) (*domain.Ticket, error) {
	for _, t := range m.tickets {
		if t.RegistrationID == registrationID {
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockTicketRepo) GetByTicketNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	for _, t := range m.tickets {
		if t.TicketNumber == number {
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockTicketRepo) MarkUsed(ctx context.Context, registrationID string, usedAt time.Time) error {
	for _, t := range m.tickets {
		if t.RegistrationID == registrationID && !t.IsUsed {
			t.IsUsed = true
			t.UsedAt = &usedAt
		}
	}
	return nil
}

func (m *mockTicketRepo) MarkUsedByNumber(ctx context.Context, number string, usedAt time.Time) (*domain.Ticket, error) {
	for _, t := range m.tickets {
		if t.TicketNumber == number && !t.IsUsed {
			t.IsUsed = true
			t.UsedAt = &usedAt
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockTicketRepo) ListRecentPreviews(ctx context.Context, limit int) ([]domain.TicketPreview, error) {
	previews := make([]domain.TicketPreview, 0, limit)
	for _, t := range m.tickets {
		if len(previews) == limit {
			break
		}
		previews = append(previews, t.Preview())
	}
	return previews, nil
}

type mockRegistrationRepo struct {
	registrations map[string]*domain.Registration
}

func (m *mockRegistrationRepo) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	return m.registrations[id], nil
}

type mockEventRepo struct {
	events map[string]*domain.Event
}

func (m *mockEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return m.events[id], nil
}

type mockAttendanceRepo struct {
	mu     sync.Mutex
	rows   map[string]*domain.Attendance
	nextID int64
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{rows: make(map[string]*domain.Attendance)}
}

func attendanceKey(registrationID string, sessionID *string) string {
	key := registrationID + "|"
	if sessionID != nil {
		key += *sessionID
	}
	return key
}

func (m *mockAttendanceRepo) CheckIn(ctx context.Context, registrationID string, sessionID *string, method domain.AttendanceMethod, at time.Time) (*domain.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := attendanceKey(registrationID, sessionID)
	if _, ok := m.rows[key]; ok {
		return nil, nil
	}
	m.nextID++
	att := &domain.Attendance{
		ID:             m.nextID,
		RegistrationID: registrationID,
		SessionID:      sessionID,
		CheckInTime:    at,
		Method:         method,
	}
	m.rows[key] = att
	return att, nil
}

func (m *mockAttendanceRepo) CheckOut(ctx context.Context, registrationID string, sessionID *string, at time.Time) (*domain.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	att, ok := m.rows[attendanceKey(registrationID, sessionID)]
	if !ok || att.CheckOutTime != nil {
		return nil, nil
	}
	att.CheckOutTime = &at
	return att, nil
}

func (m *mockAttendanceRepo) Get(ctx context.Context, registrationID string, sessionID *string) (*domain.Attendance, error) {
	return m.rows[attendanceKey(registrationID, sessionID)], nil
}

func (m *mockAttendanceRepo) ListByEvent(ctx context.Context, eventID string, sessionID *string, limit, offset int) ([]domain.Attendance, error) {
	out := make([]domain.Attendance, 0, len(m.rows))
	for _, att := range m.rows {
		out = append(out, *att)
	}
	return out, nil
}

type mockEventBus struct {
	mu        sync.Mutex
	published []string
}

func (m *mockEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, subject)
	return nil
}

func (m *mockEventBus) Subscribe(subject string, handler func(msg *events.Message)) error {
	return nil
}

func (m *mockEventBus) QueueSubscribe(subject, queue string, handler func(msg *events.Message)) error {
	return nil
}

func (m *mockEventBus) Close() error { return nil }
