package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andhikafr19/eo-app/internal/domain"
	"github.com/andhikafr19/eo-app/internal/repository"
	"github.com/andhikafr19/eo-app/internal/ticket"
	"github.com/andhikafr19/eo-app/pkg/config"
	"github.com/andhikafr19/eo-app/pkg/events"
	"github.com/andhikafr19/eo-app/pkg/logger"
)

type TicketService interface {
	IssueTicket(ctx context.Context, registrationID string) (*domain.Ticket, error)
	GetTicket(ctx context.Context, registrationID string) (*domain.Ticket, error)
	LegacyCheckIn(ctx context.Context, ticketNumber string) (*domain.Ticket, error)
}

type ticketService struct {
	issuer           *ticket.Issuer
	ticketRepo       repository.TicketRepository
	registrationRepo repository.RegistrationRepository
	eventRepo        repository.EventRepository
	eventBus         events.EventBus
	config           *config.Config
}

func NewTicketService(
	issuer *ticket.Issuer,
	ticketRepo repository.TicketRepository,
	registrationRepo repository.RegistrationRepository,
	eventRepo repository.EventRepository,
	eventBus events.EventBus,
	config *config.Config,
) TicketService {
	return &ticketService{
		issuer:           issuer,
		ticketRepo:       ticketRepo,
		registrationRepo: registrationRepo,
		eventRepo:        eventRepo,
		eventBus:         eventBus,
		config:           config,
	}
}

// IssueTicket generates the ticket artifacts and persists them. The
// payload and code image are built before the store write; a duplicate
// ticket number retries with a fresh number only, up to the configured
// attempt budget.
func (s *ticketService) IssueTicket(ctx context.Context, registrationID string) (*domain.Ticket, error) {
	reg, err := s.registrationRepo.GetByID(ctx, registrationID)
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

	issued, err := s.issuer.Issue(reg.ID, reg.EventID, reg.UserID)
	if err != nil {
		return nil, err
	}

	var created *domain.Ticket
	for attempt := 0; attempt < s.config.Ticket.IssueAttempts; attempt++ {
		created, err = s.ticketRepo.Create(ctx, &domain.Ticket{
			ID:             uuid.NewString(),
			RegistrationID: reg.ID,
			TicketNumber:   issued.TicketNumber,
			PayloadText:    issued.PayloadText,
			RenderedCode:   issued.RenderedCode,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicateTicketNumber) {
			return nil, err
		}
		issued.TicketNumber = s.issuer.NewTicketNumber()
	}
	if err != nil {
		return nil, err
	}

	evt := events.TicketIssuedEvent{
		TicketID:       created.ID,
		TicketNumber:   created.TicketNumber,
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		UserID:         reg.UserID,
		IssuedAt:       created.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.TicketIssued, evt); err != nil {
		logger.ErrorContext(ctx, "Failed to publish ticket issued event", "error", err, "ticket_id", created.ID)
	}

	return created, nil
}

func (s *ticketService) GetTicket(ctx context.Context, registrationID string) (*domain.Ticket, error) {
	t, err := s.ticketRepo.GetByRegistrationID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrTicketNotFound
	}
	return t, nil
}

// LegacyCheckIn flips the single-shot used flag on a ticket. Kept for
// non-session events; the attendance table is authoritative everywhere
// else.
func (s *ticketService) LegacyCheckIn(ctx context.Context, ticketNumber string) (*domain.Ticket, error) {
	t, err := s.ticketRepo.MarkUsedByNumber(ctx, ticketNumber, time.Now())
	if err != nil {
		return nil, err
	}
	if t != nil {
		return t, nil
	}

	// Distinguish an unknown number from a ticket that was already used.
	existing, err := s.ticketRepo.GetByTicketNumber(ctx, ticketNumber)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrTicketNotFound
	}
	return nil, domain.ErrAlreadyCheckedIn
}
