package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andhikafr19/eo-app/internal/domain"
)

type TicketRepository interface {
	Create(ctx context.Context, t *domain.Ticket) (*domain.Ticket, error)
	GetByPayloadText(ctx context.Context, payloadText string) (*domain.Ticket, error)
	GetByRegistrationID(ctx context.Context, registrationID string) (*domain.Ticket, error)
	GetByTicketNumber(ctx context.Context, number string) (*domain.Ticket, error)
	MarkUsed(ctx context.Context, registrationID string, usedAt time.Time) error
	MarkUsedByNumber(ctx context.Context, number string, usedAt time.Time) (*domain.Ticket, error)
	ListRecentPreviews(ctx context.Context, limit int) ([]domain.TicketPreview, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketCols = `id, registration_id, ticket_number, payload_text, rendered_code, is_used, used_at, created_at`

func (r *ticketRepository) Create(ctx context.Context, t *domain.Ticket) (*domain.Ticket, error) {
	const q = `INSERT INTO tickets (id, registration_id, ticket_number, payload_text, rendered_code)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING ` + ticketCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var out domain.Ticket
	err := r.pool.QueryRow(ctx, q, t.ID, t.RegistrationID, t.TicketNumber, t.PayloadText, t.RenderedCode).Scan(
		&out.ID, &out.RegistrationID, &out.TicketNumber, &out.PayloadText,
		&out.RenderedCode, &out.IsUsed, &out.UsedAt, &out.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "tickets_ticket_number_key":
				return nil, domain.ErrDuplicateTicketNumber
			case "tickets_registration_id_key":
				return nil, domain.ErrTicketAlreadyIssued
			}
		}
		return nil, err
	}
	return &out, nil
}

func (r *ticketRepository) GetByPayloadText(ctx context.Context, payloadText string) (*domain.Ticket, error) {
	const q = `SELECT ` + ticketCols + ` FROM tickets WHERE payload_text=$1`
	return r.getOne(ctx, q, payloadText)
}

func (r *ticketRepository) GetByRegistrationID(ctx context.Context, registrationID string) (*domain.Ticket, error) {
	const q = `SELECT ` + ticketCols + ` FROM tickets WHERE registration_id=$1`
	return r.getOne(ctx, q, registrationID)
}

func (r *ticketRepository) GetByTicketNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	const q = `SELECT ` + ticketCols + ` FROM tickets WHERE ticket_number=$1`
	return r.getOne(ctx, q, number)
}

func (r *ticketRepository) getOne(ctx context.Context, q string, arg any) (*domain.Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.Ticket
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&t.ID, &t.RegistrationID, &t.TicketNumber, &t.PayloadText,
		&t.RenderedCode, &t.IsUsed, &t.UsedAt, &t.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkUsed flips the legacy single-shot flag. used_at keeps its first
// value when the flag was already set.
func (r *ticketRepository) MarkUsed(ctx context.Context, registrationID string, usedAt time.Time) error {
	const q = `UPDATE tickets SET is_used=true, used_at=COALESCE(used_at, $2) WHERE registration_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, registrationID, usedAt)
	return err
}

// MarkUsedByNumber is the legacy single-shot check-in: it succeeds only
// when the ticket was not yet used. A nil result means no unused ticket
// matched the number.
func (r *ticketRepository) MarkUsedByNumber(ctx context.Context, number string, usedAt time.Time) (*domain.Ticket, error) {
	const q = `UPDATE tickets SET is_used=true, used_at=$2
		WHERE ticket_number=$1 AND is_used=false
		RETURNING ` + ticketCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.Ticket
	err := r.pool.QueryRow(ctx, q, number, usedAt).Scan(
		&t.ID, &t.RegistrationID, &t.TicketNumber, &t.PayloadText,
		&t.RenderedCode, &t.IsUsed, &t.UsedAt, &t.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ticketRepository) ListRecentPreviews(ctx context.Context, limit int) ([]domain.TicketPreview, error) {
	if limit <= 0 || limit > 10 {
		limit = 5
	}

	const q = `SELECT id, ticket_number FROM tickets ORDER BY created_at DESC LIMIT $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var previews []domain.TicketPreview
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.TicketNumber); err != nil {
			return nil, err
		}
		previews = append(previews, t.Preview())
	}
	return previews, rows.Err()
}
