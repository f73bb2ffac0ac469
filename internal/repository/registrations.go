package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andhikafr19/eo-app/internal/domain"
)

type RegistrationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Registration, error)
}

type registrationRepository struct {
	pool *pgxpool.Pool
}

func NewRegistrationRepository(pool *pgxpool.Pool) RegistrationRepository {
	return &registrationRepository{pool: pool}
}

const registrationCols = `id, event_id, user_id, name, email, status, created_at, updated_at`

func (r *registrationRepository) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	const q = `SELECT ` + registrationCols + ` FROM registrations WHERE id=$1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var reg domain.Registration
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&reg.ID, &reg.EventID, &reg.UserID, &reg.Name, &reg.Email,
		&reg.Status, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}
