package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andhikafr19/eo-app/internal/domain"
)

type StaffRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Staff, error)
	FindByID(ctx context.Context, id int64) (*domain.Staff, error)
	Create(ctx context.Context, email, passwordHash, name, role string) (*domain.Staff, error)
}

type staffRepository struct {
	pool *pgxpool.Pool
}

func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

const staffCols = `id, email, password_hash, name, role, created_at`

func (r *staffRepository) FindByEmail(ctx context.Context, email string) (*domain.Staff, error) {
	const q = `SELECT ` + staffCols + ` FROM staff WHERE lower(email)=lower($1)`
	return r.findOne(ctx, q, email)
}

func (r *staffRepository) FindByID(ctx context.Context, id int64) (*domain.Staff, error) {
	const q = `SELECT ` + staffCols + ` FROM staff WHERE id=$1`
	return r.findOne(ctx, q, id)
}

func (r *staffRepository) findOne(ctx context.Context, q string, arg any) (*domain.Staff, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var s domain.Staff
	err := r.pool.QueryRow(ctx, q, arg).Scan(&s.ID, &s.Email, &s.PasswordHash, &s.Name, &s.Role, &s.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *staffRepository) Create(ctx context.Context, email, passwordHash, name, role string) (*domain.Staff, error) {
	const q = `INSERT INTO staff (email, password_hash, name, role)
		VALUES ($1,$2,$3,$4)
		RETURNING ` + staffCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var s domain.Staff
	err := r.pool.QueryRow(ctx, q, email, passwordHash, name, role).Scan(
		&s.ID, &s.Email, &s.PasswordHash, &s.Name, &s.Role, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
