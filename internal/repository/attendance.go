package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andhikafr19/eo-app/internal/domain"
)

type AttendanceRepository interface {
	// CheckIn atomically creates the attendance row for the partition.
	// A nil result with nil error means a row already existed and the
	// caller lost the race.
	CheckIn(ctx context.Context, registrationID string, sessionID *string, method domain.AttendanceMethod, at time.Time) (*domain.Attendance, error)
	// CheckOut closes the open row for the partition. A nil result with
	// nil error means no open row existed.
	CheckOut(ctx context.Context, registrationID string, sessionID *string, at time.Time) (*domain.Attendance, error)
	Get(ctx context.Context, registrationID string, sessionID *string) (*domain.Attendance, error)
	ListByEvent(ctx context.Context, eventID string, sessionID *string, limit, offset int) ([]domain.Attendance, error)
}

type attendanceRepository struct {
	pool *pgxpool.Pool
}

func NewAttendanceRepository(pool *pgxpool.Pool) AttendanceRepository {
	return &attendanceRepository{pool: pool}
}

const attendanceCols = `id, registration_id, session_id, check_in_time, check_out_time, method`

// session_key is the non-null projection of session_id the unique index
// is built on; '' stands for the whole event.

func (r *attendanceRepository) CheckIn(ctx context.Context, registrationID string, sessionID *string, method domain.AttendanceMethod, at time.Time) (*domain.Attendance, error) {
	const q = `INSERT INTO attendance (registration_id, session_id, session_key, check_in_time, method)
		VALUES ($1, $2, COALESCE($2, ''), $3, $4)
		ON CONFLICT (registration_id, session_key) DO NOTHING
		RETURNING ` + attendanceCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.Attendance
	err := r.pool.QueryRow(ctx, q, registrationID, sessionID, at, method).Scan(
		&a.ID, &a.RegistrationID, &a.SessionID, &a.CheckInTime, &a.CheckOutTime, &a.Method,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attendanceRepository) CheckOut(ctx context.Context, registrationID string, sessionID *string, at time.Time) (*domain.Attendance, error) {
	const q = `UPDATE attendance SET check_out_time=$3
		WHERE registration_id=$1 AND session_key=COALESCE($2, '') AND check_out_time IS NULL
		RETURNING ` + attendanceCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.Attendance
	err := r.pool.QueryRow(ctx, q, registrationID, sessionID, at).Scan(
		&a.ID, &a.RegistrationID, &a.SessionID, &a.CheckInTime, &a.CheckOutTime, &a.Method,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attendanceRepository) Get(ctx context.Context, registrationID string, sessionID *string) (*domain.Attendance, error) {
	const q = `SELECT ` + attendanceCols + ` FROM attendance
		WHERE registration_id=$1 AND session_key=COALESCE($2, '')`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.Attendance
	err := r.pool.QueryRow(ctx, q, registrationID, sessionID).Scan(
		&a.ID, &a.RegistrationID, &a.SessionID, &a.CheckInTime, &a.CheckOutTime, &a.Method,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attendanceRepository) ListByEvent(ctx context.Context, eventID string, sessionID *string, limit, offset int) ([]domain.Attendance, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT a.id, a.registration_id, a.session_id, a.check_in_time, a.check_out_time, a.method
		FROM attendance a
		JOIN registrations r ON r.id = a.registration_id
		WHERE r.event_id=$1`
	args := []any{eventID}
	if sessionID != nil {
		q += ` AND a.session_key=$2 ORDER BY a.check_in_time DESC LIMIT $3 OFFSET $4`
		args = append(args, *sessionID, limit, offset)
	} else {
		q += ` ORDER BY a.check_in_time DESC LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.Attendance
	for rows.Next() {
		var a domain.Attendance
		if err := rows.Scan(&a.ID, &a.RegistrationID, &a.SessionID, &a.CheckInTime, &a.CheckOutTime, &a.Method); err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return records, rows.Err()
}
