package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"tutorconnect/internal/scheduling"
)

// Constraint names from the migrations.
const (
	noOverlapConstraint = "tutoring_sessions_no_overlap"
	exclusionViolation  = "23P01"
	foreignKeyViolation = "23503"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ scheduling.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	q    querier
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// InTx opens a read-committed transaction and takes a transaction-scoped
// advisory lock keyed by the tutor, so check-then-insert sequences for one
// tutor run one at a time. The exclusion constraint backs this up.
func (s *Store) InTx(ctx context.Context, tutorID string, fn func(scheduling.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, tutorID); err != nil {
		return fmt.Errorf("lock tutor calendar: %w", err)
	}
	if err := fn(&Store{pool: s.pool, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", mapError(err))
	}
	return nil
}

// mapError turns constraint violations into scheduling errors.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == exclusionViolation && pgErr.ConstraintName == noOverlapConstraint:
			return fmt.Errorf("%w: %s", scheduling.ErrSchedulingConflict, pgErr.Message)
		case pgErr.Code == foreignKeyViolation:
			return fmt.Errorf("%w: %s", scheduling.ErrNotFound, pgErr.Detail)
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return scheduling.ErrNotFound
	}
	return err
}

func (s *Store) GetTutor(ctx context.Context, tutorID string) (*scheduling.Tutor, error) {
	q := `SELECT id, display_name, hourly_rate, created_at, updated_at
	      FROM tutor_profiles WHERE id=$1`
	var t scheduling.Tutor
	err := s.q.QueryRow(ctx, q, tutorID).Scan(&t.ID, &t.DisplayName, &t.HourlyRate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("tutor %s: %w", tutorID, mapError(err))
	}
	return &t, nil
}

func (s *Store) UpsertTutor(ctx context.Context, t *scheduling.Tutor) error {
	q := `INSERT INTO tutor_profiles (id, display_name, hourly_rate, created_at, updated_at)
	      VALUES ($1, $2, $3, now(), now())
	      ON CONFLICT (id) DO UPDATE
	      SET display_name=EXCLUDED.display_name, hourly_rate=EXCLUDED.hourly_rate, updated_at=now()
	      RETURNING created_at, updated_at`
	if err := s.q.QueryRow(ctx, q, t.ID, t.DisplayName, t.HourlyRate).Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		return mapError(err)
	}
	return nil
}

const windowColumns = `id, tutor_id, day_of_week, start_time, end_time, is_recurring, specific_date, is_available, created_at, updated_at`

func scanWindow(row pgx.Row) (scheduling.Window, error) {
	var (
		w          scheduling.Window
		start, end pgtype.Time
	)
	if err := row.Scan(&w.ID, &w.TutorID, &w.DayOfWeek, &start, &end,
		&w.IsRecurring, &w.SpecificDate, &w.IsAvailable, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return w, err
	}
	w.StartTime = fromPgTime(start)
	w.EndTime = fromPgTime(end)
	return w, nil
}

func toPgTime(c scheduling.ClockTime) pgtype.Time {
	return pgtype.Time{Microseconds: c.Duration().Microseconds(), Valid: true}
}

func fromPgTime(t pgtype.Time) scheduling.ClockTime {
	return scheduling.ClockTime(time.Duration(t.Microseconds) * time.Microsecond / time.Minute)
}

func (s *Store) ListWindows(ctx context.Context, tutorID string) ([]scheduling.Window, error) {
	q := `SELECT ` + windowColumns + `
	      FROM tutor_availability_slots WHERE tutor_id=$1
	      ORDER BY day_of_week, start_time`
	rows, err := s.q.Query(ctx, q, tutorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []scheduling.Window
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan window: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) GetWindow(ctx context.Context, tutorID, windowID string) (*scheduling.Window, error) {
	q := `SELECT ` + windowColumns + `
	      FROM tutor_availability_slots WHERE id=$1 AND tutor_id=$2`
	w, err := scanWindow(s.q.QueryRow(ctx, q, windowID, tutorID))
	if err != nil {
		return nil, fmt.Errorf("window %s: %w", windowID, mapError(err))
	}
	return &w, nil
}

func (s *Store) InsertWindow(ctx context.Context, w *scheduling.Window) error {
	q := `INSERT INTO tutor_availability_slots
          (id, tutor_id, day_of_week, start_time, end_time, is_recurring, specific_date, is_available, created_at, updated_at)
          VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now(),now())
          RETURNING created_at, updated_at`
	err := s.q.QueryRow(ctx, q,
		w.ID, w.TutorID, w.DayOfWeek, toPgTime(w.StartTime), toPgTime(w.EndTime),
		w.IsRecurring, w.SpecificDate, w.IsAvailable,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) UpdateWindow(ctx context.Context, w *scheduling.Window) error {
	q := `UPDATE tutor_availability_slots
          SET day_of_week=$1, start_time=$2, end_time=$3, is_recurring=$4,
              specific_date=$5, is_available=$6, updated_at=now()
          WHERE id=$7 AND tutor_id=$8
          RETURNING created_at, updated_at`
	err := s.q.QueryRow(ctx, q,
		w.DayOfWeek, toPgTime(w.StartTime), toPgTime(w.EndTime), w.IsRecurring,
		w.SpecificDate, w.IsAvailable, w.ID, w.TutorID,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("window %s: %w", w.ID, mapError(err))
	}
	return nil
}

func (s *Store) DeleteWindow(ctx context.Context, tutorID, windowID string) error {
	res, err := s.q.Exec(ctx, `DELETE FROM tutor_availability_slots WHERE id=$1 AND tutor_id=$2`, windowID, tutorID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("window %s: %w", windowID, scheduling.ErrNotFound)
	}
	return nil
}
