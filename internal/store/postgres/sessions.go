package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"tutorconnect/internal/scheduling"
)

const sessionColumns = `id, student_id, tutor_id, subject_id, scheduled_start, scheduled_end, status,
	hourly_rate, payment_amount, created_at, updated_at`

func scanSession(row pgx.Row) (scheduling.Session, error) {
	var (
		s      scheduling.Session
		status string
	)
	err := row.Scan(&s.ID, &s.StudentID, &s.TutorID, &s.SubjectID, &s.ScheduledStart, &s.ScheduledEnd,
		&status, &s.HourlyRate, &s.PaymentAmount, &s.CreatedAt, &s.UpdatedAt)
	s.Status = scheduling.Status(status)
	return s, err
}

func collectSessions(rows pgx.Rows) ([]scheduling.Session, error) {
	defer rows.Close()
	var out []scheduling.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (s *Store) ListActiveSessions(ctx context.Context, tutorID string, from, to time.Time) ([]scheduling.Session, error) {
	q := `SELECT ` + sessionColumns + `
	      FROM tutoring_sessions
	      WHERE tutor_id=$1 AND status IN ('scheduled','in_progress')
	        AND scheduled_start < $3 AND scheduled_end > $2
	      ORDER BY scheduled_start`
	rows, err := s.q.Query(ctx, q, tutorID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

func (s *Store) ListSessions(ctx context.Context, f scheduling.SessionFilter) ([]scheduling.Session, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.TutorID != "" {
		add("tutor_id=$%d", f.TutorID)
	}
	if f.StudentID != "" {
		add("student_id=$%d", f.StudentID)
	}
	if !f.From.IsZero() {
		add("scheduled_start >= $%d", f.From.UTC())
	}
	if !f.To.IsZero() {
		add("scheduled_start < $%d", f.To.UTC())
	}
	if f.ActiveOnly {
		where = append(where, "status IN ('scheduled','in_progress')")
	}

	q := `SELECT ` + sessionColumns + ` FROM tutoring_sessions`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY scheduled_start`

	rows, err := s.q.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

func (s *Store) GetSession(ctx context.Context, id string) (*scheduling.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM tutoring_sessions WHERE id=$1`
	sess, err := scanSession(s.q.QueryRow(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, mapError(err))
	}
	return &sess, nil
}

func (s *Store) InsertSession(ctx context.Context, sess *scheduling.Session) error {
	q := `INSERT INTO tutoring_sessions
		(id, student_id, tutor_id, subject_id, scheduled_start, scheduled_end, status, hourly_rate, payment_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING created_at, updated_at`
	err := s.q.QueryRow(ctx, q,
		sess.ID,
		sess.StudentID,
		sess.TutorID,
		sess.SubjectID,
		sess.ScheduledStart.UTC(),
		sess.ScheduledEnd.UTC(),
		string(sess.Status),
		sess.HourlyRate,
		sess.PaymentAmount,
	).Scan(&sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) UpdateSessionStatus(ctx context.Context, id string, from, to scheduling.Status) (*scheduling.Session, error) {
	q := `UPDATE tutoring_sessions SET status=$1, updated_at=now()
	      WHERE id=$2 AND status=$3
	      RETURNING ` + sessionColumns
	sess, err := scanSession(s.q.QueryRow(ctx, q, string(to), id, string(from)))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w: session %s is no longer %s", scheduling.ErrInvalidTransition, id, from)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &sess, nil
}
