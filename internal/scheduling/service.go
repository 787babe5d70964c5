package scheduling

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tutorconnect/internal/metrics"
)

// Actor is the caller of a session operation. Privileged actors (admins,
// service tokens) may act on sessions they are not part of.
type Actor struct {
	ID         string
	Privileged bool
}

type BookRequest struct {
	StudentID string
	TutorID   string
	SubjectID string
	Start     time.Time
	End       time.Time
}

type Options struct {
	Location *time.Location
	Now      func() time.Time
	Logger   *zap.Logger
}

type Service struct {
	store    Store
	resolver *Resolver
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

func NewService(store Store, opts Options) *Service {
	r := NewResolver(store, opts.Location, opts.Now, opts.Logger)
	return &Service{
		store:    store,
		resolver: r,
		loc:      r.loc,
		now:      r.now,
		logger:   r.logger,
	}
}

func (s *Service) Location() *time.Location { return s.loc }

func (s *Service) ResolveSlots(ctx context.Context, req ResolveRequest) ([]Slot, error) {
	if uuid.Validate(req.TutorID) != nil {
		return nil, fmt.Errorf("tutor %q: %w", req.TutorID, ErrNotFound)
	}
	return s.resolver.Resolve(ctx, req)
}

func (s *Service) GetTutor(ctx context.Context, tutorID string) (*Tutor, error) {
	if uuid.Validate(tutorID) != nil {
		return nil, fmt.Errorf("tutor %q: %w", tutorID, ErrNotFound)
	}
	t, err := s.store.GetTutor(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get tutor: %w", err)
	}
	return t, nil
}

func (s *Service) UpsertTutor(ctx context.Context, t Tutor) (*Tutor, error) {
	if uuid.Validate(t.ID) != nil {
		return nil, fmt.Errorf("%w: invalid tutor id", ErrValidation)
	}
	t.DisplayName = strings.TrimSpace(t.DisplayName)
	if t.DisplayName == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrValidation)
	}
	if t.HourlyRate < 0 || math.IsNaN(t.HourlyRate) || math.IsInf(t.HourlyRate, 0) {
		return nil, fmt.Errorf("%w: hourly rate must be a non-negative number", ErrValidation)
	}
	if err := s.store.UpsertTutor(ctx, &t); err != nil {
		return nil, fmt.Errorf("upsert tutor: %w", err)
	}
	s.logger.Info("Tutor profile saved", zap.String("tutor_id", t.ID), zap.Float64("hourly_rate", t.HourlyRate))
	return &t, nil
}

// normalizeWindow validates w and derives the fields implied by a pinned date.
func normalizeWindow(w *Window) error {
	if w.StartTime < 0 || w.EndTime > endOfDay {
		return fmt.Errorf("%w: window times must be within the day", ErrValidation)
	}
	if w.StartTime >= w.EndTime {
		return fmt.Errorf("%w: window start %s is not before end %s", ErrInvalidInterval, w.StartTime, w.EndTime)
	}
	if w.SpecificDate != nil {
		y, m, d := w.SpecificDate.Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		w.SpecificDate = &date
		w.IsRecurring = false
		w.DayOfWeek = int(date.Weekday())
		return nil
	}
	if !w.IsRecurring {
		return fmt.Errorf("%w: a non-recurring window needs a specific date", ErrValidation)
	}
	if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
		return fmt.Errorf("%w: day_of_week must be 0-6", ErrValidation)
	}
	return nil
}

// CreateWindows validates every window before inserting any of them.
func (s *Service) CreateWindows(ctx context.Context, tutorID string, windows []Window) ([]Window, error) {
	if _, err := s.GetTutor(ctx, tutorID); err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("%w: at least one window is required", ErrValidation)
	}
	for i := range windows {
		if err := normalizeWindow(&windows[i]); err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		windows[i].ID = uuid.NewString()
		windows[i].TutorID = tutorID
	}
	for i := range windows {
		if err := s.store.InsertWindow(ctx, &windows[i]); err != nil {
			return nil, fmt.Errorf("insert window: %w", err)
		}
	}
	s.logger.Info("Availability windows created", zap.String("tutor_id", tutorID), zap.Int("count", len(windows)))
	return windows, nil
}

func (s *Service) ListWindows(ctx context.Context, tutorID string) ([]Window, error) {
	if _, err := s.GetTutor(ctx, tutorID); err != nil {
		return nil, err
	}
	ws, err := s.store.ListWindows(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	return ws, nil
}

// UpdateWindow overwrites the window in place; there is no history.
func (s *Service) UpdateWindow(ctx context.Context, tutorID, windowID string, w Window) (*Window, error) {
	existing, err := s.getWindow(ctx, tutorID, windowID)
	if err != nil {
		return nil, err
	}
	if err := normalizeWindow(&w); err != nil {
		return nil, err
	}
	w.ID = existing.ID
	w.TutorID = existing.TutorID
	w.CreatedAt = existing.CreatedAt
	if err := s.store.UpdateWindow(ctx, &w); err != nil {
		return nil, fmt.Errorf("update window: %w", err)
	}
	return &w, nil
}

// DeleteWindow refuses to remove a window that still has active sessions from today on.
func (s *Service) DeleteWindow(ctx context.Context, tutorID, windowID string) error {
	w, err := s.getWindow(ctx, tutorID, windowID)
	if err != nil {
		return err
	}
	y, m, d := s.now().In(s.loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, s.loc)

	err = s.store.InTx(ctx, tutorID, func(tx Tx) error {
		sessions, err := tx.ListSessions(ctx, SessionFilter{TutorID: tutorID, From: today, ActiveOnly: true})
		if err != nil {
			return fmt.Errorf("list upcoming sessions: %w", err)
		}
		inUse := 0
		for _, sess := range sessions {
			if w.Covers(sess.Interval(), s.loc) {
				inUse++
			}
		}
		if inUse > 0 {
			return fmt.Errorf("%w: %d upcoming session(s)", ErrSlotInUse, inUse)
		}
		return tx.DeleteWindow(ctx, tutorID, windowID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Availability window deleted", zap.String("tutor_id", tutorID), zap.String("window_id", windowID))
	return nil
}

func (s *Service) getWindow(ctx context.Context, tutorID, windowID string) (*Window, error) {
	if uuid.Validate(tutorID) != nil || uuid.Validate(windowID) != nil {
		return nil, fmt.Errorf("window %q: %w", windowID, ErrNotFound)
	}
	w, err := s.store.GetWindow(ctx, tutorID, windowID)
	if err != nil {
		return nil, fmt.Errorf("get window: %w", err)
	}
	return w, nil
}

// BookSession checks for conflicts and inserts under the tutor's lock, so two
// concurrent requests for the same slot cannot both succeed.
func (s *Service) BookSession(ctx context.Context, req BookRequest) (*Session, error) {
	if uuid.Validate(req.TutorID) != nil {
		return nil, fmt.Errorf("%w: invalid tutor id", ErrValidation)
	}
	if uuid.Validate(req.StudentID) != nil {
		return nil, fmt.Errorf("%w: invalid student id", ErrValidation)
	}
	if req.StudentID == req.TutorID {
		return nil, fmt.Errorf("%w: a tutor cannot book their own session", ErrValidation)
	}
	if !req.Start.Before(req.End) {
		return nil, ErrInvalidInterval
	}
	if !req.Start.After(s.now()) {
		return nil, fmt.Errorf("%w: session must start in the future", ErrValidation)
	}

	tutor, err := s.store.GetTutor(ctx, req.TutorID)
	if err != nil {
		return nil, fmt.Errorf("get tutor: %w", err)
	}

	session := &Session{
		ID:             uuid.NewString(),
		StudentID:      req.StudentID,
		TutorID:        req.TutorID,
		SubjectID:      req.SubjectID,
		ScheduledStart: req.Start.UTC(),
		ScheduledEnd:   req.End.UTC(),
		Status:         StatusScheduled,
		HourlyRate:     tutor.HourlyRate,
		PaymentAmount:  PaymentAmount(tutor.HourlyRate, req.Start, req.End),
	}

	err = s.store.InTx(ctx, req.TutorID, func(tx Tx) error {
		if err := CheckConflict(ctx, tx, req.TutorID, session.ScheduledStart, session.ScheduledEnd); err != nil {
			return err
		}
		return tx.InsertSession(ctx, session)
	})
	if err != nil {
		if errors.Is(err, ErrSchedulingConflict) {
			metrics.Bookings.WithLabelValues("conflict").Inc()
			s.logger.Info("Booking rejected by conflict",
				zap.String("tutor_id", req.TutorID),
				zap.Time("start", session.ScheduledStart),
				zap.Time("end", session.ScheduledEnd),
			)
			return nil, err
		}
		metrics.Bookings.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("book session: %w", err)
	}

	metrics.Bookings.WithLabelValues("created").Inc()
	s.logger.Info("Session booked",
		zap.String("session_id", session.ID),
		zap.String("tutor_id", session.TutorID),
		zap.String("student_id", session.StudentID),
		zap.Time("start", session.ScheduledStart),
		zap.Float64("payment_amount", session.PaymentAmount),
	)
	return session, nil
}

// PaymentAmount prices [start, end) at the hourly rate, rounded to cents.
func PaymentAmount(hourlyRate float64, start, end time.Time) float64 {
	total := end.Sub(start).Hours() * hourlyRate
	return math.Round(total*100) / 100
}

func (s *Service) GetSession(ctx context.Context, id string, actor Actor) (*Session, error) {
	if uuid.Validate(id) != nil {
		return nil, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !actor.Privileged && actor.ID != sess.StudentID && actor.ID != sess.TutorID {
		return nil, ErrForbidden
	}
	return sess, nil
}

func (s *Service) ListSessions(ctx context.Context, f SessionFilter) ([]Session, error) {
	if f.TutorID == "" && f.StudentID == "" {
		return nil, fmt.Errorf("%w: a tutor or student is required", ErrValidation)
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return nil, fmt.Errorf("%w: from must be before to", ErrValidation)
	}
	out, err := s.store.ListSessions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, actor Actor, to Status) (*Session, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}
	sess, err := s.GetSession(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !CanTransition(sess.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sess.Status, to)
	}
	updated, err := s.store.UpdateSessionStatus(ctx, id, sess.Status, to)
	if err != nil {
		return nil, fmt.Errorf("update session status: %w", err)
	}
	s.logger.Info("Session status changed",
		zap.String("session_id", id),
		zap.String("actor_id", actor.ID),
		zap.String("from", string(sess.Status)),
		zap.String("to", string(to)),
	)
	return updated, nil
}
