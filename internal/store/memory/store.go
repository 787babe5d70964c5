// Package memory is a process-local scheduling.Store used by tests and
// STORE_BACKEND=memory development runs. Data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"tutorconnect/internal/scheduling"
)

var _ scheduling.Store = (*Store)(nil)

type Store struct {
	mu       sync.Mutex
	tutors   map[string]scheduling.Tutor
	windows  map[string]scheduling.Window
	sessions map[string]scheduling.Session
	now      func() time.Time
}

func New() *Store {
	return &Store{
		tutors:   make(map[string]scheduling.Tutor),
		windows:  make(map[string]scheduling.Window),
		sessions: make(map[string]scheduling.Session),
		now:      time.Now,
	}
}

// view runs queries against the maps; callers hold mu.
type view struct{ s *Store }

func (s *Store) GetTutor(ctx context.Context, tutorID string) (*scheduling.Tutor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tutors[tutorID]
	if !ok {
		return nil, fmt.Errorf("tutor %s: %w", tutorID, scheduling.ErrNotFound)
	}
	return &t, nil
}

func (s *Store) UpsertTutor(ctx context.Context, t *scheduling.Tutor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	if existing, ok := s.tutors[t.ID]; ok {
		t.CreatedAt = existing.CreatedAt
	} else {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	s.tutors[t.ID] = *t
	return nil
}

func (s *Store) ListWindows(ctx context.Context, tutorID string) ([]scheduling.Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []scheduling.Window
	for _, w := range s.windows {
		if w.TutorID == tutorID {
			out = append(out, w)
		}
	}
	slices.SortFunc(out, func(a, b scheduling.Window) int {
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek - b.DayOfWeek
		}
		return int(a.StartTime - b.StartTime)
	})
	return out, nil
}

func (s *Store) GetWindow(ctx context.Context, tutorID, windowID string) (*scheduling.Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[windowID]
	if !ok || w.TutorID != tutorID {
		return nil, fmt.Errorf("window %s: %w", windowID, scheduling.ErrNotFound)
	}
	return &w, nil
}

func (s *Store) InsertWindow(ctx context.Context, w *scheduling.Window) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tutors[w.TutorID]; !ok {
		return fmt.Errorf("tutor %s: %w", w.TutorID, scheduling.ErrNotFound)
	}
	now := s.now().UTC()
	w.CreatedAt, w.UpdatedAt = now, now
	s.windows[w.ID] = *w
	return nil
}

func (s *Store) UpdateWindow(ctx context.Context, w *scheduling.Window) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.windows[w.ID]
	if !ok || existing.TutorID != w.TutorID {
		return fmt.Errorf("window %s: %w", w.ID, scheduling.ErrNotFound)
	}
	w.CreatedAt = existing.CreatedAt
	w.UpdatedAt = s.now().UTC()
	s.windows[w.ID] = *w
	return nil
}

func (s *Store) DeleteWindow(ctx context.Context, tutorID, windowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return view{s}.DeleteWindow(ctx, tutorID, windowID)
}

func (s *Store) GetSession(ctx context.Context, id string) (*scheduling.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, scheduling.ErrNotFound)
	}
	return &sess, nil
}

func (s *Store) ListActiveSessions(ctx context.Context, tutorID string, from, to time.Time) ([]scheduling.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return view{s}.ListActiveSessions(ctx, tutorID, from, to)
}

func (s *Store) ListSessions(ctx context.Context, f scheduling.SessionFilter) ([]scheduling.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return view{s}.ListSessions(ctx, f)
}

func (s *Store) InsertSession(ctx context.Context, sess *scheduling.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return view{s}.InsertSession(ctx, sess)
}

func (s *Store) UpdateSessionStatus(ctx context.Context, id string, from, to scheduling.Status) (*scheduling.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, scheduling.ErrNotFound)
	}
	if sess.Status != from {
		return nil, fmt.Errorf("%w: session is %s", scheduling.ErrInvalidTransition, sess.Status)
	}
	sess.Status = to
	sess.UpdatedAt = s.now().UTC()
	s.sessions[id] = sess
	return &sess, nil
}

// InTx holds the store lock for the whole of fn, which serializes every
// transaction, not only those of one tutor. Writes made by fn are discarded
// when it returns an error.
func (s *Store) InTx(ctx context.Context, tutorID string, fn func(scheduling.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	windows := maps.Clone(s.windows)
	sessions := maps.Clone(s.sessions)
	if err := fn(view{s}); err != nil {
		s.windows = windows
		s.sessions = sessions
		return err
	}
	return nil
}

func (v view) ListActiveSessions(ctx context.Context, tutorID string, from, to time.Time) ([]scheduling.Session, error) {
	var out []scheduling.Session
	for _, sess := range v.s.sessions {
		if sess.TutorID != tutorID || !sess.Status.Active() {
			continue
		}
		if scheduling.Overlaps(sess.ScheduledStart, sess.ScheduledEnd, from, to) {
			out = append(out, sess)
		}
	}
	sortSessions(out)
	return out, nil
}

func (v view) ListSessions(ctx context.Context, f scheduling.SessionFilter) ([]scheduling.Session, error) {
	var out []scheduling.Session
	for _, sess := range v.s.sessions {
		if f.Match(sess) {
			out = append(out, sess)
		}
	}
	sortSessions(out)
	return out, nil
}

// InsertSession enforces the same no-overlap rule as the Postgres exclusion constraint.
func (v view) InsertSession(ctx context.Context, sess *scheduling.Session) error {
	if _, ok := v.s.tutors[sess.TutorID]; !ok {
		return fmt.Errorf("tutor %s: %w", sess.TutorID, scheduling.ErrNotFound)
	}
	if sess.Status.Active() {
		for _, other := range v.s.sessions {
			if other.TutorID == sess.TutorID && other.Status.Active() &&
				scheduling.Overlaps(sess.ScheduledStart, sess.ScheduledEnd, other.ScheduledStart, other.ScheduledEnd) {
				return fmt.Errorf("%w: overlaps session %s", scheduling.ErrSchedulingConflict, other.ID)
			}
		}
	}
	now := v.s.now().UTC()
	sess.CreatedAt, sess.UpdatedAt = now, now
	v.s.sessions[sess.ID] = *sess
	return nil
}

func (v view) DeleteWindow(ctx context.Context, tutorID, windowID string) error {
	w, ok := v.s.windows[windowID]
	if !ok || w.TutorID != tutorID {
		return fmt.Errorf("window %s: %w", windowID, scheduling.ErrNotFound)
	}
	delete(v.s.windows, windowID)
	return nil
}

func sortSessions(ss []scheduling.Session) {
	slices.SortFunc(ss, func(a, b scheduling.Session) int {
		return a.ScheduledStart.Compare(b.ScheduledStart)
	})
}
