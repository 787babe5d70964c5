package scheduling

import (
	"context"
	"time"
)

// SessionReader is the read side shared by a Store and a Tx.
type SessionReader interface {
	// ListActiveSessions returns scheduled and in-progress sessions of the
	// tutor that overlap [from, to).
	ListActiveSessions(ctx context.Context, tutorID string, from, to time.Time) ([]Session, error)
	ListSessions(ctx context.Context, f SessionFilter) ([]Session, error)
}

// Tx is the unit of work executed under a per-tutor lock.
type Tx interface {
	SessionReader
	// InsertSession must fail with ErrSchedulingConflict when the backend itself
	// detects an overlapping active session.
	InsertSession(ctx context.Context, s *Session) error
	DeleteWindow(ctx context.Context, tutorID, windowID string) error
}

// AvailabilityReader is everything the Resolver needs.
type AvailabilityReader interface {
	GetTutor(ctx context.Context, tutorID string) (*Tutor, error)
	ListWindows(ctx context.Context, tutorID string) ([]Window, error)
	ListActiveSessions(ctx context.Context, tutorID string, from, to time.Time) ([]Session, error)
}

// Store returns ErrNotFound for missing rows.
type Store interface {
	Tx
	AvailabilityReader

	UpsertTutor(ctx context.Context, t *Tutor) error

	GetWindow(ctx context.Context, tutorID, windowID string) (*Window, error)
	InsertWindow(ctx context.Context, w *Window) error
	UpdateWindow(ctx context.Context, w *Window) error

	GetSession(ctx context.Context, id string) (*Session, error)
	// UpdateSessionStatus changes the status only if it is still from;
	// otherwise it returns ErrInvalidTransition.
	UpdateSessionStatus(ctx context.Context, id string, from, to Status) (*Session, error)

	// InTx runs fn in one transaction holding an exclusive lock on the tutor's calendar.
	InTx(ctx context.Context, tutorID string, fn func(Tx) error) error
}
