package scheduling

import (
	"context"
	"fmt"
	"time"
)

// CheckConflict rejects [start, end) when it overlaps any active session of the tutor.
// Callers that go on to insert must run it inside Store.InTx.
func CheckConflict(ctx context.Context, r SessionReader, tutorID string, start, end time.Time) error {
	if !start.Before(end) {
		return ErrInvalidInterval
	}
	sessions, err := r.ListActiveSessions(ctx, tutorID, start, end)
	if err != nil {
		return fmt.Errorf("list active sessions: %w", err)
	}
	for _, s := range sessions {
		if s.Status.Active() && Overlaps(start, end, s.ScheduledStart, s.ScheduledEnd) {
			return fmt.Errorf("%w: overlaps session %s", ErrSchedulingConflict, s.ID)
		}
	}
	return nil
}
