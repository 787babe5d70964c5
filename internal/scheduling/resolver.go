package scheduling

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tutorconnect/internal/metrics"
)

const (
	DefaultDurationMinutes = 60
	MinDurationMinutes     = 15
	// MaxRangeDays caps how many calendar days one request may expand.
	MaxRangeDays = 31
)

// ResolveRequest carries calendar dates; only the year, month and day of From and To are used.
type ResolveRequest struct {
	TutorID         string
	From            time.Time
	To              time.Time
	DurationMinutes int
}

// Resolver turns a tutor's windows into bookable slots.
type Resolver struct {
	store  AvailabilityReader
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

func NewResolver(store AvailabilityReader, loc *time.Location, now func() time.Time, logger *zap.Logger) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: store, loc: loc, now: now, logger: logger}
}

// Resolve computes surviving candidate slots sorted by date then start time.
// It only reads; its result may be stale against a concurrent booking.
func (r *Resolver) Resolve(ctx context.Context, req ResolveRequest) ([]Slot, error) {
	started := time.Now()

	if req.DurationMinutes == 0 {
		req.DurationMinutes = DefaultDurationMinutes
	}
	if req.DurationMinutes < MinDurationMinutes {
		return nil, fmt.Errorf("%w: duration must be at least %d minutes", ErrValidation, MinDurationMinutes)
	}
	if req.DurationMinutes > 24*60 {
		return nil, fmt.Errorf("%w: duration must not exceed one day", ErrValidation)
	}

	first := r.day(req.From)
	last := r.day(req.To)
	if last.Before(first) {
		return nil, fmt.Errorf("%w: end date is before start date", ErrValidation)
	}
	if days := dayCount(first, last); days > MaxRangeDays {
		return nil, fmt.Errorf("%w: range spans %d days, at most %d allowed", ErrValidation, days, MaxRangeDays)
	}

	if _, err := r.store.GetTutor(ctx, req.TutorID); err != nil {
		return nil, fmt.Errorf("get tutor: %w", err)
	}

	rangeEnd := last.AddDate(0, 0, 1)
	var (
		windows  []Window
		sessions []Session
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		windows, err = r.store.ListWindows(gctx, req.TutorID)
		if err != nil {
			return fmt.Errorf("list windows: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sessions, err = r.store.ListActiveSessions(gctx, req.TutorID, first, rangeEnd)
		if err != nil {
			return fmt.Errorf("list active sessions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(windows, func(a, b Window) int { return int(a.StartTime - b.StartTime) })

	duration := time.Duration(req.DurationMinutes) * time.Minute
	now := r.now()
	out := []Slot{}
	for day := first; day.Before(rangeEnd); day = day.AddDate(0, 0, 1) {
		for _, w := range windows {
			if !w.IsAvailable || !w.Matches(day) {
				continue
			}
			for start := range StartPoints(w.On(day, r.loc), duration, SlotStep) {
				end := start.Add(duration)
				if !start.After(now) {
					continue
				}
				if overlapsAny(start, end, sessions) {
					continue
				}
				out = append(out, Slot{Start: start, End: end, Duration: req.DurationMinutes})
			}
		}
	}
	slices.SortStableFunc(out, func(a, b Slot) int { return a.Start.Compare(b.Start) })

	metrics.SlotResolveDuration.Observe(time.Since(started).Seconds())
	metrics.SlotsReturned.Observe(float64(len(out)))
	r.logger.Debug("slots resolved",
		zap.String("tutor_id", req.TutorID),
		zap.String("from", first.Format(dateLayout)),
		zap.String("to", last.Format(dateLayout)),
		zap.Int("duration", req.DurationMinutes),
		zap.Int("windows", len(windows)),
		zap.Int("sessions", len(sessions)),
		zap.Int("slots", len(out)),
	)
	return out, nil
}

// day is midnight of t's calendar date in the resolver's location.
func (r *Resolver) day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.loc)
}

// dayCount counts calendar days in [first, last]; rounding absorbs DST shifts.
func dayCount(first, last time.Time) int {
	return int(math.Round(last.Sub(first).Hours()/24)) + 1
}

func overlapsAny(start, end time.Time, sessions []Session) bool {
	for _, s := range sessions {
		if s.Status.Active() && Overlaps(start, end, s.ScheduledStart, s.ScheduledEnd) {
			return true
		}
	}
	return false
}
