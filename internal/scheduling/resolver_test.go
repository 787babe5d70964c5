package scheduling_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorconnect/internal/scheduling"
)

func resolve(t *testing.T, r *scheduling.Resolver, from, to time.Time, duration int) []scheduling.Slot {
	t.Helper()
	slots, err := r.Resolve(context.Background(), scheduling.ResolveRequest{
		TutorID: tutorID, From: from, To: to, DurationMinutes: duration,
	})
	require.NoError(t, err)
	return slots
}

func TestResolveSingleWindow(t *testing.T) {
	st := newStore(t)
	addWeekly(t, st, time.Monday, "09:00", "10:00")
	r := scheduling.NewResolver(st, time.UTC, clock(fixedNow), nil)

	slots := resolve(t, r, monday, monday, 60)

	require.Len(t, slots, 1)
	assert.True(t, slots[0].Start.Equal(on(monday, 9, 0)))
	assert.True(t, slots[0].End.Equal(on(monday, 10, 0)))
	assert.Equal(t, 60, slots[0].Duration)
}

func TestResolveBookedSlot(t *testing.T) {
	st := newStore(t)
	addWeekly(t, st, time.Monday, "09:00", "10:00")
	addSession(t, st, on(monday, 9, 0), on(monday, 10, 0), scheduling.StatusScheduled)
	r := scheduling.NewResolver(st, time.UTC, clock(fixedNow), nil)

	assert.Empty(t, resolve(t, r, monday, monday, 60))
}

func TestResolveExcludesOverlapsOnly(t *testing.T) {
	st := newStore(t)
	addWeekly(t, st, time.Monday, "09:00", "12:00")
	addSession(t, st, on(monday, 10, 0), on(monday, 10, 30), scheduling.StatusScheduled)
	r := scheduling.NewResolver(st, time.UTC, clock(fixedNow), nil)

	slots := resolve(t, r, monday, monday, 30)

	want := []time.Time{
		on(monday, 9, 0), on(monday, 9, 15), on(monday, 9, 30),
		on(monday, 10, 30), on(monday, 10, 45), on(monday, 11, 0), on(monday, 11, 15), on(monday, 11, 30),
	}
	assert.Equal(t, want, starts(slots))
	for _, s := range slots {
		assert.False(t, s.End.After(on(monday, 12, 0)), "slot must fit inside the window")
		assert.False(t, scheduling.Overlaps(s.Start, s.End, on(monday, 10, 0), on(monday, 10, 30)))
	}
}

func TestResolveAbuttingSessionsDoNotBlock(t *testing.T) {
	st := newStore(t)
	addWeekly(t, st, time.Monday, "09:00", "12:00")
	addSession(t, st, on(monday, 10, 0), on(monday, 11, 0), scheduling.StatusInProgress)
	r := scheduling.NewResolver(st, time.UTC, clock(fixedNow), nil)

	slots := resolve(t, r, monday, monday, 60)

	// 09:00 ends exactly when the session starts; 11:00 starts exactly when it ends.
	assert.Equal(t, []time.Time{on(monday, 9, 0), on(monday, 11, 0)}, starts(slots))
}

func TestResolveIgnoresInactiveSessions(t *testing.T) {
	st := newStore(t)
	addWeekly(t, st, time.Monday, "09:00", "10:00")
	addSession(t, st, on(monday, 9, 0), on(monday, 10, 0), scheduling.StatusCancelled)
	addSession(t, st, on(monday, 9, 0), on(monday, 10, 0), scheduling.StatusCompleted)
	r := scheduling.NewResolver(st, time.UTC, clock(fixedNow), nil)

	assert.Len(t, resolve(t, r, monday, monday, 60), 1)
}

func TestResolveExcludesPastStarts(t *testing.T) {
	st := newStore(t)
	addWeekly(t, st, time.Monday, "09:00", "11:00")
	r := scheduling.NewResolver(st, time.UTC, clock(on(monday, 9, 20)), nil)

	slots := resolve(t, r, monday, monday, 60)

	assert.Equal(t, []time.Time{on(monday, 9, 30), on(monday, 9, 45), on(monday, 10, 0)}, starts(slots))
}

func TestResolveStartEqualToNowIsExcluded(t *testing.T) {
	st := newStore(t)
	addWeekly(t, st, time.Monday, "09:00", "10:15")
	r := scheduling.NewResolver(st, time.UTC, clock(on(monday, 9, 0)), nil)

	assert.Equal(t, []time.Time{on(monday, 9, 15)}, starts(resolve(t, r, monday, monday, 60)))
}

func TestResolveIsIdempotent(t *testing.T) {
	st := newStore(t)
	addWeekly(t, st, time.Monday, "09:00", "12:00")
	addWeekly(t, st, time.Wednesday, "14:00", "16:00")
	addSession(t, st, on(monday, 10, 0), on(monday, 11, 0), scheduling.StatusScheduled)
	r := scheduling.NewResolver(st, time.UTC, clock(fixedNow), nil)

	first := resolve(t, r, monday, monday.AddDate(0, 0, 6), 45)
	second := resolve(t, r, monday, monday.AddDate(0, 0, 6), 45)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestResolveMultiDayOrdering(t *testing.T) {
	st := newStore(t)
	wednesday := monday.AddDate(0, 0, 2)
	addWeekly(t, st, time.Wednesday, "08:00", "09:00")
	addWeekly(t, st, time.Monday, "15:00", "16:00")
	addWeekly(t, st, time.Monday, "09:00", "10:00")
	r := scheduling.NewResolver(st, time.UTC, clock(fixedNow), nil)

	slots := resolve(t, r, monday, wednesday, 60)

	assert.Equal(t, []time.Time{on(monday, 9, 0), on(monday, 15, 0), on(wednesday, 8, 0)}, starts(slots))
}

func TestResolveDuplicateWindowsYieldDuplicateSlots(t *testing.T) {
	st := newStore(t)
	addWeekly(t, st, time.Monday, "09:00", "10:00")
	addWeekly(t, st, time.Monday, "09:00", "10:00")
	r := scheduling.NewResolver(st, time.UTC, clock(fixedNow), nil)

	assert.Len(t, resolve(t, r, monday, monday, 60), 2)
}

func TestResolvePinnedAndUnavailableWindows(t *testing.T) {
	st := newStore(t)
	tuesday := monday.AddDate(0, 0, 1)
	addPinned(t, st, tuesday, "13:00", "14:00")
	w := addWeekly(t, st, time.Monday, "09:00", "10:00")
	w.IsAvailable = false
	require.NoError(t, st.UpdateWindow(context.Background(), &w))
	r := scheduling.NewResolver(st, time.UTC, clock(fixedNow), nil)

	week := resolve(t, r, monday, monday.AddDate(0, 0, 13), 60)
	assert.Equal(t, []time.Time{on(tuesday, 13, 0)}, starts(week), "pinned window applies only on its date")
}

func TestResolveInLocation(t *testing.T) {
	st := newStore(t)
	addWeekly(t, st, time.Monday, "09:00", "10:00")
	loc := time.FixedZone("UTC+3", 3*3600)
	r := scheduling.NewResolver(st, loc, clock(fixedNow), nil)

	slots := resolve(t, r, time.Date(2026, 3, 2, 0, 0, 0, 0, loc), time.Date(2026, 3, 2, 0, 0, 0, 0, loc), 60)

	require.Len(t, slots, 1)
	assert.True(t, slots[0].Start.Equal(time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)))
}

func TestResolveDefaultsDuration(t *testing.T) {
	st := newStore(t)
	addWeekly(t, st, time.Monday, "09:00", "10:00")
	r := scheduling.NewResolver(st, time.UTC, clock(fixedNow), nil)

	slots := resolve(t, r, monday, monday, 0)
	require.Len(t, slots, 1)
	assert.Equal(t, scheduling.DefaultDurationMinutes, slots[0].Duration)
}

func TestResolveRejectsBadRequests(t *testing.T) {
	st := newStore(t)
	r := scheduling.NewResolver(st, time.UTC, clock(fixedNow), nil)

	tests := []struct {
		name    string
		req     scheduling.ResolveRequest
		wantErr error
	}{
		{"duration too short", scheduling.ResolveRequest{TutorID: tutorID, From: monday, To: monday, DurationMinutes: 10}, scheduling.ErrValidation},
		{"duration too long", scheduling.ResolveRequest{TutorID: tutorID, From: monday, To: monday, DurationMinutes: 24*60 + 15}, scheduling.ErrValidation},
		{"end before start", scheduling.ResolveRequest{TutorID: tutorID, From: monday, To: monday.AddDate(0, 0, -1)}, scheduling.ErrValidation},
		{"range too long", scheduling.ResolveRequest{TutorID: tutorID, From: monday, To: monday.AddDate(0, 0, scheduling.MaxRangeDays)}, scheduling.ErrValidation},
		{"unknown tutor", scheduling.ResolveRequest{TutorID: otherID, From: monday, To: monday}, scheduling.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := r.Resolve(context.Background(), scheduling.ResolveRequest{
		TutorID: tutorID, From: monday, To: monday.AddDate(0, 0, scheduling.MaxRangeDays-1),
	})
	assert.NoError(t, err, "a range of exactly MaxRangeDays days is allowed")
}
