package scheduling_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"tutorconnect/internal/scheduling"
	"tutorconnect/internal/store/memory"
)

const (
	tutorID   = "11111111-1111-4111-8111-111111111111"
	studentID = "22222222-2222-4222-8222-222222222222"
	otherID   = "33333333-3333-4333-8333-333333333333"
)

var (
	// fixedNow is Sunday 2026-03-01 08:00 UTC; monday is the day after.
	fixedNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	monday   = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
)

func clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func on(day time.Time, hh, mm int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, time.UTC)
}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	st := memory.New()
	require.NoError(t, st.UpsertTutor(context.Background(), &scheduling.Tutor{
		ID: tutorID, DisplayName: "Ada", HourlyRate: 40,
	}))
	return st
}

func addWeekly(t *testing.T, st *memory.Store, day time.Weekday, start, end string) scheduling.Window {
	t.Helper()
	w := scheduling.Window{
		ID:          uuid.NewString(),
		TutorID:     tutorID,
		DayOfWeek:   int(day),
		StartTime:   scheduling.MustClock(start),
		EndTime:     scheduling.MustClock(end),
		IsRecurring: true,
		IsAvailable: true,
	}
	require.NoError(t, st.InsertWindow(context.Background(), &w))
	return w
}

func addPinned(t *testing.T, st *memory.Store, date time.Time, start, end string) scheduling.Window {
	t.Helper()
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	w := scheduling.Window{
		ID:           uuid.NewString(),
		TutorID:      tutorID,
		DayOfWeek:    int(d.Weekday()),
		StartTime:    scheduling.MustClock(start),
		EndTime:      scheduling.MustClock(end),
		SpecificDate: &d,
		IsAvailable:  true,
	}
	require.NoError(t, st.InsertWindow(context.Background(), &w))
	return w
}

func addSession(t *testing.T, st *memory.Store, start, end time.Time, status scheduling.Status) scheduling.Session {
	t.Helper()
	s := scheduling.Session{
		ID:             uuid.NewString(),
		StudentID:      studentID,
		TutorID:        tutorID,
		ScheduledStart: start,
		ScheduledEnd:   end,
		Status:         status,
		HourlyRate:     40,
	}
	require.NoError(t, st.InsertSession(context.Background(), &s))
	return s
}

func starts(slots []scheduling.Slot) []time.Time {
	out := make([]time.Time, len(slots))
	for i, s := range slots {
		out[i] = s.Start
	}
	return out
}
