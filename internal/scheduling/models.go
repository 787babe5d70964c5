package scheduling

import (
	"encoding/json"
	"time"
)

const dateLayout = "2006-01-02"

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Active sessions block their interval on the tutor's calendar.
func (s Status) Active() bool {
	return s == StatusScheduled || s == StatusInProgress
}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusScheduled:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a session may move from one status to another.
// Completed and cancelled are terminal.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Tutor struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	HourlyRate  float64   `json:"hourly_rate"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Window is a block of time a tutor is open for booking: weekly when
// SpecificDate is nil, otherwise pinned to that calendar date.
type Window struct {
	ID           string     `json:"id"`
	TutorID      string     `json:"tutor_id"`
	DayOfWeek    int        `json:"day_of_week"`
	StartTime    ClockTime  `json:"start_time"`
	EndTime      ClockTime  `json:"end_time"`
	IsRecurring  bool       `json:"is_recurring"`
	SpecificDate *time.Time `json:"specific_date,omitempty"`
	IsAvailable  bool       `json:"is_available"`
	CreatedAt    time.Time  `json:"created_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at,omitempty"`
}

// Matches reports whether the window applies to the calendar day of date.
func (w Window) Matches(date time.Time) bool {
	if w.SpecificDate != nil {
		y1, m1, d1 := w.SpecificDate.Date()
		y2, m2, d2 := date.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	}
	return int(date.Weekday()) == w.DayOfWeek
}

// On returns the concrete interval the window covers on the day of date.
func (w Window) On(date time.Time, loc *time.Location) Interval {
	return Interval{Start: w.StartTime.On(date, loc), End: w.EndTime.On(date, loc)}
}

// Covers reports whether an interval touching a day the window applies to
// overlaps the window on that day.
func (w Window) Covers(iv Interval, loc *time.Location) bool {
	day := iv.Start.In(loc)
	if !w.Matches(day) {
		return false
	}
	return w.On(day, loc).Overlaps(iv)
}

type Session struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"student_id"`
	TutorID        string    `json:"tutor_id"`
	SubjectID      string    `json:"subject_id,omitempty"`
	ScheduledStart time.Time `json:"scheduled_start"`
	ScheduledEnd   time.Time `json:"scheduled_end"`
	Status         Status    `json:"status"`
	HourlyRate     float64   `json:"hourly_rate"`
	PaymentAmount  float64   `json:"payment_amount"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

func (s Session) Interval() Interval {
	return Interval{Start: s.ScheduledStart, End: s.ScheduledEnd}
}

// SessionFilter bounds are applied to scheduled_start; zero times are unbounded.
type SessionFilter struct {
	TutorID    string
	StudentID  string
	From       time.Time
	To         time.Time
	ActiveOnly bool
}

// Match is the in-process form of the filter, shared by stores that filter in Go.
func (f SessionFilter) Match(s Session) bool {
	if f.TutorID != "" && s.TutorID != f.TutorID {
		return false
	}
	if f.StudentID != "" && s.StudentID != f.StudentID {
		return false
	}
	if !f.From.IsZero() && s.ScheduledStart.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !s.ScheduledStart.Before(f.To) {
		return false
	}
	if f.ActiveOnly && !s.Status.Active() {
		return false
	}
	return true
}

// Slot is a computed bookable interval. It is never persisted.
type Slot struct {
	Start    time.Time
	End      time.Time
	Duration int
}

type slotJSON struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Duration  int    `json:"duration"`
}

func (s Slot) MarshalJSON() ([]byte, error) {
	return json.Marshal(slotJSON{
		Date:      s.Start.Format(dateLayout),
		StartTime: s.Start.Format("15:04"),
		EndTime:   s.End.Format("15:04"),
		Duration:  s.Duration,
	})
}
