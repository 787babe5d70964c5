package app

import (
	"fmt"
	"time"

	"tutorconnect/internal/scheduling"
)

const dateLayout = "2006-01-02"

type upsertTutorReq struct {
	DisplayName string   `json:"display_name" binding:"required,max=200"`
	HourlyRate  *float64 `json:"hourly_rate" binding:"required,gte=0"`
}

// windowReq is one availability window as posted by a tutor. Times are "HH:MM".
type windowReq struct {
	DayOfWeek    *int   `json:"day_of_week" binding:"omitempty,min=0,max=6"`
	StartTime    string `json:"start_time" binding:"required"`
	EndTime      string `json:"end_time" binding:"required"`
	IsRecurring  *bool  `json:"is_recurring"`
	SpecificDate string `json:"specific_date" binding:"omitempty,datetime=2006-01-02"`
	IsAvailable  *bool  `json:"is_available"`
}

func (r windowReq) toWindow() (scheduling.Window, error) {
	var w scheduling.Window
	start, err := scheduling.ParseClock(r.StartTime)
	if err != nil {
		return w, fmt.Errorf("%w: start_time: %v", scheduling.ErrValidation, err)
	}
	end, err := scheduling.ParseClock(r.EndTime)
	if err != nil {
		return w, fmt.Errorf("%w: end_time: %v", scheduling.ErrValidation, err)
	}
	w.StartTime, w.EndTime = start, end

	w.IsAvailable = true
	if r.IsAvailable != nil {
		w.IsAvailable = *r.IsAvailable
	}

	if r.SpecificDate != "" {
		date, err := time.Parse(dateLayout, r.SpecificDate)
		if err != nil {
			return w, fmt.Errorf("%w: specific_date must be YYYY-MM-DD", scheduling.ErrValidation)
		}
		w.SpecificDate = &date
		return w, nil
	}

	w.IsRecurring = true
	if r.IsRecurring != nil {
		w.IsRecurring = *r.IsRecurring
	}
	if r.DayOfWeek == nil {
		return w, fmt.Errorf("%w: day_of_week is required for a weekly window", scheduling.ErrValidation)
	}
	w.DayOfWeek = *r.DayOfWeek
	return w, nil
}

type bookSessionReq struct {
	TutorID        string    `json:"tutorId" binding:"required,uuid"`
	SubjectID      string    `json:"subjectId" binding:"omitempty,max=100"`
	ScheduledStart time.Time `json:"scheduledStart" binding:"required"`
	ScheduledEnd   time.Time `json:"scheduledEnd" binding:"required"`
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required,oneof=scheduled in_progress completed cancelled"`
}
