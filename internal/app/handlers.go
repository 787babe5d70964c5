package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"tutorconnect/internal/auth"
	"tutorconnect/internal/scheduling"
)

// PUT /api/tutors/me
func (a *App) UpsertTutorHandler(c *gin.Context) {
	var req upsertTutorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	t, err := a.Scheduling.UpsertTutor(c.Request.Context(), scheduling.Tutor{
		ID:          auth.UserID(c),
		DisplayName: req.DisplayName,
		HourlyRate:  *req.HourlyRate,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// GET /api/tutors/:id
func (a *App) GetTutorHandler(c *gin.Context) {
	t, err := a.Scheduling.GetTutor(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// canEditAvailability allows the tutor themself and privileged callers.
func canEditAvailability(c *gin.Context) bool {
	return auth.Privileged(c) || auth.UserID(c) == c.Param("id")
}

// POST /api/tutors/:id/availability
// Accepts a single window or a list of windows.
func (a *App) CreateAvailabilityHandler(c *gin.Context) {
	if !canEditAvailability(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the tutor may change their availability"})
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		writeBindError(c, err)
		return
	}

	var reqs []windowReq
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &reqs)
	} else {
		var one windowReq
		err = json.Unmarshal(trimmed, &one)
		reqs = []windowReq{one}
	}
	if err != nil {
		writeBindError(c, err)
		return
	}

	windows := make([]scheduling.Window, 0, len(reqs))
	for i := range reqs {
		if err := binding.Validator.ValidateStruct(&reqs[i]); err != nil {
			writeBindError(c, err)
			return
		}
		w, err := reqs[i].toWindow()
		if err != nil {
			a.writeError(c, err)
			return
		}
		windows = append(windows, w)
	}

	saved, err := a.Scheduling.CreateWindows(c.Request.Context(), c.Param("id"), windows)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// GET /api/tutors/:id/availability
func (a *App) ListAvailabilityHandler(c *gin.Context) {
	windows, err := a.Scheduling.ListWindows(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, windows)
}

// PUT /api/tutors/:id/availability/:windowId
func (a *App) UpdateAvailabilityHandler(c *gin.Context) {
	if !canEditAvailability(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the tutor may change their availability"})
		return
	}
	var req windowReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	w, err := req.toWindow()
	if err != nil {
		a.writeError(c, err)
		return
	}
	updated, err := a.Scheduling.UpdateWindow(c.Request.Context(), c.Param("id"), c.Param("windowId"), w)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DELETE /api/tutors/:id/availability/:windowId
func (a *App) DeleteAvailabilityHandler(c *gin.Context) {
	if !canEditAvailability(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the tutor may change their availability"})
		return
	}
	if err := a.Scheduling.DeleteWindow(c.Request.Context(), c.Param("id"), c.Param("windowId")); err != nil {
		a.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/tutors/:id/slots?date=YYYY-MM-DD
// GET /api/tutors/:id/slots?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD&duration=60
func (a *App) GetSlotsHandler(c *gin.Context) {
	loc := a.Scheduling.Location()

	var from, to time.Time
	if date := c.Query("date"); date != "" {
		d, err := time.ParseInLocation(dateLayout, date, loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		from, to = d, d
	} else {
		startStr, endStr := c.Query("startDate"), c.Query("endDate")
		if startStr == "" || endStr == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date or startDate and endDate required (YYYY-MM-DD)"})
			return
		}
		var err error
		if from, err = time.ParseInLocation(dateLayout, startStr, loc); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDate"})
			return
		}
		if to, err = time.ParseInLocation(dateLayout, endStr, loc); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endDate"})
			return
		}
	}

	duration := 0
	if s := c.Query("duration"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "duration must be a number of minutes"})
			return
		}
		duration = n
	}

	slots, err := a.Scheduling.ResolveSlots(c.Request.Context(), scheduling.ResolveRequest{
		TutorID:         c.Param("id"),
		From:            from,
		To:              to,
		DurationMinutes: duration,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}
