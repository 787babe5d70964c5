package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tutorconnect/internal/auth"
	"tutorconnect/internal/scheduling"
)

func actor(c *gin.Context) scheduling.Actor {
	return scheduling.Actor{ID: auth.UserID(c), Privileged: auth.Privileged(c)}
}

// POST /api/sessions
func (a *App) BookSessionHandler(c *gin.Context) {
	var req bookSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	sess, err := a.Scheduling.BookSession(c.Request.Context(), scheduling.BookRequest{
		StudentID: auth.UserID(c),
		TutorID:   req.TutorID,
		SubjectID: req.SubjectID,
		Start:     req.ScheduledStart,
		End:       req.ScheduledEnd,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// GET /api/sessions?role=student|tutor&from=RFC3339&to=RFC3339
// Privileged callers pass userId to list on behalf of someone else.
func (a *App) ListSessionsHandler(c *gin.Context) {
	userID := auth.UserID(c)
	if auth.Privileged(c) {
		if q := c.Query("userId"); q != "" {
			userID = q
		}
	}
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId required"})
		return
	}

	role := c.DefaultQuery("role", auth.Role(c))
	var f scheduling.SessionFilter
	switch role {
	case auth.RoleTutor:
		f.TutorID = userID
	case auth.RoleStudent:
		f.StudentID = userID
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be student or tutor"})
		return
	}

	var err error
	if s := c.Query("from"); s != "" {
		if f.From, err = time.Parse(time.RFC3339, s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return
		}
	}
	if s := c.Query("to"); s != "" {
		if f.To, err = time.Parse(time.RFC3339, s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return
		}
	}
	f.ActiveOnly = c.Query("active") == "true"

	sessions, err := a.Scheduling.ListSessions(c.Request.Context(), f)
	if err != nil {
		a.writeError(c, err)
		return
	}
	if sessions == nil {
		sessions = []scheduling.Session{}
	}
	c.JSON(http.StatusOK, sessions)
}

// GET /api/sessions/:id
func (a *App) GetSessionHandler(c *gin.Context) {
	sess, err := a.Scheduling.GetSession(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

// PATCH /api/sessions/:id/status
func (a *App) UpdateSessionStatusHandler(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	sess, err := a.Scheduling.UpdateStatus(c.Request.Context(), c.Param("id"), actor(c), scheduling.Status(req.Status))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}
