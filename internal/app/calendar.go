package app

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tutorconnect/internal/auth"
	"tutorconnect/internal/calendar"
)

// GET /api/calendar/auth
func (a *App) CalendarAuthHandler(c *gin.Context) {
	state := auth.UserID(c) + ":" + uuid.NewString()
	url, err := a.Calendar.AuthURL(state)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"auth_url": url,
		"state":    state,
	})
}

// GET /oauth2callback
func (a *App) OAuth2CallbackHandler(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}
	tok, err := a.Calendar.Exchange(c.Request.Context(), code)
	if errors.Is(err, calendar.ErrNotConfigured) {
		a.writeError(c, err)
		return
	}
	if err != nil {
		a.Logger.Info("OAuth2 exchange failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to exchange code for token"})
		return
	}
	// The client keeps the token and sends it back in X-Google-Token.
	tokenJSON, err := json.Marshal(tok)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Authorization successful",
		"state":   c.Query("state"),
		"token":   string(tokenJSON),
	})
}

// POST /api/sessions/:id/calendar?calendar_id=primary
func (a *App) ExportSessionHandler(c *gin.Context) {
	raw := c.GetHeader("X-Google-Token")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Google token required in X-Google-Token header"})
		return
	}
	tok, err := calendar.ParseToken(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token format"})
		return
	}

	ctx := c.Request.Context()
	sess, err := a.Scheduling.GetSession(ctx, c.Param("id"), actor(c))
	if err != nil {
		a.writeError(c, err)
		return
	}
	event, err := a.Calendar.ExportSession(ctx, tok, c.DefaultQuery("calendar_id", "primary"), *sess)
	if err != nil {
		a.writeError(c, err)
		return
	}
	a.Logger.Info("Session exported to calendar",
		zap.String("session_id", sess.ID),
		zap.String("event_id", event.Id),
	)
	c.JSON(http.StatusCreated, gin.H{
		"event_id":  event.Id,
		"html_link": event.HtmlLink,
	})
}
