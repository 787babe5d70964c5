package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"tutorconnect/internal/calendar"
	"tutorconnect/internal/scheduling"
)

// conflictMessage is the client-facing text for a rejected booking.
const conflictMessage = "Tutor is not available at the requested time."

// writeError maps service errors onto status codes. Anything unrecognised is
// logged and reported as a generic 500.
func (a *App) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduling.ErrSchedulingConflict):
		c.JSON(http.StatusBadRequest, gin.H{"error": conflictMessage})
	case errors.Is(err, scheduling.ErrValidation),
		errors.Is(err, scheduling.ErrInvalidInterval),
		errors.Is(err, scheduling.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, scheduling.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, scheduling.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, scheduling.ErrSlotInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, calendar.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Calendar not configured"})
	default:
		a.Logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// writeBindError reports a malformed or invalid request body, listing the
// failing fields when the validator produced them.
func writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": details})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}
