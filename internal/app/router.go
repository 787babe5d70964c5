package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tutorconnect/internal/auth"
	"tutorconnect/internal/httpmiddleware"
)

type RouterConfig struct {
	Tokens       *auth.TokenService
	StaticTokens []string
	// Limiter is optional; nil disables rate limiting.
	Limiter httpmiddleware.Limiter
	// Health reports backing store health for /healthz.
	Health func(ctx context.Context) error
}

func NewRouter(a *App, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(httpmiddleware.Recovery(a.Logger))
	r.Use(httpmiddleware.RequestLogger(a.Logger))
	r.Use(httpmiddleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		if cfg.Health != nil {
			if err := cfg.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "db": false})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": true})
	})
	r.GET("/oauth2callback", a.OAuth2CallbackHandler)

	api := r.Group("/api")
	if cfg.Limiter != nil {
		api.Use(httpmiddleware.RateLimit(cfg.Limiter, a.Logger))
	}
	api.Use(auth.Middleware(cfg.Tokens, cfg.StaticTokens))

	tutors := api.Group("/tutors")
	tutors.PUT("/me", auth.RequireRole(auth.RoleTutor), a.UpsertTutorHandler)
	tutors.GET("/:id", a.GetTutorHandler)
	tutors.GET("/:id/availability", a.ListAvailabilityHandler)
	tutors.POST("/:id/availability", a.CreateAvailabilityHandler)
	tutors.PUT("/:id/availability/:windowId", a.UpdateAvailabilityHandler)
	tutors.DELETE("/:id/availability/:windowId", a.DeleteAvailabilityHandler)
	tutors.GET("/:id/slots", a.GetSlotsHandler)

	sessions := api.Group("/sessions")
	sessions.POST("", auth.RequireRole(auth.RoleStudent), a.BookSessionHandler)
	sessions.GET("", a.ListSessionsHandler)
	sessions.GET("/:id", a.GetSessionHandler)
	sessions.PATCH("/:id/status", a.UpdateSessionStatusHandler)
	sessions.POST("/:id/calendar", a.ExportSessionHandler)

	api.GET("/calendar/auth", a.CalendarAuthHandler)

	return r
}
