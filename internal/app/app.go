package app

import (
	"go.uber.org/zap"

	"tutorconnect/internal/calendar"
	"tutorconnect/internal/scheduling"
)

// App holds the dependencies shared by the HTTP handlers.
type App struct {
	Scheduling *scheduling.Service
	// Calendar is nil when Google OAuth2 is not configured.
	Calendar *calendar.Exporter
	Logger   *zap.Logger
}

func New(svc *scheduling.Service, exporter *calendar.Exporter, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{Scheduling: svc, Calendar: exporter, Logger: logger}
}
