package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tutorconnect/internal/app"
	"tutorconnect/internal/auth"
	"tutorconnect/internal/calendar"
	"tutorconnect/internal/httpmiddleware"
	"tutorconnect/internal/server"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply database migrations before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := setup(ctx)
	if err != nil {
		return err
	}
	defer d.Close()
	cfg, logger := d.cfg, d.logger

	if serveMigrate || cfg.AutoMigrate {
		if _, err := d.migrate(ctx); err != nil {
			return err
		}
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	exporter := calendar.New(calendar.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
	if exporter == nil {
		logger.Info("Google Calendar export disabled")
	}

	var limiter httpmiddleware.Limiter
	if cfg.RateLimitPerMin > 0 {
		if cfg.RedisAddr != "" {
			client := httpmiddleware.NewRedisClient(cfg.RedisAddr)
			defer client.Close()
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("Redis unreachable, rate limiter will fail open", zap.Error(err))
			}
			limiter = httpmiddleware.NewRedisLimiter(client, cfg.RateLimitPerMin)
		} else {
			limiter = httpmiddleware.NewMemoryLimiter(cfg.RateLimitPerMin)
		}
	}

	var health func(context.Context) error
	if d.pool != nil {
		health = d.pool.Ping
	}

	router := app.NewRouter(app.New(d.service(), exporter, logger), app.RouterConfig{
		Tokens:       auth.NewTokenService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.AccessTTL),
		StaticTokens: cfg.StaticTokens,
		Limiter:      limiter,
		Health:       health,
	})

	return server.Run(ctx, server.Addr(cfg.HTTPPort), router, logger)
}
