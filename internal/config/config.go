package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env             string
	HTTPPort        string
	StoreBackend    string
	DatabaseURL     string
	AutoMigrate     bool
	JWTIssuer       string
	JWTSigningKey   string
	AccessTTL       time.Duration
	StaticTokens    []string
	RedisAddr       string
	RateLimitPerMin int
	Timezone        string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"

	devSigningKey = "dev-signing-secret-change"
)

// Load reads an optional .env file, then the environment. A missing .env is
// not an error; the returned bool reports whether one was loaded.
func Load() (App, bool) {
	loaded := godotenv.Load(".env") == nil

	port := getEnv("HTTP_PORT", "")
	if port == "" {
		port = getEnv("PORT", "8080")
	}

	return App{
		Env:                getEnv("APP_ENV", "development"),
		HTTPPort:           port,
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		AutoMigrate:        boolEnv("AUTO_MIGRATE", false),
		JWTIssuer:          getEnv("JWT_ISSUER", "tutorconnect"),
		JWTSigningKey:      getEnv("JWT_SIGNING_KEY", devSigningKey),
		AccessTTL:          durationEnv("ACCESS_TTL", 24*time.Hour),
		StaticTokens:       listEnv("STATIC_TOKENS"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RateLimitPerMin:    intEnv("RATE_LIMIT_PER_MIN", 120),
		Timezone:           getEnv("SCHEDULE_TIMEZONE", "UTC"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
	}, loaded
}

func (c App) Production() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Location resolves the zone availability windows are expressed in.
func (c App) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("SCHEDULE_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c App) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if c.Production() && (c.JWTSigningKey == "" || c.JWTSigningKey == devSigningKey) {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
	}
	if c.RateLimitPerMin < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MIN must not be negative"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func listEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
