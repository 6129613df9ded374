package app

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/lorikeetchat/lorikeet/pkg/jwtx"
)

type Config struct {
	Issuer        string // Optional: issuer claim for tokens (default: lorikeet-identity)
	Secret        string // Required: master secret the HMAC signing key derives from
	InternalToken string // Required: token the app presents to the mint endpoint

	AccessTTL  time.Duration // Optional: access token lifetime (default: 30 days)
	RefreshTTL time.Duration // Optional: refresh token lifetime (default: 90 days)
	TicketTTL  time.Duration // Optional: SSO ticket lifetime (default: 60s)
	Leeway     time.Duration // Optional: clock skew allowance when verifying (default: 0)

	ProtectedPrefixes []string // Optional: path prefixes the guard protects
	PublicRoot        string   // Optional: where unauthenticated traffic lands (default: /)
	LandingPath       string   // Optional: where authenticated traffic lands (default: /app)
	FallbackPath      string   // Optional: SSO fingerprint-mismatch destination (default: /)

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./identity.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

// LoadConfig reads configuration from the environment, with a local
// .env file merged in first if one exists.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Issuer:        getEnvOrDefault("IDENTITY_ISSUER", "lorikeet-identity"),
		Secret:        os.Getenv("IDENTITY_SECRET"),
		InternalToken: os.Getenv("IDENTITY_INTERNAL_TOKEN"),

		AccessTTL:  getEnvDurationOrDefault("IDENTITY_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("IDENTITY_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		TicketTTL:  getEnvDurationOrDefault("IDENTITY_TICKET_TTL", jwtx.DefaultTicketTTL),
		Leeway:     getEnvDurationOrDefault("IDENTITY_LEEWAY", 0),

		PublicRoot:   getEnvOrDefault("IDENTITY_PUBLIC_ROOT", "/"),
		LandingPath:  getEnvOrDefault("IDENTITY_LANDING_PATH", "/app"),
		FallbackPath: getEnvOrDefault("IDENTITY_FALLBACK_PATH", "/"),

		DatabaseFile:         getEnvOrDefault("IDENTITY_DATABASE_FILE", "identity.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	cfg.ProtectedPrefixes = []string{"/app", "/v1/messages", "/v1/files"}
	if raw := os.Getenv("IDENTITY_PROTECTED_PREFIXES"); raw != "" {
		cfg.ProtectedPrefixes = nil
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.ProtectedPrefixes = append(cfg.ProtectedPrefixes, p)
			}
		}
	}

	if cfg.Secret == "" {
		return Config{}, errors.New("IDENTITY_SECRET is required")
	}
	if cfg.InternalToken == "" {
		return Config{}, errors.New("IDENTITY_INTERNAL_TOKEN is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are taken as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
