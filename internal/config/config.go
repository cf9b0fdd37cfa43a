package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the ascii-web content service.
type Config struct {
	DBPath        string
	DatabaseURL   string
	ServerPort    int
	LogLevel      string
	SentryDSN     string
	Environment   string
	ShutdownGrace time.Duration

	AuthURL       string
	AuthAnonKey   string
	AdminEmail    string
	AdminPassword string
}

const (
	defaultDBPath        = "./data/content.db"
	defaultServerPort    = 8080
	defaultLogLevel      = "info"
	defaultShutdownGrace = 10 * time.Second
)

// Load reads configuration values from environment variables, applying defaults where
// necessary. AUTH_URL and ADMIN_EMAIL have no sensible defaults: without them no request
// can ever be authorized, so their absence is a configuration error.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:        getEnv("DB_PATH", defaultDBPath),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		LogLevel:      getEnv("LOG_LEVEL", defaultLogLevel),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		Environment:   os.Getenv("ENV"),
		ShutdownGrace: defaultShutdownGrace,
		AuthURL:       os.Getenv("AUTH_URL"),
		AuthAnonKey:   os.Getenv("AUTH_ANON_KEY"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.AuthURL == "" {
		return nil, eris.New("AUTH_URL environment variable is required")
	}

	if cfg.AdminEmail == "" {
		return nil, eris.New("ADMIN_EMAIL environment variable is required")
	}

	portValue := getEnv("SERVER_PORT", strconv.Itoa(defaultServerPort))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
