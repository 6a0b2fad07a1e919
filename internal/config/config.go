package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAccessWindow  = 7 * 24 * time.Hour
	defaultRefreshWindow = 30 * 24 * time.Hour
	defaultBcryptCost    = 12
	defaultPort          = 3001
)

// Config carries every environment-provided option the service recognizes.
type Config struct {
	Port int

	AccessSecret  string
	AccessWindow  time.Duration
	RefreshSecret string
	RefreshWindow time.Duration
	BcryptCost    int

	DatabaseDSN string

	LogLevel    string
	LogFormat   string
	CORSOrigins []string
}

// Load reads a .env file when present, then resolves configuration from
// the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          defaultPort,
		AccessSecret:  os.Getenv("JWT_SECRET"),
		AccessWindow:  defaultAccessWindow,
		RefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),
		RefreshWindow: defaultRefreshWindow,
		BcryptCost:    defaultBcryptCost,
		LogLevel:      envOr("LOG_LEVEL", "info"),
		LogFormat:     envOr("LOG_FORMAT", "json"),
	}

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("config: invalid PORT %q", raw)
		}
		cfg.Port = port
	}

	if raw := os.Getenv("JWT_EXPIRES_IN"); raw != "" {
		window, err := ParseWindow(raw)
		if err != nil {
			return nil, fmt.Errorf("config: JWT_EXPIRES_IN: %w", err)
		}
		cfg.AccessWindow = window
	}
	if raw := os.Getenv("JWT_REFRESH_EXPIRES_IN"); raw != "" {
		window, err := ParseWindow(raw)
		if err != nil {
			return nil, fmt.Errorf("config: JWT_REFRESH_EXPIRES_IN: %w", err)
		}
		cfg.RefreshWindow = window
	}
	if raw := os.Getenv("BCRYPT_ROUNDS"); raw != "" {
		cost, err := strconv.Atoi(raw)
		if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("config: invalid BCRYPT_ROUNDS %q", raw)
		}
		cfg.BcryptCost = cost
	}

	cfg.DatabaseDSN = databaseDSN()

	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	return cfg, nil
}

// Validate enforces the invariants the auth subsystem relies on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AccessSecret) == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if strings.TrimSpace(c.RefreshSecret) == "" {
		return errors.New("config: JWT_REFRESH_SECRET is required")
	}
	if c.AccessSecret == c.RefreshSecret {
		return errors.New("config: JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.AccessWindow <= 0 || c.RefreshWindow <= 0 {
		return errors.New("config: token windows must be positive")
	}
	return nil
}

// ParseWindow parses a token validity window. It accepts a day suffix
// ("7d"), any unit time.ParseDuration understands ("15m", "12h30m"), or a
// bare integer of seconds ("3600"). Anything else is rejected rather
// than guessed at.
func ParseWindow(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty window")
	}
	if strings.HasSuffix(raw, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(raw, "d"))
		if err != nil || days <= 0 {
			return 0, fmt.Errorf("invalid day window %q", raw)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("invalid second window %q", raw)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid window %q", raw)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid window %q", raw)
	}
	return d, nil
}

func databaseDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	host := envOr("DATABASE_HOST", "localhost")
	port := envOr("DATABASE_PORT", "5432")
	name := envOr("DATABASE_NAME", "gcg_document_hub")
	user := envOr("DATABASE_USER", "postgres")
	password := os.Getenv("DATABASE_PASSWORD")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, name)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
