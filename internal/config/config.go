// Package config loads server and CLI settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver    string `env:"DB_DRIVER"    envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH"  envDefault:"tracker.db"`

	JWTSecret   string        `env:"JWT_SECRET"`
	JWTIssuer   string        `env:"JWT_ISSUER"   envDefault:"tracker-suite"`
	JWTAudience string        `env:"JWT_AUDIENCE"`
	JWTTTL      time.Duration `env:"JWT_TTL"      envDefault:"24h"`
	JWTLeeway   time.Duration `env:"JWT_LEEWAY"   envDefault:"30s"`
	RefreshTTL  time.Duration `env:"REFRESH_TTL"  envDefault:"168h"`

	PasswordHasher string `env:"PASSWORD_HASHER" envDefault:"pbkdf2"`
	AdminPassword  string `env:"ADMIN_PASSWORD"  envDefault:"Admin123!"`

	Port           string   `env:"PORT"             envDefault:"50051"`
	WebPort        string   `env:"WEB_PORT"         envDefault:"8080"`
	CORSOrigins    []string `env:"CORS_ORIGINS"     envSeparator:","`
	RateLimitRPS   float64  `env:"RATE_LIMIT_RPS"   envDefault:"5"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"10"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC"   envDefault:"tracker.changes"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads files (".env" when none are given) into the environment,
// ignoring missing ones, then parses it.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.normalize()
}

// FromMap parses vars instead of the process environment.
func FromMap(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.normalize()
}

func (c *Config) normalize() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// RequireServer checks what the server needs beyond the defaults.
func (c Config) RequireServer() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.DBDriver == "postgres" && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for postgres")
	}
	return nil
}
