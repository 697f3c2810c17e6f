package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := FromMap(map[string]string{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.DBDriver != "postgres" || cfg.Port != "50051" || cfg.WebPort != "8080" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.JWTTTL != 24*time.Hour || cfg.JWTLeeway != 30*time.Second || cfg.RefreshTTL != 168*time.Hour {
		t.Errorf("unexpected durations %v %v %v", cfg.JWTTTL, cfg.JWTLeeway, cfg.RefreshTTL)
	}
	if cfg.RateLimitRPS != 5 || cfg.RateLimitBurst != 10 {
		t.Errorf("unexpected rate limit %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.LogLevel != "info" || cfg.PasswordHasher != "pbkdf2" {
		t.Errorf("unexpected %q %q", cfg.LogLevel, cfg.PasswordHasher)
	}
}

func TestFromMap(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr bool
		check   func(t *testing.T, c Config)
	}{
		{
			name: "lists and driver case",
			vars: map[string]string{"DB_DRIVER": " SQLite ", "KAFKA_BROKERS": "a:9092,b:9092", "CORS_ORIGINS": "https://x"},
			check: func(t *testing.T, c Config) {
				if c.DBDriver != "sqlite" || len(c.KafkaBrokers) != 2 || len(c.CORSOrigins) != 1 {
					t.Errorf("got %+v", c)
				}
			},
		},
		{name: "unknown driver", vars: map[string]string{"DB_DRIVER": "oracle"}, wantErr: true},
		{name: "bad duration", vars: map[string]string{"JWT_TTL": "soon"}, wantErr: true},
		{name: "zero burst", vars: map[string]string{"RATE_LIMIT_BURST": "0"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := FromMap(tt.vars)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			tt.check(t, c)
		})
	}
}

func TestRequireServer(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"no secret", Config{DBDriver: "memory"}, true},
		{"postgres without url", Config{DBDriver: "postgres", JWTSecret: "s"}, true},
		{"sqlite", Config{DBDriver: "sqlite", JWTSecret: "s"}, false},
		{"postgres", Config{DBDriver: "postgres", JWTSecret: "s", DatabaseURL: "postgres://x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.RequireServer(); (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("TRACKER_TEST_UNUSED=1\nWEB_PORT=9999\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("WEB_PORT", "")
	os.Unsetenv("WEB_PORT")
	t.Cleanup(func() { os.Unsetenv("TRACKER_TEST_UNUSED") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WebPort != "9999" {
		t.Errorf("expected WEB_PORT from file, got %q", cfg.WebPort)
	}
}
