package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"tracker-suite/internal/repository"
	"tracker-suite/internal/repository/repotest"
)

func TestSQLiteBackendContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Backend {
		s, err := OpenSQLite(context.Background(), ":memory:")
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestSQLiteFileBackendContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Backend {
		path := filepath.Join(t.TempDir(), "tracker.db")
		s, err := OpenSQLite(context.Background(), path)
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestPostgresBackendContract(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	defer pool.Close()

	p := NewPostgres(pool)
	if err := p.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repotest.Run(t, func(t *testing.T) repository.Backend {
		if _, err := pool.Exec(ctx, `DELETE FROM entities WHERE kind = 'contract_notes'`); err != nil {
			t.Fatalf("clean: %v", err)
		}
		return p
	})
}

func TestMigrateIsRepeatable(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()
	if err := s.Migrate(ctx); err != nil {
		t.Errorf("second migrate: %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		driver  string
		path    string
		wantErr bool
	}{
		{"memory", "memory", "", false},
		{"sqlite", "sqlite", ":memory:", false},
		{"sqlite without path", "sqlite", "", true},
		{"postgres without url", "postgres", "", true},
		{"unknown", "oracle", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Open(ctx, tt.driver, "", tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			b.Close()
		})
	}
}

func TestMigrationFiles(t *testing.T) {
	for _, dialect := range []string{"postgres", "sqlite"} {
		scripts, err := migrationFiles(dialect)
		if err != nil {
			t.Fatalf("%s: %v", dialect, err)
		}
		if len(scripts) == 0 {
			t.Errorf("%s: no migrations embedded", dialect)
		}
	}
	if _, err := migrationFiles("oracle"); err == nil {
		t.Error("expected error for unknown dialect")
	}
}

func TestIsConstraintError(t *testing.T) {
	if isConstraintError(errors.New("boom")) {
		t.Error("plain error treated as constraint violation")
	}
	if isConstraintError(nil) {
		t.Error("nil treated as constraint violation")
	}
}
