// Package store holds the database backends behind repository.Backend.
//
// Every entity kind lives in one generic table, entities(kind, id,
// tenant_id, body), with the body stored as a JSON document.
package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"tracker-suite/internal/repository"
)

//go:embed sql
var migrations embed.FS

// Drivers accepted by [Open].
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Open returns the backend for driver. url is used by postgres, path by
// sqlite. Migrations are applied before returning.
func Open(ctx context.Context, driver, url, path string) (repository.Backend, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres, "":
		return OpenPostgres(ctx, url)
	case DriverSQLite:
		return OpenSQLite(ctx, path)
	case DriverMemory:
		return repository.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown db driver %q", driver)
}

// migrationFiles returns the SQL scripts for dialect in name order.
func migrationFiles(dialect string) ([]string, error) {
	dir := "sql/" + dialect
	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, n := range names {
		b, err := fs.ReadFile(migrations, dir+"/"+n)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", n, err)
		}
		out = append(out, string(b))
	}
	return out, nil
}
