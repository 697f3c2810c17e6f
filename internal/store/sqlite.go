package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"tracker-suite/internal/repository"
)

// SQLite is a repository.Backend over a single-file database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens path (":memory:" for a throwaway database) and applies
// migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("SQLITE_PATH is required for sqlite")
	}
	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	s := &SQLite{db: db}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Migrate(ctx context.Context) error {
	scripts, err := migrationFiles("sqlite")
	if err != nil {
		return err
	}
	for _, script := range scripts {
		if _, err := s.db.ExecContext(ctx, script); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, kind, tenant string) ([]repository.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, body FROM entities
		 WHERE kind = ? AND (? = '' OR tenant_id = ?)
		 ORDER BY id`, kind, tenant, tenant,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.Record
	for rows.Next() {
		r := repository.Record{Kind: kind}
		var body string
		if err := rows.Scan(&r.ID, &r.Tenant, &body); err != nil {
			return nil, err
		}
		r.Body = []byte(body)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) Get(ctx context.Context, kind, tenant, id string) (repository.Record, error) {
	r := repository.Record{Kind: kind, ID: id}
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT tenant_id, body FROM entities
		 WHERE kind = ? AND id = ? AND (? = '' OR tenant_id = ?)`, kind, id, tenant, tenant,
	).Scan(&r.Tenant, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return r, repository.ErrNotFound
	}
	if err != nil {
		return r, err
	}
	r.Body = []byte(body)
	return r, nil
}

func (s *SQLite) Apply(ctx context.Context, changes []repository.Change) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().UTC().UnixMilli()
	n := 0
	for _, c := range changes {
		affected, err := applySQLite(ctx, tx, c, now)
		if err != nil {
			return 0, err
		}
		n += affected
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

func applySQLite(ctx context.Context, tx *sql.Tx, c repository.Change, now int64) (int, error) {
	r := c.Record
	var (
		res sql.Result
		err error
	)
	switch c.Op {
	case repository.OpInsert:
		res, err = tx.ExecContext(ctx,
			`INSERT INTO entities (kind, id, tenant_id, body, created_at, updated_at) VALUES (?,?,?,?,?,?)`,
			r.Kind, r.ID, r.Tenant, string(r.Body), now, now,
		)
		if isConstraintError(err) {
			return 0, fmt.Errorf("%s %s: %w", r.Kind, r.ID, repository.ErrDuplicateKey)
		}
	case repository.OpUpdate:
		res, err = tx.ExecContext(ctx,
			`UPDATE entities SET body = ?, updated_at = ?
			 WHERE kind = ? AND id = ? AND (? = '' OR tenant_id = ?)`,
			string(r.Body), now, r.Kind, r.ID, r.Tenant, r.Tenant,
		)
	case repository.OpDelete:
		res, err = tx.ExecContext(ctx,
			`DELETE FROM entities WHERE kind = ? AND id = ? AND (? = '' OR tenant_id = ?)`,
			r.Kind, r.ID, r.Tenant, r.Tenant,
		)
	default:
		return 0, fmt.Errorf("unknown op %d", c.Op)
	}
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, fmt.Errorf("%s %s: %w", r.Kind, r.ID, repository.ErrNotFound)
	}
	return int(affected), nil
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
