package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tracker-suite/internal/repository"
)

const uniqueViolation = "23505"

// Postgres is a repository.Backend over a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to url, pings it and applies migrations.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	if url == "" {
		return nil, errors.New("DATABASE_URL is required for postgres")
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	p := NewPostgres(pool)
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgres wraps an existing pool. The caller owns migrations.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Migrate(ctx context.Context) error {
	scripts, err := migrationFiles("postgres")
	if err != nil {
		return err
	}
	for _, s := range scripts {
		if _, err := p.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context, kind, tenant string) ([]repository.Record, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, tenant_id, body::text FROM entities
		 WHERE kind = $1 AND ($2 = '' OR tenant_id = $2)
		 ORDER BY id`, kind, tenant,
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

func (p *Postgres) Get(ctx context.Context, kind, tenant, id string) (repository.Record, error) {
	r := repository.Record{Kind: kind, ID: id}
	var body string
	err := p.pool.QueryRow(ctx,
		`SELECT tenant_id, body::text FROM entities
		 WHERE kind = $1 AND id = $2 AND ($3 = '' OR tenant_id = $3)`, kind, id, tenant,
	).Scan(&r.Tenant, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, repository.ErrNotFound
	}
	if err != nil {
		return r, err
	}
	r.Body = []byte(body)
	return r, nil
}

// Apply writes changes in a single transaction.
func (p *Postgres) Apply(ctx context.Context, changes []repository.Change) (int, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	n := 0
	for _, c := range changes {
		affected, err := applyPostgres(ctx, tx, c)
		if err != nil {
			return 0, err
		}
		n += affected
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return n, nil
}

func applyPostgres(ctx context.Context, tx pgx.Tx, c repository.Change) (int, error) {
	r := c.Record
	var (
		tag pgconn.CommandTag
		err error
	)
	switch c.Op {
	case repository.OpInsert:
		tag, err = tx.Exec(ctx,
			`INSERT INTO entities (kind, id, tenant_id, body) VALUES ($1,$2,$3,$4::jsonb)`,
			r.Kind, r.ID, r.Tenant, string(r.Body),
		)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, fmt.Errorf("%s %s: %w", r.Kind, r.ID, repository.ErrDuplicateKey)
		}
	case repository.OpUpdate:
		tag, err = tx.Exec(ctx,
			`UPDATE entities SET body = $4::jsonb, updated_at = NOW()
			 WHERE kind = $1 AND id = $2 AND ($3 = '' OR tenant_id = $3)`,
			r.Kind, r.ID, r.Tenant, string(r.Body),
		)
	case repository.OpDelete:
		tag, err = tx.Exec(ctx,
			`DELETE FROM entities WHERE kind = $1 AND id = $2 AND ($3 = '' OR tenant_id = $3)`,
			r.Kind, r.ID, r.Tenant,
		)
	default:
		return 0, fmt.Errorf("unknown op %d", c.Op)
	}
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, fmt.Errorf("%s %s: %w", r.Kind, r.ID, repository.ErrNotFound)
	}
	return int(tag.RowsAffected()), nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
