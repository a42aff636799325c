package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS proxy_hashes (
		name  TEXT NOT NULL,
		field TEXT NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (name, field)
	)
`

// PostgresBackend emulates the hash command set on a single SQL table.
// Each hash is the set of rows sharing a name.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

func NewPostgresBackend(ctx context.Context, dbURL string, po PoolOptions) (*PostgresBackend, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	// Fix for Supabase Transaction Pooler (PgBouncer) "prepared statement already exists" error
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	if po.Size > 0 {
		config.MaxConns = int32(po.Size)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to create pool: %w", ErrConnection, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrConnection, config.ConnConfig.Host, err)
	}
	return &PostgresBackend{pool: pool}, nil
}

// EnsureSchema creates the backing table if it does not exist.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema failed: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}

func (b *PostgresBackend) HGet(ctx context.Context, name, field string) (string, bool, error) {
	var value string
	err := b.pool.QueryRow(ctx,
		`SELECT value FROM proxy_hashes WHERE name = $1 AND field = $2`,
		name, field,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query failed: %w", err)
	}
	return value, true, nil
}

// HSet upserts the field. A row whose xmax is 0 was freshly inserted rather than updated.
func (b *PostgresBackend) HSet(ctx context.Context, name, field, value string) (bool, error) {
	var created bool
	err := b.pool.QueryRow(ctx, `
		INSERT INTO proxy_hashes (name, field, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (name, field) DO UPDATE SET value = EXCLUDED.value
		RETURNING (xmax = 0)
	`, name, field, value).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert failed: %w", err)
	}
	return created, nil
}

func (b *PostgresBackend) HDel(ctx context.Context, name, field string) (int64, error) {
	tag, err := b.pool.Exec(ctx, `DELETE FROM proxy_hashes WHERE name = $1 AND field = $2`, name, field)
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (b *PostgresBackend) HIncrBy(ctx context.Context, name, field string, delta int64) (int64, error) {
	var n int64
	err := b.pool.QueryRow(ctx, `
		INSERT INTO proxy_hashes (name, field, value)
		VALUES ($1, $2, ($3::BIGINT)::TEXT)
		ON CONFLICT (name, field) DO UPDATE SET value = (proxy_hashes.value::BIGINT + $3::BIGINT)::TEXT
		RETURNING value::BIGINT
	`, name, field, delta).Scan(&n)
	if err != nil {
		var pgErr *pgconn.PgError
		// 22P02 invalid_text_representation, 22003 numeric_value_out_of_range
		if errors.As(err, &pgErr) && (pgErr.Code == "22P02" || pgErr.Code == "22003") {
			return 0, fmt.Errorf("%w: %w", ErrNotInteger, err)
		}
		return 0, fmt.Errorf("increment failed: %w", err)
	}
	return n, nil
}

func (b *PostgresBackend) HKeys(ctx context.Context, name string) ([]string, error) {
	rows, err := b.pool.Query(ctx, `SELECT field FROM proxy_hashes WHERE name = $1`, name)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return keys, nil
}

func (b *PostgresBackend) HExists(ctx context.Context, name, field string) (bool, error) {
	var ok bool
	err := b.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM proxy_hashes WHERE name = $1 AND field = $2)`,
		name, field,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("query failed: %w", err)
	}
	return ok, nil
}

func (b *PostgresBackend) HGetAll(ctx context.Context, name string) (map[string]string, error) {
	rows, err := b.pool.Query(ctx, `SELECT field, value FROM proxy_hashes WHERE name = $1`, name)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		result[field] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return result, nil
}

func (b *PostgresBackend) HLen(ctx context.Context, name string) (int64, error) {
	var count int64
	err := b.pool.QueryRow(ctx, `SELECT COUNT(*) FROM proxy_hashes WHERE name = $1`, name).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
