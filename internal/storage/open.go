package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// PoolOptions bounds the connection pool. Zero values keep the driver defaults.
type PoolOptions struct {
	Size    int
	Timeout time.Duration
}

func (p PoolOptions) applyRedis(opts *redis.Options) {
	if p.Size > 0 {
		opts.PoolSize = p.Size
	}
	if p.Timeout > 0 {
		opts.PoolTimeout = p.Timeout
	}
}

// Open builds a Client from a connection URL. The scheme selects the backend:
// redis, rediss and ssdb use the Redis protocol; postgres and postgresql use a SQL table.
func Open(ctx context.Context, dsn, table string, pool PoolOptions) (*Client, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid connection url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "redis", "rediss", "ssdb":
		if strings.EqualFold(u.Scheme, "ssdb") {
			u.Scheme = "redis"
		}
		opts, err := redis.ParseURL(u.String())
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		pool.applyRedis(opts)
		b, err := NewRedisBackend(ctx, opts)
		if err != nil {
			return nil, err
		}
		return New(table, b), nil

	case "postgres", "postgresql":
		b, err := NewPostgresBackend(ctx, dsn, pool)
		if err != nil {
			return nil, err
		}
		if err := b.EnsureSchema(ctx); err != nil {
			_ = b.Close()
			return nil, err
		}
		return New(table, b), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}
