package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisBackend serves the hash command set from Redis or any server speaking
// its protocol (SSDB included).
type RedisBackend struct {
	rdb *redis.Client
}

// NewRedisBackend connects with opts and pings the server once.
func NewRedisBackend(ctx context.Context, opts *redis.Options) (*RedisBackend, error) {
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrConnection, opts.Addr, err)
	}
	return &RedisBackend{rdb: rdb}, nil
}

// Dial builds a Client on a Redis-protocol server at host:port, selecting table.
// The pool blocks callers once all connections are in use, for up to pool.Timeout.
func Dial(ctx context.Context, table, host string, port int, pool PoolOptions) (*Client, error) {
	opts := &redis.Options{Addr: net.JoinHostPort(host, strconv.Itoa(port))}
	pool.applyRedis(opts)

	b, err := NewRedisBackend(ctx, opts)
	if err != nil {
		return nil, err
	}
	return New(table, b), nil
}

func (b *RedisBackend) HGet(ctx context.Context, name, field string) (string, bool, error) {
	v, err := b.rdb.HGet(ctx, name, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (b *RedisBackend) HSet(ctx context.Context, name, field, value string) (bool, error) {
	n, err := b.rdb.HSet(ctx, name, field, value).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (b *RedisBackend) HDel(ctx context.Context, name, field string) (int64, error) {
	return b.rdb.HDel(ctx, name, field).Result()
}

func (b *RedisBackend) HIncrBy(ctx context.Context, name, field string, delta int64) (int64, error) {
	n, err := b.rdb.HIncrBy(ctx, name, field, delta).Result()
	if err != nil {
		return 0, incrError(err)
	}
	return n, nil
}

// incrError maps the server's non-numeric and overflow replies to ErrNotInteger.
func incrError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "not an integer") || strings.Contains(msg, "overflow") {
		return fmt.Errorf("%w: %w", ErrNotInteger, err)
	}
	return err
}

func (b *RedisBackend) HKeys(ctx context.Context, name string) ([]string, error) {
	return b.rdb.HKeys(ctx, name).Result()
}

func (b *RedisBackend) HExists(ctx context.Context, name, field string) (bool, error) {
	return b.rdb.HExists(ctx, name, field).Result()
}

func (b *RedisBackend) HGetAll(ctx context.Context, name string) (map[string]string, error) {
	return b.rdb.HGetAll(ctx, name).Result()
}

func (b *RedisBackend) HLen(ctx context.Context, name string) (int64, error) {
	return b.rdb.HLen(ctx, name).Result()
}

func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}
