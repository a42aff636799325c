package storage

import (
	"context"
	"errors"
)

var (
	// ErrConnection is returned when the store cannot be reached at construction.
	ErrConnection = errors.New("store unreachable")

	// ErrNotInteger is returned by HIncrBy when the stored value is not numeric.
	ErrNotInteger = errors.New("hash value is not an integer")

	// ErrUnsupportedScheme is returned by Open for unknown connection URL schemes.
	ErrUnsupportedScheme = errors.New("unsupported connection scheme")
)

// Backend is the hash command set a Client is built on.
// Every method is a single round trip to the store.
type Backend interface {
	// HGet returns the value of field in hash name. ok is false if the field is absent.
	HGet(ctx context.Context, name, field string) (value string, ok bool, err error)

	// HSet sets field to value. created reports whether the field was new.
	HSet(ctx context.Context, name, field, value string) (created bool, err error)

	// HDel removes field and returns the number of fields actually removed (0 or 1).
	HDel(ctx context.Context, name, field string) (int64, error)

	// HIncrBy adds delta to the numeric value of field and returns the new value.
	// A missing field counts as 0.
	HIncrBy(ctx context.Context, name, field string, delta int64) (int64, error)

	// HKeys lists every field in hash name.
	HKeys(ctx context.Context, name string) ([]string, error)

	// HExists reports whether field is present.
	HExists(ctx context.Context, name, field string) (bool, error)

	// HGetAll returns the whole hash.
	HGetAll(ctx context.Context, name string) (map[string]string, error)

	// HLen returns the number of fields in hash name.
	HLen(ctx context.Context, name string) (int64, error)

	Close() error
}
