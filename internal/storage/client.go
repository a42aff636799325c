package storage

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"

	"proxystore/internal/model"
)

// Client runs hash operations against the currently selected table.
// A Client is safe for concurrent use. Calls are never coordinated with each other.
type Client struct {
	backend Backend
	table   atomic.Pointer[string]
}

// New wraps backend and selects table.
func New(table string, backend Backend) *Client {
	c := &Client{backend: backend}
	c.ChangeTable(table)
	return c
}

// Table returns the name of the table operations currently target.
func (c *Client) Table() string {
	return *c.table.Load()
}

// ChangeTable points subsequent operations at another table. Nothing is created or deleted.
func (c *Client) ChangeTable(name string) {
	c.table.Store(&name)
}

// Close releases the backend's connections.
func (c *Client) Close() error {
	return c.backend.Close()
}

// Get returns the value stored for key. ok is false if key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := c.backend.HGet(ctx, c.Table(), key)
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, ok, nil
}

// Put sets key to value and reports whether key was newly created.
func (c *Client) Put(ctx context.Context, key, value string) (bool, error) {
	created, err := c.backend.HSet(ctx, c.Table(), key, value)
	if err != nil {
		return false, fmt.Errorf("put %s: %w", key, err)
	}
	return created, nil
}

// Add puts key with the default health score.
func (c *Client) Add(ctx context.Context, key string) (bool, error) {
	return c.Put(ctx, key, model.DefaultScore)
}

// Delete removes key. Removing an absent key is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	if _, err := c.backend.HDel(ctx, c.Table(), key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Update atomically adds delta to the numeric value of key.
func (c *Client) Update(ctx context.Context, key string, delta int64) error {
	if _, err := c.backend.HIncrBy(ctx, c.Table(), key, delta); err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}
	return nil
}

// Pop removes a uniformly random key from the table and returns it with its value.
// It returns nil when the table is empty.
//
// Pop is not atomic: selection, read and delete are separate round trips, and
// the number of fields the delete removed decides which caller owns the key.
// A caller whose delete removes nothing selects again, so a key another caller
// already took is never returned twice. Value is nil only when the field was
// deleted before the read and added again before the delete.
func (c *Client) Pop(ctx context.Context) (*model.Entry, error) {
	name := c.Table()
	for {
		keys, err := c.backend.HKeys(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("pop: %w", err)
		}
		if len(keys) == 0 {
			return nil, nil
		}

		proxy := keys[rand.Intn(len(keys))]
		value, ok, err := c.backend.HGet(ctx, name, proxy)
		if err != nil {
			return nil, fmt.Errorf("pop %s: %w", proxy, err)
		}

		removed, err := c.backend.HDel(ctx, name, proxy)
		if err != nil {
			return nil, fmt.Errorf("pop %s: %w", proxy, err)
		}
		if removed == 0 {
			slog.Debug("Pop lost race, selecting again", "table", name, "proxy", proxy)
			continue
		}

		entry := &model.Entry{Proxy: proxy}
		if ok {
			entry.Value = &value
		}
		return entry, nil
	}
}

// Exists reports whether key is in the table.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := c.backend.HExists(ctx, c.Table(), key)
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", key, err)
	}
	return ok, nil
}

// GetAll loads the entire table into memory.
func (c *Client) GetAll(ctx context.Context) (map[string]string, error) {
	all, err := c.backend.HGetAll(ctx, c.Table())
	if err != nil {
		return nil, fmt.Errorf("get all: %w", err)
	}
	return all, nil
}

// GetSize returns the number of entries in the table.
func (c *Client) GetSize(ctx context.Context) (int64, error) {
	n, err := c.backend.HLen(ctx, c.Table())
	if err != nil {
		return 0, fmt.Errorf("get size: %w", err)
	}
	return n, nil
}
