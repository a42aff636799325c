package loader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"proxystore/internal/model"
)

// Store is the subset of the storage client the loader writes through.
type Store interface {
	Put(ctx context.Context, key, value string) (bool, error)
}

// Parse reads one "ip:port" per line. Blank lines, comments and malformed lines are skipped.
func Parse(r io.Reader) ([]*model.Proxy, error) {
	var proxies []*model.Proxy
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		p, err := model.ParseAddress(line)
		if err != nil {
			slog.Debug("Skipping line", "line", line, "error", err)
			continue
		}
		proxies = append(proxies, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan error: %w", err)
	}

	return proxies, nil
}

// Result counts what Load wrote.
type Result struct {
	Parsed  int `json:"parsed"`
	Created int `json:"created"`
}

// Load puts every proxy read from r into store with value.
func Load(ctx context.Context, store Store, r io.Reader, value string) (*Result, error) {
	proxies, err := Parse(r)
	if err != nil {
		return nil, err
	}

	res := &Result{Parsed: len(proxies)}
	for _, p := range proxies {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		created, err := store.Put(ctx, p.Address(), value)
		if err != nil {
			return res, fmt.Errorf("load %s: %w", p.Address(), err)
		}
		if created {
			res.Created++
		}
	}
	return res, nil
}

// LoadFile is Load reading from path; "-" means stdin.
func LoadFile(ctx context.Context, store Store, path, value string) (*Result, error) {
	if path == "-" {
		return Load(ctx, store, os.Stdin, value)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Load(ctx, store, f, value)
}
