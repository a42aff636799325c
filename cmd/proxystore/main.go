package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"proxystore/configs"
	"proxystore/internal/model"
	"proxystore/internal/storage"
)

func main() {
	table := flag.String("table", "", "hash table to operate on (overrides TABLE_NAME)")
	value := flag.String("value", model.DefaultScore, "value written by load")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	// 1. Setup Logger (stdout carries command output)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// 2. Load Config
	cfg, err := configs.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *table != "" {
		cfg.TableName = *table
	}

	// 3. Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Interrupted")
		cancel()
	}()

	// 4. Init Storage
	client, err := storage.Open(ctx, cfg.DBConn, cfg.TableName, storage.PoolOptions{
		Size:    cfg.PoolSize,
		Timeout: cfg.PoolTimeout,
	})
	if err != nil {
		slog.Error("Failed to connect to store", "error", err)
		os.Exit(1)
	}
	defer client.Close()
	slog.Info("Connected to store", "table", client.Table(), "pool_size", cfg.PoolSize)

	// 5. Run command
	if err := run(ctx, client, flag.Args(), *value, os.Stdout); err != nil {
		slog.Error("Command failed", "table", cfg.TableName, "error", err)
		client.Close()
		os.Exit(1)
	}
}
