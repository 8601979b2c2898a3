package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"mercari_watch/internal/config"
	"mercari_watch/internal/mercari"
	"mercari_watch/internal/notifier"
	"mercari_watch/internal/scheduler"
	"mercari_watch/internal/storage"
)

func main() {
	proc, err := config.LoadProcess()
	if err != nil {
		slog.Error("load process settings", "error", err)
		os.Exit(1)
	}

	log := newLogger(proc.LogLevel)

	store, err := openStore(proc)
	if err != nil {
		log.Error("open dedup store", "driver", proc.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	client, err := mercari.New(&http.Client{Timeout: 30 * time.Second}, log)
	if err != nil {
		log.Error("create search client", "error", err)
		os.Exit(1)
	}

	n := notifier.New(notifier.NewTelegram(), proc.ItemBaseURL, proc.SendRate)
	sched := scheduler.New(config.NewSource(proc.ConfigPath), client, store, n, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting watcher", "config", proc.ConfigPath, "store", proc.StoreDriver)

	if err := sched.Run(ctx); err != nil {
		log.Error("watcher stopped", "error", err)
		_ = store.Close()
		os.Exit(1)
	}

	log.Info("watcher stopped")
}

func openStore(proc *config.Process) (storage.Storage, error) {
	if proc.StoreDriver != config.DriverSQLite {
		return storage.NewFileLog(proc.FoundLog), nil
	}
	if dir := filepath.Dir(proc.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}
	return storage.NewSQLite(proc.DatabasePath)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
