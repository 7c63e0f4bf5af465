package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskpad/internal/config"
	"taskpad/internal/debug"
	"taskpad/internal/logging"
	"taskpad/internal/metrics"
	"taskpad/internal/storage"
	"taskpad/internal/store"
	"taskpad/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.ResolveConfigPath(), "path to config.toml")
	debugAddr := flag.String("debug-addr", "", "serve the debug inspector on this address (overrides config)")
	logLevel := flag.String("log-level", "", "log level (overrides config)")
	flag.Parse()

	cfg, err := config.LoadOrCreate(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *debugAddr != "" {
		cfg.Debug.Addr = *debugAddr
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	base, closeLog, err := logging.Open(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	}, os.Stderr)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()
	logger, _ := logging.WithSession(base)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := storage.Open(ctx, storage.Config{
		Backend:       cfg.Storage.Backend,
		DBPath:        cfg.Storage.DBPath,
		Dir:           cfg.Storage.Dir,
		RedisAddr:     cfg.Storage.RedisAddr,
		RedisPrefix:   cfg.Storage.RedisPrefix,
		MaxValueBytes: cfg.Storage.MaxValueBytes,
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer kv.Close()
	logger.Info("storage opened", "backend", cfg.Storage.Backend, "key", cfg.Storage.Key)

	filter, err := store.ParseFilter(cfg.DefaultFilter)
	if err != nil {
		return err
	}
	m := metrics.New()
	tasks := store.New(kv,
		store.WithKey(cfg.Storage.Key),
		store.WithLogger(logger),
		store.WithMetrics(m),
		store.WithTimeout(cfg.Storage.Timeout()),
		store.WithFilter(filter),
	)

	waitDebug := func() error { return nil }
	if cfg.Debug.Addr != "" {
		srv := debug.NewServer(cfg.Debug.Addr, debug.NewRouter(tasks, m.Handler()), logger)
		waitDebug = srv.Start(ctx)
	}

	uiErr := ui.Run(tasks, cfg)
	stop()
	if err := waitDebug(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("debug server failed", "err", err)
	}
	if uiErr != nil {
		return fmt.Errorf("run ui: %w", uiErr)
	}
	if st := tasks.SaveStatus(); st.Unsaved {
		fmt.Fprintf(os.Stderr, "warning: last changes were not saved: %v\n", st.LastError)
	}
	return nil
}
