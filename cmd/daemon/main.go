// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/signaltv/signaltv/internal/api"
	"github.com/signaltv/signaltv/internal/cache"
	"github.com/signaltv/signaltv/internal/config"
	"github.com/signaltv/signaltv/internal/fetch"
	"github.com/signaltv/signaltv/internal/log"
	"github.com/signaltv/signaltv/internal/resolver"
	"github.com/signaltv/signaltv/internal/telemetry"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("signaltv %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		baseLogger := log.Base()
		baseLogger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", *configPath).
			Msg("failed to load configuration")
	}

	log.Configure(log.Config{Level: cfg.LogLevel, Service: "signaltv"})
	logger := log.WithComponent("daemon")

	logger.Info().
		Str("event", "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("addr", cfg.ListenAddr).
		Msg("starting signaltv")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		ServiceName: "signaltv",
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "telemetry.init_failed").
			Msg("failed to initialize tracing")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	store, closeStore, err := newCache(cfg)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "cache.init_failed").
			Str("redis_addr", cfg.RedisAddr).
			Msg("failed to initialize cache")
	}
	defer closeStore()

	svc := resolver.New(cfg, fetch.New(cfg.FetchTimeout), store)

	// Hot reload: edits to the source list, wanted list or config file drop
	// the cached resolution so the next request picks them up.
	watched := []string{cfg.SourcesPath, cfg.WantedPath}
	if *configPath != "" {
		watched = append(watched, *configPath)
	}
	watcher, err := config.NewWatcher(watched, func(path string) {
		logger.Info().
			Str("event", "config.reload").
			Str("path", path).
			Msg("input file changed, invalidating cache")
		svc.Invalidate()
	})
	if err != nil {
		logger.Warn().Err(err).Msg("file watcher unavailable, hot reload disabled")
	} else {
		go watcher.Run(ctx)
	}

	opts := []api.Option{api.WithVersion(version)}
	if cfg.OTLPEndpoint != "" {
		opts = append(opts, api.WithTracing())
	}
	server := api.New(cfg, svc, opts...)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("event", "http.listen").
			Str("addr", cfg.ListenAddr).
			Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Warm the cache so the first request is fast. Failures are logged and
	// retried implicitly on the next request.
	go func() {
		if _, err := svc.Channels(ctx); err != nil {
			logger.Warn().
				Err(err).
				Str("event", "resolve.warmup_failed").
				Msg("initial resolution failed, will retry on first request")
		}
	}()

	select {
	case err := <-errCh:
		logger.Fatal().
			Err(err).
			Str("event", "http.failed").
			Msg("HTTP server failed")
	case <-ctx.Done():
		logger.Info().
			Str("event", "shutdown").
			Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server exiting")
}

// newCache selects the cache backend: Redis when an address is configured,
// in-process memory otherwise.
func newCache(cfg config.Config) (cache.Cache, func(), error) {
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, log.WithComponent("cache"))
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { _ = rc.Close() }, nil
	}

	mem := cache.NewMemory(time.Minute)
	return mem, mem.Stop, nil
}
