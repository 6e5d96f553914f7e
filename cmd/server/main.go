package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/slidegest/internal/api"
	"github.com/dgallion1/slidegest/internal/cache"
	"github.com/dgallion1/slidegest/internal/config"
	"github.com/dgallion1/slidegest/internal/content"
	"github.com/dgallion1/slidegest/internal/courses"
	"github.com/dgallion1/slidegest/internal/logging"
	"github.com/dgallion1/slidegest/internal/slides"
	"github.com/dgallion1/slidegest/internal/treebuild"
)

const cleanupInterval = 5 * time.Minute

func main() {
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Content service client.
	docCache := cache.NewMemory[string, string](cfg.ContentCacheTTL)
	go docCache.RunCleanup(ctx, cleanupInterval)
	stats := content.NewFetchStats(cfg.StatsWindow)
	docs := content.NewClient(cfg.ContentURL, content.Options{
		Timeout: cfg.FetchTimeout,
		Retries: cfg.FetchRetries,
		Backoff: cfg.FetchBackoff,
		Cache:   docCache,
		Stats:   stats,
		Logger:  log,
	})

	// Courses.
	defs, err := courses.LoadDefinitions(cfg.CoursesFile)
	if err != nil {
		log.Error("loading course definitions", "error", err)
		os.Exit(1)
	}
	loader := &courses.Loader{
		Docs:    docs,
		Builder: treebuild.NewBuilder(docs, log, cfg.BuildConcurrency),
		TreeDir: cfg.TreeDir,
		Log:     log,
	}
	start := time.Now()
	reg, err := loader.LoadAll(ctx, defs)
	if err != nil {
		log.Error("loading courses", "error", err)
		os.Exit(1)
	}
	log.Info("courses ready", "count", len(defs), "elapsed", time.Since(start).String())

	slideStore := cache.NewMemory[slides.CacheKey, []slides.Slide](cfg.SlideCacheTTL)
	go slideStore.RunCleanup(ctx, cleanupInterval)

	srv := api.NewServer(reg, slides.NewCache(slideStore), stats, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		docs.Close()
	}()

	log.Info("starting slidegest", "port", cfg.Port, "content_url", cfg.ContentURL)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
