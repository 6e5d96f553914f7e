package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Content service
	ContentURL   string
	FetchTimeout time.Duration
	FetchRetries int
	FetchBackoff time.Duration
	StatsWindow  time.Duration

	// Courses
	CoursesFile      string
	TreeDir          string
	BuildConcurrency int

	// Caches (0 = keep for the life of the process)
	ContentCacheTTL time.Duration
	SlideCacheTTL   time.Duration

	LogLevel string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		ContentURL:   os.Getenv("CONTENT_URL"),
		FetchTimeout: envDuration("FETCH_TIMEOUT", 20*time.Second),
		FetchRetries: envInt("FETCH_RETRIES", 5),
		FetchBackoff: envDuration("FETCH_BACKOFF", 1*time.Second),
		StatsWindow:  envDuration("FETCH_STATS_WINDOW", 1*time.Hour),

		CoursesFile:      envOr("COURSES_FILE", "courses.yaml"),
		TreeDir:          envOr("TREE_DIR", "trees"),
		BuildConcurrency: envInt("BUILD_CONCURRENCY", 8),

		ContentCacheTTL: envDuration("CONTENT_CACHE_TTL", 0),
		SlideCacheTTL:   envDuration("SLIDE_CACHE_TTL", 0),

		LogLevel: envOr("LOG_LEVEL", "info"),
	}

	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 20 * time.Second
	}
	if cfg.FetchRetries <= 0 {
		cfg.FetchRetries = 5
	}
	if cfg.FetchBackoff < 0 {
		cfg.FetchBackoff = 1 * time.Second
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}
	if cfg.BuildConcurrency <= 0 {
		cfg.BuildConcurrency = 8
	}
	if cfg.ContentCacheTTL < 0 {
		cfg.ContentCacheTTL = 0
	}
	if cfg.SlideCacheTTL < 0 {
		cfg.SlideCacheTTL = 0
	}

	return cfg
}

func (c Config) Validate() error {
	if c.ContentURL == "" {
		return fmt.Errorf("CONTENT_URL is required")
	}
	u, err := url.Parse(c.ContentURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("CONTENT_URL must be an absolute URL, got %q", c.ContentURL)
	}
	if c.CoursesFile == "" {
		return fmt.Errorf("COURSES_FILE is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
