// Package config reads service settings from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Measurer backends. Chrome lays blocks out with the template stylesheet;
// metrics is a browser-free estimate and must be chosen explicitly.
const (
	MeasurerChrome  = "chrome"
	MeasurerMetrics = "metrics"
)

type Config struct {
	Port            string
	DatabaseURL     string
	RedisURL        string
	CacheTTL        time.Duration
	CacheMaxEntries int
	Measurer        string
	ChromePath      string
	OutputDir       string
	RenderAttempts  int
	LogLevel        slog.Level
}

// Load reads the environment. Values that fail to parse keep their default
// and are reported at warn level.
func Load() Config {
	return load(os.Getenv, slog.Default())
}

func load(getenv func(string) string, log *slog.Logger) Config {
	c := Config{
		Port:            "3000",
		CacheTTL:        15 * time.Minute,
		CacheMaxEntries: 500,
		Measurer:        MeasurerChrome,
		OutputDir:       "resume-data",
		RenderAttempts:  3,
		LogLevel:        slog.LevelInfo,
	}

	if v := getenv("PORT"); v != "" {
		c.Port = v
	}
	c.DatabaseURL = getenv("DATABASE_URL")
	c.RedisURL = getenv("REDIS_URL")
	c.ChromePath = getenv("CHROME_PATH")
	if v := getenv("OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}

	if v := getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.CacheTTL = d
		} else {
			log.Warn("config: invalid CACHE_TTL, using default", "value", v, "default", c.CacheTTL)
		}
	}
	if v := getenv("CACHE_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CacheMaxEntries = n
		} else {
			log.Warn("config: invalid CACHE_MAX_ENTRIES, using default", "value", v, "default", c.CacheMaxEntries)
		}
	}
	if v := getenv("RENDER_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RenderAttempts = n
		} else {
			log.Warn("config: invalid RENDER_ATTEMPTS, using default", "value", v, "default", c.RenderAttempts)
		}
	}
	if v := strings.ToLower(getenv("MEASURER")); v != "" {
		switch v {
		case MeasurerChrome, MeasurerMetrics:
			c.Measurer = v
		default:
			log.Warn("config: unknown MEASURER, using default", "value", v, "default", c.Measurer)
		}
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			c.LogLevel = lvl
		} else {
			log.Warn("config: invalid LOG_LEVEL, using default", "value", v)
		}
	}
	return c
}
