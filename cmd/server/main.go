package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "resume-preview/internal/adapter/http"
	repo "resume-preview/internal/adapter/repository"
	"resume-preview/internal/config"
	"resume-preview/internal/infrastructure/migration"
	"resume-preview/internal/pagination"
	"resume-preview/internal/usecase"
	infra "resume-preview/pkg/infrastructure"

	"github.com/gofiber/fiber/v2"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stores
	var (
		resumes usecase.ResumeStore
		exports usecase.ExportStore
	)
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := migration.RunMigrations(ctx, pool); err != nil {
			return err
		}
		resumes, exports = repo.NewResumeRepo(pool), repo.NewExportRepo(pool)
	} else {
		log.Warn("DATABASE_URL not set, resumes are kept in memory")
		mem := repo.NewMemoryStore()
		resumes, exports = mem.Resumes(), mem.Exports()
	}

	cache := infra.NewTieredCache(ctx, cfg.RedisURL, cfg.CacheTTL, cfg.CacheMaxEntries, log)
	defer cache.Close()

	// chrome measures preview blocks and prints pdf exports
	var (
		measurer interface {
			pagination.Measurer
			Open() int
		}
		renderer usecase.Renderer
	)
	browser, err := infra.NewBrowser(context.Background(), cfg.ChromePath)
	switch {
	case err == nil:
		defer browser.Close()
		renderer = infra.NewChromedpRenderer(browser)
	case cfg.Measurer == config.MeasurerChrome:
		return errors.Join(errors.New("chrome is required for MEASURER=chrome"), err)
	default:
		log.Warn("chrome not available, pdf printing disabled", "error", err)
		renderer = unavailableRenderer{err}
	}
	if cfg.Measurer == config.MeasurerMetrics {
		measurer = infra.NewMetricsMeasurer()
	} else {
		measurer = infra.NewChromeMeasurer(browser)
	}
	log.Info("pagination measurer", "kind", cfg.Measurer)

	previews := usecase.NewPreviewService(measurer, cache, log)
	exporter := usecase.NewExporter(previews, renderer, infra.NewFlowExporter(), resumes, exports, usecase.ExporterConfig{
		OutputDir: cfg.OutputDir,
		Attempts:  cfg.RenderAttempts,
		Backoff:   500 * time.Millisecond,
	}, log)

	app := fiber.New()
	httpadapter.NewHandler(previews, exporter, resumes, exports, log).Register(app)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err = <-listenErr:
	case <-ctx.Done():
		log.Info("shutting down")
		err = app.ShutdownWithTimeout(10 * time.Second)
	}

	hits, misses := cache.Stats()
	log.Info("cache stats", "hits", hits, "misses", misses)
	if n := measurer.Open(); n > 0 {
		log.Warn("layout probes still attached at shutdown", "open", n)
	}
	return err
}

type unavailableRenderer struct{ err error }

func (r unavailableRenderer) RenderHTMLToPDF(context.Context, string) ([]byte, error) {
	return nil, r.err
}
