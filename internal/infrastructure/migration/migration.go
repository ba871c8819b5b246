package migration

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v4/pgxpool"
)

// RunMigrations executes all necessary database migrations on startup
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("Starting database migrations")

	for _, m := range Migrations() {
		if err := m.Up(ctx, pool); err != nil {
			slog.Error("Migration failed", "name", m.Name, "error", err)
			return err
		}
		slog.Info("Migration completed", "name", m.Name)
	}

	slog.Info("All migrations completed successfully")
	return nil
}

// Migration represents a database migration
type Migration struct {
	Name string
	Up   func(ctx context.Context, pool *pgxpool.Pool) error
}

// Migrations lists the schema steps in the order they run. Every step is
// safe to repeat.
func Migrations() []Migration {
	return []Migration{
		{Name: "create_resumes", Up: execStep(createResumes)},
		{Name: "create_export_jobs", Up: execStep(createExportJobs)},
		{Name: "index_export_jobs_resume", Up: execStep(indexExportJobs)},
	}
}

const createResumes = `
	CREATE TABLE IF NOT EXISTS resumes (
		id          UUID PRIMARY KEY,
		user_id     UUID NOT NULL,
		title       TEXT NOT NULL DEFAULT '',
		template_id TEXT NOT NULL DEFAULT '',
		data        JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);
`

const createExportJobs = `
	CREATE TABLE IF NOT EXISTS export_jobs (
		id          UUID PRIMARY KEY,
		resume_id   UUID NOT NULL,
		template_id TEXT NOT NULL DEFAULT '',
		format      TEXT NOT NULL DEFAULT 'pdf',
		status      TEXT NOT NULL,
		pages       INT NOT NULL DEFAULT 0,
		metadata    JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);
`

const indexExportJobs = `
	CREATE INDEX IF NOT EXISTS export_jobs_resume_id_idx ON export_jobs (resume_id);
`

func execStep(query string) func(ctx context.Context, pool *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		_, err := pool.Exec(ctx, query)
		return err
	}
}
