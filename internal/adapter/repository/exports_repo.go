package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"resume-preview/internal/domain"
)

type ExportRepo struct {
	pool *pgxpool.Pool
}

func NewExportRepo(pool *pgxpool.Pool) *ExportRepo {
	return &ExportRepo{pool: pool}
}

func (r *ExportRepo) Save(ctx context.Context, j *domain.ExportJob) error {
	if r.pool == nil {
		return errors.New("export repo: no database")
	}

	metaB, _ := json.Marshal(j.Metadata)

	_, err := r.pool.Exec(ctx, `INSERT INTO export_jobs (id, resume_id, template_id, format, status, pages, metadata, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET template_id = EXCLUDED.template_id, format = EXCLUDED.format, status = EXCLUDED.status, pages = EXCLUDED.pages, metadata = EXCLUDED.metadata, updated_at = EXCLUDED.updated_at`,
		j.ID, j.ResumeID, j.TemplateID, j.Format, j.Status, j.Pages, metaB, j.CreatedAt, j.UpdatedAt)
	return err
}

func (r *ExportRepo) Get(ctx context.Context, id uuid.UUID) (*domain.ExportJob, error) {
	if r.pool == nil {
		return nil, ErrNotFound
	}
	var j domain.ExportJob
	if err := queryJSON(ctx, r.pool, &j, `SELECT to_jsonb(e) FROM export_jobs e WHERE e.id = $1`, id); err != nil {
		return nil, err
	}
	return &j, nil
}
