package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"resume-preview/internal/domain"
)

type ResumeRepo struct {
	pool *pgxpool.Pool
}

func NewResumeRepo(pool *pgxpool.Pool) *ResumeRepo {
	return &ResumeRepo{pool: pool}
}

func (r *ResumeRepo) Save(ctx context.Context, rec *domain.ResumeRecord) error {
	if r.pool == nil {
		return errors.New("resume repo: no database")
	}
	data, err := json.Marshal(rec.Resume)
	if err != nil {
		return err
	}

	title := rec.Title
	if title == "" {
		title = rec.Resume.Meta.Name
	}
	if title == "" {
		title = "Resume"
	}
	rec.Title = title

	_, err = r.pool.Exec(ctx, `INSERT INTO resumes (id, user_id, title, template_id, data, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, template_id = EXCLUDED.template_id, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		rec.ID, rec.UserID, rec.Title, rec.TemplateID, data, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert resume %s: %w", rec.ID, err)
	}
	return nil
}

func (r *ResumeRepo) Get(ctx context.Context, id uuid.UUID) (*domain.ResumeRecord, error) {
	if r.pool == nil {
		return nil, ErrNotFound
	}
	var rec domain.ResumeRecord
	err := queryJSON(ctx, r.pool, &rec, `SELECT json_build_object(
			'id', r.id, 'user_id', r.user_id, 'title', r.title, 'template_id', r.template_id,
			'resume', r.data, 'created_at', r.created_at, 'updated_at', r.updated_at)
		FROM resumes r WHERE r.id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
