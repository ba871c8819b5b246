package domain

import (
	"time"

	"github.com/google/uuid"

	"resume-preview/internal/model"
)

// ResumeRecord is a stored resume document.
type ResumeRecord struct {
	ID         uuid.UUID    `json:"id"`
	UserID     uuid.UUID    `json:"user_id"`
	Title      string       `json:"title"`
	TemplateID string       `json:"template_id"`
	Resume     model.Resume `json:"resume"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
