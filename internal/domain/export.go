package domain

import (
	"time"

	"github.com/google/uuid"
)

// Export job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Export formats.
const (
	// FormatPDF prints the paginated preview pages.
	FormatPDF = "pdf"
	// FormatFlow lays the resume out again with the document's own page breaks.
	FormatFlow = "flow"
)

// ExportJob tracks one asynchronous resume download.
type ExportJob struct {
	ID         uuid.UUID              `json:"id"`
	ResumeID   uuid.UUID              `json:"resume_id"`
	TemplateID string                 `json:"template_id"`
	Format     string                 `json:"format"`
	Status     string                 `json:"status"`
	Pages      int                    `json:"pages"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}
