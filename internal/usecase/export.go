package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"resume-preview/internal/domain"
	"resume-preview/internal/model"
	"resume-preview/internal/templates"
)

// Renderer prints an HTML document to PDF.
type Renderer interface {
	RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error)
}

// DocumentExporter lays a resume out as a document using the target
// format's native page breaks instead of the preview fragments.
type DocumentExporter interface {
	Export(ctx context.Context, r *model.Resume, t *templates.Template) ([]byte, error)
}

// ResumeStore loads and saves resumes.
type ResumeStore interface {
	Save(ctx context.Context, r *domain.ResumeRecord) error
	Get(ctx context.Context, id uuid.UUID) (*domain.ResumeRecord, error)
}

// ExportStore persists export jobs.
type ExportStore interface {
	Save(ctx context.Context, j *domain.ExportJob) error
	Get(ctx context.Context, id uuid.UUID) (*domain.ExportJob, error)
}

// ExporterConfig configures an Exporter.
type ExporterConfig struct {
	OutputDir string
	Attempts  int
	// Backoff is the delay before the first retry; it doubles per attempt.
	Backoff time.Duration
}

// Exporter produces downloadable resume files.
type Exporter struct {
	previews *PreviewService
	renderer Renderer
	document DocumentExporter
	resumes  ResumeStore
	jobs     ExportStore
	cfg      ExporterConfig
	log      *slog.Logger
}

// NewExporter wires an exporter. document may be nil, in which case flow
// exports fail.
func NewExporter(previews *PreviewService, r Renderer, doc DocumentExporter, resumes ResumeStore, jobs ExportStore, cfg ExporterConfig, log *slog.Logger) *Exporter {
	if cfg.Attempts < 1 {
		cfg.Attempts = 3
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "resume-data"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{previews: previews, renderer: r, document: doc, resumes: resumes, jobs: jobs, cfg: cfg, log: log}
}

// Process runs one export job to completion and records the outcome on it.
func (e *Exporter) Process(ctx context.Context, job *domain.ExportJob) error {
	if job.Metadata == nil {
		job.Metadata = map[string]interface{}{}
	}
	e.setStatus(ctx, job, domain.StatusRunning)

	err := e.process(ctx, job)
	if err != nil {
		job.Metadata["error"] = err.Error()
		e.setStatus(ctx, job, domain.StatusFailed)
		return err
	}
	e.setStatus(ctx, job, domain.StatusCompleted)
	return nil
}

func (e *Exporter) process(ctx context.Context, job *domain.ExportJob) error {
	rec, err := e.resumes.Get(ctx, job.ResumeID)
	if err != nil {
		return fmt.Errorf("load resume %s: %w", job.ResumeID, err)
	}
	if job.TemplateID == "" {
		job.TemplateID = rec.TemplateID
	}
	if job.TemplateID == "" {
		job.TemplateID = templates.Default
	}
	tpl, err := templates.Get(job.TemplateID)
	if err != nil {
		return err
	}

	genDir := filepath.Join(e.cfg.OutputDir, "generated")
	if err := os.MkdirAll(genDir, 0o755); err != nil {
		return err
	}
	base := "resume_" + job.ID.String()

	switch job.Format {
	case domain.FormatFlow:
		if e.document == nil {
			return errors.New("flow export is not configured")
		}
		pdf, err := e.document.Export(ctx, &rec.Resume, tpl)
		if err != nil {
			return fmt.Errorf("document export: %w", err)
		}
		return e.writePDF(job, genDir, base, pdf)
	case domain.FormatPDF, "":
		job.Format = domain.FormatPDF
	default:
		return fmt.Errorf("unsupported export format %q", job.Format)
	}

	// no ResumeKey: a stale preview is never exported
	p, err := e.previews.Preview(ctx, PreviewRequest{
		Resume:     &rec.Resume,
		TemplateID: tpl.ID,
	})
	if err != nil {
		return err
	}
	job.Pages = p.Count()

	html := tpl.Document(rec.Title, p.Pages)
	// keep the HTML even if printing fails
	htmlPath := filepath.Join(genDir, base+".html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return err
	}
	job.Metadata["generated_html"] = htmlPath

	pdf, err := e.render(ctx, html)
	if err != nil {
		return err
	}
	return e.writePDF(job, genDir, base, pdf)
}

// render prints html with retry and exponential backoff, accepting only
// output that carries a PDF signature.
func (e *Exporter) render(ctx context.Context, html string) ([]byte, error) {
	var lastErr error
	for i := 0; i < e.cfg.Attempts; i++ {
		pdf, err := e.renderer.RenderHTMLToPDF(ctx, html)
		if err == nil {
			if isPDF(pdf) {
				return pdf, nil
			}
			err = fmt.Errorf("invalid PDF output (len=%d)", len(pdf))
		}
		lastErr = err
		e.log.Warn("export: render attempt failed", "attempt", i+1, "error", err)
		if i < e.cfg.Attempts-1 {
			select {
			case <-time.After(e.cfg.Backoff * time.Duration(1<<i)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("rendering failed after %d attempts: %w", e.cfg.Attempts, lastErr)
}

func (e *Exporter) writePDF(job *domain.ExportJob, dir, base string, pdf []byte) error {
	if !isPDF(pdf) {
		return fmt.Errorf("invalid PDF output (len=%d)", len(pdf))
	}
	path := filepath.Join(dir, base+".pdf")
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return err
	}
	job.Metadata["generated_pdf"] = path
	job.Metadata["size"] = len(pdf)
	return nil
}

func (e *Exporter) setStatus(ctx context.Context, job *domain.ExportJob, status string) {
	job.Status = status
	job.UpdatedAt = time.Now()
	if e.jobs == nil {
		return
	}
	if err := e.jobs.Save(ctx, job); err != nil {
		e.log.Warn("export: failed to save job", "job", job.ID, "status", status, "error", err)
	}
}

func isPDF(b []byte) bool {
	return len(b) > 4 && string(b[:4]) == "%PDF"
}
