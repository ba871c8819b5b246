package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"resume-preview/internal/adapter/repository"
	"resume-preview/internal/domain"
	"resume-preview/internal/model"
	"resume-preview/internal/pagination"
	"resume-preview/internal/preview"
	"resume-preview/internal/templates"
	"resume-preview/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// exports run detached from the request that started them
const exportTimeout = 5 * time.Minute

type Handler struct {
	previews *usecase.PreviewService
	exporter *usecase.Exporter
	resumes  usecase.ResumeStore
	exports  usecase.ExportStore
	log      *slog.Logger

	mu       sync.Mutex
	displays map[string]*preview.Display // by previewKey
}

func NewHandler(p *usecase.PreviewService, e *usecase.Exporter, resumes usecase.ResumeStore, exports usecase.ExportStore, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		previews: p,
		exporter: e,
		resumes:  resumes,
		exports:  exports,
		log:      log,
		displays: map[string]*preview.Display{},
	}
}

// Register mounts the routes on app.
func (h *Handler) Register(app fiber.Router) {
	app.Get("/templates", h.ListTemplates)
	app.Post("/preview", h.Preview)
	app.Post("/resumes", h.SaveResume)
	app.Get("/resumes/:id", h.GetResume)
	app.Get("/resumes/:id/preview", h.ResumePreview)
	app.Post("/exports", h.StartExport)
	app.Get("/exports/:id", h.GetExport)
}

type templateView struct {
	ID       string                  `json:"id"`
	Name     string                  `json:"name"`
	Geometry pagination.PageGeometry `json:"geometry"`
}

func (h *Handler) ListTemplates(c *fiber.Ctx) error {
	out := []templateView{}
	for _, t := range templates.List() {
		out = append(out, templateView{ID: t.ID, Name: t.Name, Geometry: t.Geometry})
	}
	return c.JSON(out)
}

type pageView struct {
	Index  int      `json:"index"`
	Style  string   `json:"style"`
	Blocks []string `json:"blocks"`
	HTML   string   `json:"html"`
}

func newPageView(p pagination.PageFragment) pageView {
	keys := p.Keys()
	if keys == nil {
		keys = []string{}
	}
	return pageView{Index: p.Index, Style: p.Style, Blocks: keys, HTML: p.HTML()}
}

type previewReq struct {
	Template string          `json:"template"`
	Resume   json.RawMessage `json:"resume"`
}

// Preview paginates a resume sent in the request body.
func (h *Handler) Preview(c *fiber.Ctx) error {
	var req previewReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	r, err := model.Decode(req.Resume)
	if err != nil {
		return h.fail(c, err)
	}

	p, err := h.previews.Preview(c.UserContext(), usecase.PreviewRequest{Resume: r, TemplateID: req.Template})
	if err != nil {
		return h.fail(c, err)
	}
	pages := make([]pageView, len(p.Pages))
	for i, pg := range p.Pages {
		pages[i] = newPageView(pg)
	}
	return c.JSON(fiber.Map{
		"template": p.TemplateID,
		"count":    p.Count(),
		"cached":   p.Cached,
		"pages":    pages,
	})
}

type saveResumeReq struct {
	ID       string          `json:"id,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Title    string          `json:"title,omitempty"`
	Template string          `json:"template,omitempty"`
	Resume   json.RawMessage `json:"resume"`
}

func (h *Handler) SaveResume(c *fiber.Ctx) error {
	var req saveResumeReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	r, err := model.Decode(req.Resume)
	if err != nil {
		return h.fail(c, err)
	}
	if req.Template != "" {
		if _, err := templates.Get(req.Template); err != nil {
			return h.fail(c, err)
		}
	}

	rec := &domain.ResumeRecord{
		ID:         uuid.New(),
		Title:      req.Title,
		TemplateID: req.Template,
		Resume:     *r,
		CreatedAt:  time.Now().UTC(),
	}
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
		}
		rec.ID = id
		if prev, err := h.resumes.Get(c.UserContext(), id); err == nil {
			rec.CreatedAt = prev.CreatedAt
			rec.UserID = prev.UserID
			// pages of the previous version must not come back as stale results
			h.forget(id)
		}
	}
	if req.UserID != "" {
		uid, err := uuid.Parse(req.UserID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid userId"})
		}
		rec.UserID = uid
	}
	rec.UpdatedAt = time.Now().UTC()

	if err := h.resumes.Save(c.UserContext(), rec); err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": rec.ID.String()})
}

func (h *Handler) GetResume(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}
	rec, err := h.resumes.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(rec)
}

// ResumePreview shows one page of a stored resume. The page position is
// remembered per resume; choosing another section starts again at page 1.
func (h *Handler) ResumePreview(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}
	rec, err := h.resumes.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	tpl := c.Query("template", rec.TemplateID)
	if tpl == "" {
		tpl = templates.Default
	}
	key := previewKey(id, tpl)

	p, err := h.previews.Preview(c.UserContext(), usecase.PreviewRequest{
		ResumeKey:  key,
		Resume:     &rec.Resume,
		TemplateID: tpl,
	})
	if err != nil && p == nil {
		return h.fail(c, err)
	}

	d := h.display(key)
	d.Update(p.Pages)
	if s := c.Query("section"); s != "" {
		d.Switch(s)
	}
	switch c.Query("nav") {
	case "next":
		d.Next()
	case "prev":
		d.Prev()
	}
	if n := c.QueryInt("page", 0); n > 0 {
		d.Goto(n)
	}

	page, _ := d.Current()
	n, total := d.Page()
	resp := fiber.Map{
		"template":  p.TemplateID,
		"section":   d.Section(),
		"page":      n,
		"total":     total,
		"indicator": d.Indicator(),
		"fragment":  newPageView(page),
		"stale":     p.Stale,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	return c.JSON(resp)
}

// previewKey scopes remembered pages and navigation to one resume rendered
// with one template.
func previewKey(id uuid.UUID, tpl string) string {
	return id.String() + "/" + tpl
}

func (h *Handler) display(key string) *preview.Display {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.displays[key]
	if !ok {
		d = preview.NewDisplay(nil)
		h.displays[key] = d
	}
	return d
}

// forget drops remembered pages and page positions of a resume.
func (h *Handler) forget(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range templates.List() {
		key := previewKey(id, t.ID)
		h.previews.Forget(key)
		delete(h.displays, key)
	}
}

type startExportReq struct {
	ResumeID string `json:"resumeId"`
	Template string `json:"template,omitempty"`
	Format   string `json:"format,omitempty"`
}

// StartExport queues an export job and processes it in the background.
func (h *Handler) StartExport(c *fiber.Ctx) error {
	var req startExportReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}
	rid, err := uuid.Parse(req.ResumeID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid resumeId"})
	}
	switch req.Format {
	case "", domain.FormatPDF, domain.FormatFlow:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported format"})
	}
	if req.Template != "" {
		if _, err := templates.Get(req.Template); err != nil {
			return h.fail(c, err)
		}
	}
	if _, err := h.resumes.Get(c.UserContext(), rid); err != nil {
		return h.fail(c, err)
	}

	now := time.Now().UTC()
	job := &domain.ExportJob{
		ID:         uuid.New(),
		ResumeID:   rid,
		TemplateID: req.Template,
		Format:     req.Format,
		Status:     domain.StatusPending,
		Metadata:   map[string]interface{}{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// persist initial job (best-effort)
	if err := h.exports.Save(c.UserContext(), job); err != nil {
		h.log.Warn("export: failed to save job", "job", job.ID, "error", err)
	}

	resp := fiber.Map{"jobId": job.ID.String(), "status": job.Status}
	go func(j *domain.ExportJob) {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()
		if err := h.exporter.Process(ctx, j); err != nil {
			h.log.Error("export failed", "job", j.ID, "error", err)
		}
	}(job)

	return c.Status(fiber.StatusAccepted).JSON(resp)
}

func (h *Handler) GetExport(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid id"})
	}
	job, err := h.exports.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(job)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		h.log.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidResume):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, templates.ErrUnknownTemplate):
		return fiber.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
