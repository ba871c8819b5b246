package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"resume-preview/internal/model"
	"resume-preview/internal/pagination"
	"resume-preview/internal/templates"
)

// Cache memoizes pagination results by input identity.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
}

// PreviewRequest asks for the paginated preview of one resume.
type PreviewRequest struct {
	// ResumeKey identifies the resume being edited; the last good preview is
	// remembered per key.
	ResumeKey  string
	Resume     *model.Resume
	TemplateID string
}

// Preview is the paginated rendering of a resume.
type Preview struct {
	TemplateID string                    `json:"template"`
	Geometry   pagination.PageGeometry   `json:"geometry"`
	Pages      []pagination.PageFragment `json:"pages"`
	Cached     bool                      `json:"cached"`
	// Stale is set when the preview is the last good result returned
	// alongside a pagination error.
	Stale bool `json:"stale,omitempty"`
}

// Count returns the number of pages.
func (p *Preview) Count() int { return len(p.Pages) }

// PreviewService renders and paginates resumes. It is safe for concurrent use.
type PreviewService struct {
	measurer pagination.Measurer
	cache    Cache
	log      *slog.Logger

	mu       sync.Mutex
	lastGood map[string]*Preview
}

// NewPreviewService creates a preview service. cache may be nil.
func NewPreviewService(m pagination.Measurer, cache Cache, log *slog.Logger) *PreviewService {
	if log == nil {
		log = slog.Default()
	}
	return &PreviewService{measurer: m, cache: cache, log: log, lastGood: map[string]*Preview{}}
}

// Preview renders req.Resume with the requested template and paginates it.
// On failure the error is returned together with the last good preview for
// the same resume key, if there is one, marked Stale.
func (s *PreviewService) Preview(ctx context.Context, req PreviewRequest) (*Preview, error) {
	p, err := s.paginate(ctx, req)
	if err != nil {
		if last := s.LastGood(req.ResumeKey); last != nil {
			stale := *last
			stale.Stale = true
			s.log.Warn("preview: keeping last good pages", "resume", req.ResumeKey, "error", err)
			return &stale, err
		}
		return nil, err
	}
	if req.ResumeKey != "" {
		s.mu.Lock()
		s.lastGood[req.ResumeKey] = p
		s.mu.Unlock()
	}
	return p, nil
}

// LastGood returns the most recent successful preview for key.
func (s *PreviewService) LastGood(key string) *Preview {
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastGood[key]
}

// Forget drops the remembered preview for key.
func (s *PreviewService) Forget(key string) {
	s.mu.Lock()
	delete(s.lastGood, key)
	s.mu.Unlock()
}

func (s *PreviewService) paginate(ctx context.Context, req PreviewRequest) (*Preview, error) {
	id := req.TemplateID
	if id == "" {
		id = templates.Default
	}
	tpl, err := templates.Get(id)
	if err != nil {
		return nil, err
	}
	rendered, err := tpl.Render(req.Resume)
	if err != nil {
		return nil, fmt.Errorf("render resume: %w", err)
	}

	key := memoKey(tpl, rendered.Blocks)
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, key); ok {
			var pages []pagination.PageFragment
			if err := json.Unmarshal(raw, &pages); err == nil {
				return &Preview{TemplateID: tpl.ID, Geometry: tpl.Geometry, Pages: pages, Cached: true}, nil
			}
			s.log.Warn("preview: dropping undecodable cache entry", "key", key)
		}
	}

	pages, err := pagination.New(s.measurer,
		pagination.WithStylesheet(tpl.Stylesheet),
		pagination.WithRootClass(tpl.RootClass()),
		pagination.WithLogger(s.log),
	).Paginate(ctx, rendered.Blocks, tpl.Geometry)
	if err != nil {
		return nil, fmt.Errorf("paginate %s: %w", tpl.ID, err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(pages); err == nil {
			s.cache.Set(ctx, key, raw)
		}
	}
	return &Preview{TemplateID: tpl.ID, Geometry: tpl.Geometry, Pages: pages}, nil
}

// memoKey hashes everything pagination depends on: template geometry and
// stylesheet plus every block in order.
func memoKey(tpl *templates.Template, blocks []pagination.ContentBlock) string {
	h := sha256.New()
	g := tpl.Geometry
	fmt.Fprintf(h, "%s|%g|%g|%g|%s|%s|", tpl.ID, g.PageWidth, g.PageHeight, g.UsableHeight, g.PageStyle, g.ContinuationStyle)
	h.Write([]byte(tpl.Stylesheet))
	for _, b := range blocks {
		fmt.Fprintf(h, "|%d:%s|%d:%s", len(b.Key), b.Key, len(b.Content), b.Content)
	}
	return "pg:" + hex.EncodeToString(h.Sum(nil)[:16])
}
