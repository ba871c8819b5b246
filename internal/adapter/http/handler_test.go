package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-preview/internal/adapter/repository"
	"resume-preview/internal/domain"
	"resume-preview/internal/pagination"
	"resume-preview/internal/usecase"
	infra "resume-preview/pkg/infrastructure"
)

// blockMeasurer gives every block the same height.
type blockMeasurer struct {
	height float64
	fail   atomic.Bool
}

func (m *blockMeasurer) Acquire(context.Context, pagination.ProbeSpec) (pagination.Probe, error) {
	if m.fail.Load() {
		return nil, errors.New("layout engine gone")
	}
	return blockProbe{m.height}, nil
}

type blockProbe struct{ h float64 }

func (p blockProbe) Total(_ context.Context, blocks []pagination.ContentBlock) (float64, error) {
	return p.h * float64(len(blocks)), nil
}
func (p blockProbe) Measure(context.Context, pagination.ContentBlock) (float64, error) {
	return p.h, nil
}
func (p blockProbe) Release() error { return nil }

type fakeRenderer struct{}

func (fakeRenderer) RenderHTMLToPDF(context.Context, string) ([]byte, error) {
	return []byte("%PDF-1.7 fake"), nil
}

const resumeJSON = `{
	"meta": {"name": "Ada Lovelace", "headline": "Engineer"},
	"summary": "Writes programs for engines.",
	"experience": [
		{"company": "A", "title": "Engineer", "bullets": ["one"]},
		{"company": "B", "title": "Engineer"},
		{"company": "C", "title": "Engineer"},
		{"company": "D", "title": "Engineer"}
	],
	"skills": [{"name": "Languages", "items": ["Go"]}]
}`

type fixture struct {
	app      *fiber.App
	measurer *blockMeasurer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := &blockMeasurer{height: 300}
	store := repository.NewMemoryStore()
	previews := usecase.NewPreviewService(m, nil, nil)
	exporter := usecase.NewExporter(previews, fakeRenderer{}, infra.NewFlowExporter(),
		store.Resumes(), store.Exports(), usecase.ExporterConfig{OutputDir: t.TempDir()}, nil)

	app := fiber.New()
	NewHandler(previews, exporter, store.Resumes(), store.Exports(), nil).Register(app)
	return &fixture{app: app, measurer: m}
}

func (f *fixture) do(t *testing.T, method, url, body string) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	} else {
		out["raw"] = string(raw)
	}
	return resp.StatusCode, out
}

func (f *fixture) saveResume(t *testing.T) string {
	t.Helper()
	status, body := f.do(t, "POST", "/resumes", `{"template":"classic","resume":`+resumeJSON+`}`)
	require.Equal(t, fiber.StatusCreated, status, body)
	return body["id"].(string)
}

func TestListTemplates(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, "GET", "/templates", "")
	require.Equal(t, fiber.StatusOK, status)
	var list []templateView
	require.NoError(t, json.Unmarshal([]byte(body["raw"].(string)), &list))
	require.Len(t, list, 3)
	assert.Equal(t, "classic", list[0].ID)
	assert.Greater(t, list[0].Geometry.UsableHeight, 0.0)
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, "POST", "/preview", `{"template":"classic","resume":`+resumeJSON+`}`)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "classic", body["template"])
	// header, summary, four roles and skills at 300px on a 1027px page
	assert.Equal(t, 3.0, body["count"])

	pages := body["pages"].([]interface{})
	first := pages[0].(map[string]interface{})
	assert.Equal(t, []interface{}{"header", "summary", "experience-0"}, first["blocks"])
	assert.Contains(t, first["html"], `data-page="1"`)
}

func TestPreviewErrors(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed body", `{`, fiber.StatusBadRequest},
		{"schema violation", `{"resume":{"meta":{"name":""}}}`, fiber.StatusUnprocessableEntity},
		{"unknown template", `{"template":"neon","resume":` + resumeJSON + `}`, fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := f.do(t, "POST", "/preview", tt.body)
			assert.Equal(t, tt.want, status)
		})
	}

	f.measurer.fail.Store(true)
	status, body := f.do(t, "POST", "/preview", `{"resume":`+resumeJSON+`}`)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, body["error"], "measurement")
}

func TestResumeRoundTrip(t *testing.T) {
	f := newFixture(t)
	id := f.saveResume(t)

	status, body := f.do(t, "GET", "/resumes/"+id, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Ada Lovelace", body["title"])
	assert.Equal(t, "classic", body["template_id"])

	status, _ = f.do(t, "GET", "/resumes/6f1c2a4e-0000-4000-8000-000000000000", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = f.do(t, "GET", "/resumes/nope", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestResumePreviewNavigation(t *testing.T) {
	f := newFixture(t)
	id := f.saveResume(t)
	url := "/resumes/" + id + "/preview"

	status, body := f.do(t, "GET", url, "")
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "Page 1 of 3", body["indicator"])

	_, body = f.do(t, "GET", url+"?page=2", "")
	assert.Equal(t, "Page 2 of 3", body["indicator"])
	frag := body["fragment"].(map[string]interface{})
	assert.Equal(t, 1.0, frag["index"])

	_, body = f.do(t, "GET", url+"?nav=next", "")
	assert.Equal(t, "Page 3 of 3", body["indicator"])
	_, body = f.do(t, "GET", url+"?nav=next", "")
	assert.Equal(t, "Page 3 of 3", body["indicator"])

	_, body = f.do(t, "GET", url+"?section=experience", "")
	assert.Equal(t, "Page 1 of 3", body["indicator"])
	assert.Equal(t, "experience", body["section"])

	_, body = f.do(t, "GET", url+"?page=99", "")
	assert.Equal(t, "Page 3 of 3", body["indicator"])
}

func TestResumePreviewKeepsLastGoodPages(t *testing.T) {
	f := newFixture(t)
	id := f.saveResume(t)
	url := "/resumes/" + id + "/preview"

	status, _ := f.do(t, "GET", url, "")
	require.Equal(t, fiber.StatusOK, status)

	f.measurer.fail.Store(true)
	status, body := f.do(t, "GET", url, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["stale"])
	assert.Equal(t, "Page 1 of 3", body["indicator"])
	assert.Contains(t, body["error"], "layout engine gone")
}

func TestExportLifecycle(t *testing.T) {
	for _, format := range []string{domain.FormatPDF, domain.FormatFlow} {
		t.Run(format, func(t *testing.T) {
			f := newFixture(t)
			id := f.saveResume(t)

			status, body := f.do(t, "POST", "/exports", fmt.Sprintf(`{"resumeId":%q,"format":%q}`, id, format))
			require.Equal(t, fiber.StatusAccepted, status, body)
			jobID := body["jobId"].(string)

			require.Eventually(t, func() bool {
				_, job := f.do(t, "GET", "/exports/"+jobID, "")
				return job["status"] == domain.StatusCompleted
			}, 5*time.Second, 20*time.Millisecond)

			_, job := f.do(t, "GET", "/exports/"+jobID, "")
			meta := job["metadata"].(map[string]interface{})
			assert.NotEmpty(t, meta["generated_pdf"])
			assert.Equal(t, format, job["format"])
		})
	}
}

func TestStartExportValidation(t *testing.T) {
	f := newFixture(t)
	id := f.saveResume(t)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad resume id", `{"resumeId":"x"}`, fiber.StatusBadRequest},
		{"missing resume", `{"resumeId":"6f1c2a4e-0000-4000-8000-000000000000"}`, fiber.StatusNotFound},
		{"bad format", fmt.Sprintf(`{"resumeId":%q,"format":"docx"}`, id), fiber.StatusBadRequest},
		{"unknown template", fmt.Sprintf(`{"resumeId":%q,"template":"neon"}`, id), fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := f.do(t, "POST", "/exports", tt.body)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusNotFound, statusFor(fmt.Errorf("load: %w", repository.ErrNotFound)))
	assert.Equal(t, fiber.StatusInternalServerError, statusFor(pagination.ErrInvalidGeometry))
	assert.Equal(t, fiber.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestResumePreviewPositionPerTemplate(t *testing.T) {
	f := newFixture(t)
	id := f.saveResume(t)
	url := "/resumes/" + id + "/preview"

	_, body := f.do(t, "GET", url+"?page=2", "")
	require.Equal(t, "Page 2 of 3", body["indicator"])

	_, body = f.do(t, "GET", url+"?template=modern", "")
	assert.Equal(t, "modern", body["template"])
	assert.Equal(t, "Page 1 of 3", body["indicator"])

	_, body = f.do(t, "GET", url+"?template=classic", "")
	assert.Equal(t, "Page 2 of 3", body["indicator"])
}

func TestSavingResumeDropsRememberedPages(t *testing.T) {
	f := newFixture(t)
	id := f.saveResume(t)
	url := "/resumes/" + id + "/preview"

	_, body := f.do(t, "GET", url+"?page=3", "")
	require.Equal(t, "Page 3 of 3", body["indicator"])

	status, _ := f.do(t, "POST", "/resumes", fmt.Sprintf(`{"id":%q,"template":"classic","resume":%s}`, id, resumeJSON))
	require.Equal(t, fiber.StatusCreated, status)

	_, body = f.do(t, "GET", url, "")
	assert.Equal(t, "Page 1 of 3", body["indicator"])

	status, _ = f.do(t, "POST", "/resumes", fmt.Sprintf(`{"id":%q,"template":"classic","resume":%s}`, id, resumeJSON))
	require.Equal(t, fiber.StatusCreated, status)
	f.measurer.fail.Store(true)
	status, body = f.do(t, "GET", url, "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Nil(t, body["stale"])
}
