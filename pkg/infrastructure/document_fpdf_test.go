package infrastructure

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-preview/internal/model"
	"resume-preview/internal/templates"
)

func sampleResume(roles int) *model.Resume {
	r := &model.Resume{
		Meta:    model.Meta{Name: "Ada Lovelace", Headline: "Engineer", Contact: model.Contact{Email: "ada@example.com"}},
		Summary: "Analytical engine programmer.",
		Skills:  []model.SkillGroup{{Name: "Languages", Items: []string{"Go", "SQL"}}},
		Labels:  map[string]string{"skills": "Competências"},
	}
	for i := 0; i < roles; i++ {
		r.Experience = append(r.Experience, model.Role{
			Company: fmt.Sprintf("Company %d", i),
			Title:   "Engineer",
			Period:  "2020 - 2024",
			Bullets: []string{"Built the pagination service", "Reduced render latency by half"},
		})
	}
	return r
}

func TestFlowExporterProducesPDF(t *testing.T) {
	for _, tpl := range templates.List() {
		t.Run(tpl.ID, func(t *testing.T) {
			out, err := NewFlowExporter().Export(context.Background(), sampleResume(2), tpl)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
		})
	}
}

func TestFlowExporterBreaksLongResumes(t *testing.T) {
	tpl, err := templates.Get("classic")
	require.NoError(t, err)
	short, err := NewFlowExporter().Export(context.Background(), sampleResume(1), tpl)
	require.NoError(t, err)
	long, err := NewFlowExporter().Export(context.Background(), sampleResume(60), tpl)
	require.NoError(t, err)

	pages := func(b []byte) int {
		return bytes.Count(b, []byte("/Type /Page")) - bytes.Count(b, []byte("/Type /Pages"))
	}
	assert.Equal(t, 1, pages(short))
	assert.Greater(t, pages(long), 1)
}

func TestFlowExporterHonoursCancel(t *testing.T) {
	tpl, err := templates.Get("classic")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewFlowExporter().Export(ctx, sampleResume(1), tpl)
	assert.ErrorIs(t, err, context.Canceled)
}
