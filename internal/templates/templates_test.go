package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-preview/internal/model"
	"resume-preview/internal/pagination"
)

func sampleResume() *model.Resume {
	return &model.Resume{
		Meta: model.Meta{
			Name:     "Ada Lovelace",
			Headline: "Analytical Engine Programmer",
			Contact:  model.Contact{Email: "ada@example.com", GitHub: "https://github.com/ada"},
		},
		Summary: "First to publish an algorithm intended for a machine.",
		Experience: []model.Role{
			{Company: "Babbage & Co", Title: "Analyst", Period: "1842-1843", Bullets: []string{"Translated Menabrea", "Wrote Note G"}},
			{Company: "Royal Society", Title: "Correspondent", Period: "1843"},
		},
		Projects: []model.Project{
			{Title: "Bernoulli numbers", URL: "https://www.example.co.uk/notes/g", Description: "Loop over the engine cards."},
		},
		Skills: []model.SkillGroup{{Name: "Mathematics", Items: []string{"Calculus", "Probability"}}},
		Certifications: []model.Certification{
			{Name: "Mathematical Tripos", Issuer: "Cambridge", Date: "1840-06-01"},
		},
	}
}

func TestRegistry(t *testing.T) {
	list := List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"classic", "dark", "modern"}, []string{list[0].ID, list[1].ID, list[2].ID})

	for _, tpl := range list {
		require.NoError(t, tpl.Geometry.Validate(), tpl.ID)
		assert.Less(t, tpl.Geometry.UsableHeight, A4Height)
		assert.NotEmpty(t, tpl.Stylesheet)
	}

	modern, err := Get("modern")
	require.NoError(t, err)
	assert.Equal(t, A4Height-80-12, modern.Geometry.UsableHeight)

	_, err = Get("retro")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestRenderBlockOrder(t *testing.T) {
	for _, tpl := range List() {
		t.Run(tpl.ID, func(t *testing.T) {
			out, err := tpl.Render(sampleResume())
			require.NoError(t, err)

			keys := make([]string, len(out.Blocks))
			for i, b := range out.Blocks {
				keys[i] = b.Key
			}
			assert.Equal(t, []string{
				"header", "summary", "experience-0", "experience-1",
				"projects-0", "skills", "certifications",
			}, keys)

			assert.Contains(t, out.Blocks[0].Content, "Ada Lovelace")
			assert.Contains(t, out.Blocks[2].Content, "<h2>Experience</h2>")
			assert.NotContains(t, out.Blocks[3].Content, "<h2>")
			assert.Contains(t, out.Blocks[4].Content, "example.co.uk")
			assert.Contains(t, out.Blocks[6].Content, "(1840)")
		})
	}
}

func TestRenderSectionOrderAndLabels(t *testing.T) {
	r := sampleResume()
	r.Sections = []string{"skills", "summary"}
	r.Labels = map[string]string{"skills": "Competências"}

	out, err := Render(r, "classic")
	require.NoError(t, err)
	require.Len(t, out.Blocks, 3)
	assert.Equal(t, "skills", out.Blocks[1].Key)
	assert.Contains(t, out.Blocks[1].Content, "Competências")
	assert.Equal(t, "summary", out.Blocks[2].Key)
}

func TestRenderEmptyResume(t *testing.T) {
	out, err := Render(&model.Resume{}, "dark")
	require.NoError(t, err)
	require.Len(t, out.Blocks, 1)
	assert.Equal(t, "header", out.Blocks[0].Key)
}

func TestExtractBlocks(t *testing.T) {
	blocks, err := ExtractBlocks(`<main><div data-pagination-root>
		<section data-block="a"><p>one</p></section>
		loose text
		<div><p>two</p></div>
	</div></main>`)
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, "a", blocks[0].Key)
	assert.Equal(t, `<section data-block="a"><p>one</p></section>`, blocks[0].Content)
	assert.Equal(t, "block-1", blocks[1].Key)
	assert.Equal(t, "block-2", blocks[2].Key)

	_, err = ExtractBlocks(`<div>no root</div>`)
	assert.Error(t, err)
}

func TestLinkLabel(t *testing.T) {
	tests := map[string]string{
		"https://www.example.co.uk/a/b": "example.co.uk",
		"docs.github.io":                "docs.github.io",
		"https://github.com/ada/":       "github.com/ada",
		"linkedin.com/in/ada":           "linkedin.com/in/ada",
		"":                              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, linkLabel(in), in)
	}
}

func TestDocument(t *testing.T) {
	tpl, err := Get("modern")
	require.NoError(t, err)
	pages := pagination.Split([]pagination.ContentBlock{
		{Key: "a", Content: "<p>a</p>", Height: 900},
		{Key: "b", Content: "<p>b</p>", Height: 900},
	}, tpl.Geometry)

	doc := tpl.Document("Ada <CV>", pages)
	assert.Contains(t, doc, "<title>Ada &lt;CV&gt;</title>")
	assert.Contains(t, doc, "@page{size:794px 1123px;margin:0}")
	assert.Equal(t, 2, strings.Count(doc, `class="page"`))
	assert.Contains(t, doc, `data-page="2"`)
}
