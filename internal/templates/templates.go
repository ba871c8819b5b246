// Package templates renders resumes into the flat block sequence the
// paginator operates on. Each template supplies only its markup, stylesheet
// and page geometry.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"sort"

	"resume-preview/internal/pagination"
)

// ErrUnknownTemplate is returned for template ids that are not registered.
var ErrUnknownTemplate = errors.New("unknown template")

//go:embed files
var files embed.FS

// A4 at 96 dpi, in CSS pixels.
const (
	A4Width  = 794.0
	A4Height = 1123.0
)

// Template is one visual resume layout.
type Template struct {
	ID         string                  `json:"id"`
	Name       string                  `json:"name"`
	Geometry   pagination.PageGeometry `json:"geometry"`
	Stylesheet string                  `json:"-"`

	tpl *template.Template
}

type spec struct {
	id, name   string
	marginV    float64 // top and bottom margin
	decoration float64 // fixed decoration repeated on every page
	pageStyle  string
}

var specs = []spec{
	{
		id:        "classic",
		name:      "Classic",
		marginV:   48,
		pageStyle: "padding:48px 56px;background:#fff;color:#222",
	},
	{
		id:         "modern",
		name:       "Modern",
		marginV:    40,
		decoration: 12,
		pageStyle:  "padding:40px 48px;border-top:12px solid #1f4e79;background:#fff;color:#222",
	},
	{
		id:        "dark",
		name:      "Dark",
		marginV:   56,
		pageStyle: "padding:56px 52px;background:#1e1e24;color:#e8e8ec",
	},
}

var registry = map[string]*Template{}

func init() {
	base, err := files.ReadFile("files/base.css")
	if err != nil {
		panic(err)
	}
	for _, s := range specs {
		t, err := load(s, string(base))
		if err != nil {
			panic(fmt.Sprintf("templates: load %s: %v", s.id, err))
		}
		registry[s.id] = t
	}
}

func load(s spec, base string) (*Template, error) {
	css, err := files.ReadFile("files/" + s.id + ".css")
	if err != nil {
		return nil, err
	}
	tpl, err := template.New(s.id).Funcs(funcs).ParseFS(files, "files/sections.html", "files/"+s.id+".html")
	if err != nil {
		return nil, err
	}
	return &Template{
		ID:   s.id,
		Name: s.name,
		Geometry: pagination.PageGeometry{
			PageWidth:         A4Width,
			PageHeight:        A4Height,
			UsableHeight:      A4Height - 2*s.marginV - s.decoration,
			PageStyle:         s.pageStyle,
			ContinuationStyle: s.pageStyle,
		},
		Stylesheet: base + "\n" + string(css),
		tpl:        tpl,
	}, nil
}

// Get returns the template registered under id.
func Get(id string) (*Template, error) {
	t, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
	}
	return t, nil
}

// List returns all templates sorted by id.
func List() []*Template {
	out := make([]*Template, 0, len(registry))
	for _, t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Default is the template used when a request does not name one.
const Default = "classic"
