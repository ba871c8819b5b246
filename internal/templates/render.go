package templates

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"resume-preview/internal/model"
	"resume-preview/internal/pagination"
)

const rootAttr = "data-pagination-root"

// Rendered is a resume rendered with one template, split into top-level blocks.
type Rendered struct {
	Template *Template
	Blocks   []pagination.ContentBlock
	// Markup is the full, unpaginated resume container.
	Markup string
}

type pageData struct {
	Resume   *model.Resume
	Labels   map[string]string
	Sections []string
}

// Render renders r with the template registered under id.
func Render(r *model.Resume, id string) (*Rendered, error) {
	t, err := Get(id)
	if err != nil {
		return nil, err
	}
	return t.Render(r)
}

// Render executes the template and extracts its block sequence.
func (t *Template) Render(r *model.Resume) (*Rendered, error) {
	if r == nil {
		r = &model.Resume{}
	}
	data := pageData{
		Resume:   r,
		Labels:   mergeLabels(r.Labels),
		Sections: r.SectionOrder(),
	}
	var buf bytes.Buffer
	if err := t.tpl.ExecuteTemplate(&buf, "page", data); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", t.ID, err)
	}
	markup := buf.String()
	blocks, err := ExtractBlocks(markup)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", t.ID, err)
	}
	return &Rendered{Template: t, Blocks: blocks, Markup: markup}, nil
}

// ExtractBlocks parses markup and returns the element children of the
// pagination root as an ordered, flat list of blocks. Nested structure inside
// a block is kept intact; blocks are never split.
func ExtractBlocks(markup string) ([]pagination.ContentBlock, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse rendered markup: %w", err)
	}
	root := findRoot(doc)
	if root == nil {
		return nil, errors.New("rendered markup has no " + rootAttr + " element")
	}

	var blocks []pagination.ContentBlock
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
		case html.TextNode:
			if strings.TrimSpace(c.Data) == "" {
				continue
			}
		default:
			continue
		}
		var b bytes.Buffer
		if err := html.Render(&b, c); err != nil {
			return nil, fmt.Errorf("render block: %w", err)
		}
		key := attr(c, "data-block")
		if key == "" {
			key = fmt.Sprintf("block-%d", len(blocks))
		}
		blocks = append(blocks, pagination.ContentBlock{Key: key, Content: b.String()})
	}
	return blocks, nil
}

func findRoot(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == rootAttr {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findRoot(c); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
