package infrastructure

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"resume-preview/internal/pagination"
)

// MetricsMeasurer estimates block heights from Helvetica font metrics and
// word wrapping, without a browser. Results approximate the stylesheet in
// internal/templates, not arbitrary CSS.
type MetricsMeasurer struct {
	open atomic.Int64
}

func NewMetricsMeasurer() *MetricsMeasurer { return &MetricsMeasurer{} }

// Open reports how many probes are attached.
func (m *MetricsMeasurer) Open() int { return int(m.open.Load()) }

// CSS px to PDF pt
const pxToPt = 0.75

const lineHeight = 1.45

type textStyle struct {
	size   float64 // px
	bold   bool
	before float64 // px of vertical space before the text
	after  float64
	indent float64
}

var blockStyles = map[atom.Atom]textStyle{
	atom.H1:  {size: 28, bold: true, after: 4},
	atom.H2:  {size: 15, bold: true, before: 18, after: 8},
	atom.H3:  {size: 14, bold: true},
	atom.H4:  {size: 13, bold: true, after: 2},
	atom.P:   {size: 13, after: 6},
	atom.Li:  {size: 13, after: 3, indent: 18},
	atom.Div: {size: 13},
}

var defaultStyle = textStyle{size: 13}

// extra space contributed by container elements
var containerSpace = map[atom.Atom]float64{
	atom.Section: 10, // .block padding-bottom
	atom.Header:  10,
	atom.Ul:      4,
}

func (m *MetricsMeasurer) Acquire(_ context.Context, spec pagination.ProbeSpec) (pagination.Probe, error) {
	if spec.Width <= 0 {
		return nil, errors.New("probe width must be positive")
	}
	pdf := fpdf.New("P", "pt", "A4", "")
	if err := pdf.Error(); err != nil {
		return nil, err
	}
	m.open.Add(1)
	return &metricsProbe{
		m:     m,
		pdf:   pdf,
		width: spec.Width - horizontalPadding(spec.Style),
		// .modern .contact{flex-direction:column}
		contactColumn: hasClass(spec.Class, "modern"),
	}, nil
}

type metricsProbe struct {
	m        *MetricsMeasurer
	pdf      *fpdf.Fpdf
	width    float64 // px available to content
	released bool
	// contact lists stack vertically instead of wrapping in a row
	contactColumn bool
}

func (p *metricsProbe) Total(ctx context.Context, blocks []pagination.ContentBlock) (float64, error) {
	var sum float64
	for _, b := range blocks {
		h, err := p.Measure(ctx, b)
		if err != nil {
			return 0, err
		}
		sum += h
	}
	return sum, nil
}

func (p *metricsProbe) Measure(_ context.Context, b pagination.ContentBlock) (float64, error) {
	if p.released {
		return 0, errors.New("probe released")
	}
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(b.Content), ctx)
	if err != nil {
		return 0, err
	}
	var h float64
	for _, n := range nodes {
		h += p.node(n, defaultStyle, 0)
	}
	return h, nil
}

// node returns the height of n laid out at the probe width minus indent.
func (p *metricsProbe) node(n *html.Node, inherited textStyle, indent float64) float64 {
	switch n.Type {
	case html.TextNode:
		return p.text(n.Data, inherited, indent)
	case html.ElementNode:
	default:
		return 0
	}

	class := attrValue(n, "class")
	switch {
	case hasClass(class, "skills-grid"):
		return p.grid(n, inherited, indent)
	case hasClass(class, "contact") && !p.contactColumn:
		return p.row(n, indent)
	}

	if st, ok := blockStyles[n.DataAtom]; ok && hasOnlyInline(n) {
		st.indent += indent
		if n.DataAtom == atom.Div {
			st.size = inherited.size
			st.bold = inherited.bold
		}
		return st.before + p.text(textContent(n), st, st.indent) + st.after
	}

	var h float64
	childIndent := indent
	if n.DataAtom == atom.Ul || n.DataAtom == atom.Ol {
		childIndent += 18
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		h += p.node(c, inherited, childIndent)
	}
	return h + containerSpace[n.DataAtom]
}

// .skills-grid: two columns with a 24px column gap and 6px row gap
const (
	gridColumns = 2
	gridColGap  = 24.0
	gridRowGap  = 6.0
)

func (p *metricsProbe) grid(n *html.Node, inherited textStyle, indent float64) float64 {
	colWidth := (p.width - indent - gridColGap*(gridColumns-1)) / gridColumns
	// narrow each cell by treating the rest of the row as indent
	cellIndent := p.width - colWidth

	var (
		h, rowMax float64
		col, rows int
	)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		rowMax = max(rowMax, p.node(c, inherited, cellIndent))
		col++
		if col == gridColumns {
			h += rowMax
			rows++
			rowMax, col = 0, 0
		}
	}
	if col > 0 {
		h += rowMax
		rows++
	}
	if rows > 1 {
		h += float64(rows-1) * gridRowGap
	}
	return h
}

// row lays list items out as a wrapping flex row (.contact: 12px text,
// 16px gaps, 4px top margin).
func (p *metricsProbe) row(n *html.Node, indent float64) float64 {
	const size, gap = 12.0, 16.0
	p.pdf.SetFont("Helvetica", "", size*pxToPt)
	avail := p.width - indent

	lines, used := 0, 0.0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		t := strings.Join(strings.Fields(textContent(c)), " ")
		if t == "" {
			continue
		}
		w := p.pdf.GetStringWidth(latin1(t)) / pxToPt
		switch {
		case lines == 0:
			lines, used = 1, w
		case used+gap+w > avail:
			lines++
			used = w
		default:
			used += gap + w
		}
	}
	if lines == 0 {
		return 0
	}
	return float64(lines)*size*lineHeight + 4
}

func (p *metricsProbe) text(s string, st textStyle, indent float64) float64 {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return 0
	}
	style := ""
	if st.bold {
		style = "B"
	}
	p.pdf.SetFont("Helvetica", style, st.size*pxToPt)
	width := (p.width - indent) * pxToPt
	if width <= 0 {
		width = 1
	}
	lines := len(p.pdf.SplitText(latin1(s), width))
	if lines == 0 {
		lines = 1
	}
	return float64(lines) * st.size * lineHeight
}

func (p *metricsProbe) Release() error {
	if p.released {
		return nil
	}
	p.released = true
	p.m.open.Add(-1)
	return nil
}

func hasOnlyInline(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if _, block := blockStyles[c.DataAtom]; block {
			return false
		}
		if _, container := containerSpace[c.DataAtom]; container {
			return false
		}
		if c.DataAtom == atom.Ol || !hasOnlyInline(c) {
			return false
		}
	}
	return true
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(class, name string) bool {
	for _, c := range strings.Fields(class) {
		if c == name {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.DataAtom == atom.Br {
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

var paddingRe = regexp.MustCompile(`padding\s*:\s*([^;]+)`)

// horizontalPadding reads the left and right padding in px from an inline
// style using the CSS shorthand rules.
func horizontalPadding(style string) float64 {
	m := paddingRe.FindStringSubmatch(style)
	if m == nil {
		return 0
	}
	vals := strings.Fields(m[1])
	px := func(i int) float64 {
		v, _ := strconv.ParseFloat(strings.TrimSuffix(vals[i], "px"), 64)
		return v
	}
	switch len(vals) {
	case 1:
		return 2 * px(0)
	case 2, 3:
		return 2 * px(1)
	case 4:
		return px(1) + px(3)
	}
	return 0
}

// core font metrics only cover Latin-1
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xff {
			return '?'
		}
		return r
	}, s)
}
