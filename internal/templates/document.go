package templates

import (
	"fmt"
	"html"
	"strings"

	"resume-preview/internal/pagination"
)

// Document assembles a standalone print document with one fixed-size page
// container per fragment. Oversized fragments overflow their page rather
// than being clipped.
func (t *Template) Document(title string, pages []pagination.PageFragment) string {
	g := t.Geometry
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<title>%s</title><style>", html.EscapeString(title))
	fmt.Fprintf(&b, "@page{size:%.0fpx %.0fpx;margin:0}", g.PageWidth, g.PageHeight)
	fmt.Fprintf(&b, ".page{width:%.0fpx;min-height:%.0fpx;box-sizing:border-box;page-break-after:always;break-after:page}", g.PageWidth, g.PageHeight)
	b.WriteString(".page:last-child{page-break-after:auto;break-after:auto}\n")
	b.WriteString(t.Stylesheet)
	b.WriteString("</style></head><body>")
	fmt.Fprintf(&b, `<div class="%s">`, t.RootClass())
	for _, p := range pages {
		b.WriteString(p.HTML())
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

// RootClass is the class of the element pages are placed in.
func (t *Template) RootClass() string {
	return "resume " + t.ID
}
