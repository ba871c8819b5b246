package pagination

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidGeometry is returned when a template supplies page geometry
	// that cannot hold any content.
	ErrInvalidGeometry = errors.New("pagination: invalid page geometry")
	// ErrMeasurement is returned when the layout probe cannot be created or read.
	ErrMeasurement = errors.New("pagination: measurement failed")
)

// ContentBlock is one top-level visual unit of a rendered resume.
// Content is opaque markup; the paginator only measures and relocates it.
type ContentBlock struct {
	Key     string  `json:"key"`
	Content string  `json:"content"`
	Height  float64 `json:"height"`
}

// PageGeometry describes the printable area of one template, in CSS pixels.
type PageGeometry struct {
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
	// UsableHeight is the page height minus margins and any decoration
	// repeated on every page.
	UsableHeight float64 `json:"usable_height"`
	// PageStyle is applied to the first page container.
	PageStyle string `json:"page_style,omitempty"`
	// ContinuationStyle is applied to every page after the first.
	ContinuationStyle string `json:"continuation_style,omitempty"`
}

// Validate reports ErrInvalidGeometry for geometry the paginator must not be
// called with.
func (g PageGeometry) Validate() error {
	switch {
	case g.PageWidth <= 0:
		return fmt.Errorf("%w: page width %.2f", ErrInvalidGeometry, g.PageWidth)
	case g.UsableHeight <= 0:
		return fmt.Errorf("%w: usable height %.2f", ErrInvalidGeometry, g.UsableHeight)
	case g.PageHeight > 0 && g.UsableHeight > g.PageHeight:
		return fmt.Errorf("%w: usable height %.2f exceeds page height %.2f", ErrInvalidGeometry, g.UsableHeight, g.PageHeight)
	}
	return nil
}

// PageFragment is one page worth of unsplit blocks plus the style the page
// container is rendered with.
type PageFragment struct {
	Index  int            `json:"index"`
	Blocks []ContentBlock `json:"blocks"`
	Style  string         `json:"style,omitempty"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	// Filled is the measured height of the page content. When everything
	// fits on one page only the total is measured, so block heights stay
	// unset and Filled carries the total.
	Filled float64 `json:"filled"`
}

// ContentHeight is the measured height of the fragment's content.
func (f PageFragment) ContentHeight() float64 {
	return f.Filled
}

// Keys returns the block keys in page order.
func (f PageFragment) Keys() []string {
	keys := make([]string, 0, len(f.Blocks))
	for _, b := range f.Blocks {
		keys = append(keys, b.Key)
	}
	return keys
}

// HTML reconstructs the page as a single container element.
func (f PageFragment) HTML() string {
	var b strings.Builder
	b.WriteString(`<div class="page" data-page="`)
	fmt.Fprintf(&b, "%d", f.Index+1)
	b.WriteString(`"`)
	if f.Style != "" {
		b.WriteString(` style="`)
		b.WriteString(strings.ReplaceAll(f.Style, `"`, "&quot;"))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	for _, blk := range f.Blocks {
		b.WriteString(blk.Content)
	}
	b.WriteString("</div>")
	return b.String()
}
