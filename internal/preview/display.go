// Package preview holds the navigation state of the page-by-page resume
// preview: one fragment visible at a time with forward/back controls.
package preview

import (
	"fmt"
	"sync"

	"resume-preview/internal/pagination"
)

// Display shows one page fragment at a time.
type Display struct {
	mu      sync.Mutex
	pages   []pagination.PageFragment
	index   int
	section string
}

// NewDisplay creates a display positioned on the first page.
func NewDisplay(pages []pagination.PageFragment) *Display {
	return &Display{pages: pages}
}

// Update replaces the fragments after a re-pagination. The current page is
// kept unless it no longer exists.
func (d *Display) Update(pages []pagination.PageFragment) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pages = pages
	if d.index >= len(pages) {
		d.index = max(len(pages)-1, 0)
	}
}

// Switch activates another resume section and resets to the first page.
func (d *Display) Switch(section string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if section != d.section {
		d.section = section
		d.index = 0
	}
}

// Section returns the active section.
func (d *Display) Section() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.section
}

// Current returns the visible fragment; ok is false when there are no pages.
func (d *Display) Current() (pagination.PageFragment, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pages) == 0 {
		return pagination.PageFragment{}, false
	}
	return d.pages[d.index], true
}

// Next moves forward one page and reports whether it moved.
func (d *Display) Next() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.index+1 >= len(d.pages) {
		return false
	}
	d.index++
	return true
}

// Prev moves back one page and reports whether it moved.
func (d *Display) Prev() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.index == 0 {
		return false
	}
	d.index--
	return true
}

// Goto jumps to the 1-based page n, clamped to the available pages.
func (d *Display) Goto(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case n < 1 || len(d.pages) == 0:
		d.index = 0
	case n > len(d.pages):
		d.index = len(d.pages) - 1
	default:
		d.index = n - 1
	}
}

// Page returns the 1-based current page and the page count.
func (d *Display) Page() (n, total int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pages) == 0 {
		return 0, 0
	}
	return d.index + 1, len(d.pages)
}

// Indicator renders the "Page N of M" label.
func (d *Display) Indicator() string {
	n, total := d.Page()
	return fmt.Sprintf("Page %d of %d", n, total)
}
