// Package pagination splits rendered resume content into printable pages.
package pagination

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Option configures a Paginator.
type Option func(*Paginator)

// WithStylesheet sets the stylesheet injected into the measurement probe so
// blocks are laid out with the template's fonts and spacing.
func WithStylesheet(css string) Option {
	return func(p *Paginator) {
		p.stylesheet = css
	}
}

// WithRootClass sets the class attribute of the probe container.
func WithRootClass(class string) Option {
	return func(p *Paginator) {
		p.class = class
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(p *Paginator) {
		if l != nil {
			p.log = l
		}
	}
}

// Paginator measures content blocks through a Measurer and splits them into
// page fragments. It keeps no state between calls.
type Paginator struct {
	measurer   Measurer
	stylesheet string
	class      string
	log        *slog.Logger
}

// New creates a paginator backed by m.
func New(m Measurer, opts ...Option) *Paginator {
	p := &Paginator{measurer: m, log: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Paginate measures blocks at the geometry's page width and returns the page
// fragments. The input slice is never modified. An empty input yields one
// empty fragment; invalid geometry and measurement failures return an error.
func (p *Paginator) Paginate(ctx context.Context, blocks []ContentBlock, g PageGeometry) (pages []PageFragment, err error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return []PageFragment{newFragment(0, nil, g)}, nil
	}
	if p.measurer == nil {
		return nil, fmt.Errorf("%w: no measurer configured", ErrMeasurement)
	}

	probe, err := p.measurer.Acquire(ctx, ProbeSpec{
		Width:      g.PageWidth,
		Style:      g.PageStyle,
		Stylesheet: p.stylesheet,
		Class:      p.class,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: acquire probe: %w", ErrMeasurement, err)
	}
	defer func() {
		if rerr := probe.Release(); rerr != nil {
			p.log.Warn("pagination: probe release failed", "error", rerr)
			if err == nil {
				pages, err = nil, fmt.Errorf("%w: release probe: %w", ErrMeasurement, rerr)
			}
		}
	}()

	total, err := probe.Total(ctx, blocks)
	if err != nil {
		return nil, fmt.Errorf("%w: total height: %w", ErrMeasurement, err)
	}
	if total <= g.UsableHeight {
		p.log.Debug("pagination: single page", "blocks", len(blocks), "height", total)
		page := newFragment(0, blocks, g)
		page.Filled = total
		return []PageFragment{page}, nil
	}

	measured := make([]ContentBlock, len(blocks))
	for i, blk := range blocks {
		h, err := probe.Measure(ctx, blk)
		if err != nil {
			return nil, fmt.Errorf("%w: block %q: %w", ErrMeasurement, blk.Key, err)
		}
		blk.Height = h
		measured[i] = blk
	}

	pages = Split(measured, g)
	p.log.Debug("pagination: split", "blocks", len(blocks), "height", total, "pages", len(pages))
	return pages, nil
}

// IsConfigError reports whether err is a geometry problem in template code
// rather than a runtime measurement failure.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidGeometry)
}
