package pagination

import "context"

// ProbeSpec sizes the off-screen container blocks are rendered into.
type ProbeSpec struct {
	Width      float64
	Style      string
	Stylesheet string
	// Class is set on the container so scoped template rules apply.
	Class string
}

// Measurer creates layout probes. Implementations render content at the
// requested width in an isolated context, never in the visible preview.
type Measurer interface {
	Acquire(ctx context.Context, spec ProbeSpec) (Probe, error)
}

// Probe is exclusively owned by one pagination call and must be released on
// every exit path.
type Probe interface {
	// Total measures the height of all blocks laid out together.
	Total(ctx context.Context, blocks []ContentBlock) (float64, error)
	// Measure returns the height of a single block.
	Measure(ctx context.Context, block ContentBlock) (float64, error)
	Release() error
}
