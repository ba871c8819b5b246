package pagination

// Split partitions measured blocks into pages with greedy first-fit, keeping
// input order. A block that does not fit the remaining space starts a new
// page; a block taller than a whole page gets a page of its own and overflows
// it instead of being truncated. Split always returns at least one fragment.
func Split(blocks []ContentBlock, g PageGeometry) []PageFragment {
	var (
		pages   []PageFragment
		current []ContentBlock
		height  float64
	)

	flush := func() {
		pages = append(pages, newFragment(len(pages), current, g))
		current = nil
		height = 0
	}

	for _, blk := range blocks {
		h := blk.Height
		if h < 0 {
			h = 0
		}
		// exact fit stays on the page
		if height+h > g.UsableHeight && len(current) > 0 {
			flush()
		}
		current = append(current, blk)
		height += h
	}
	if len(current) > 0 {
		flush()
	}

	if len(pages) == 0 {
		return []PageFragment{newFragment(0, nil, g)}
	}
	return pages
}

func newFragment(index int, blocks []ContentBlock, g PageGeometry) PageFragment {
	style := g.PageStyle
	if index > 0 {
		style = g.ContinuationStyle
	}
	out := make([]ContentBlock, len(blocks))
	copy(out, blocks)
	var filled float64
	for _, b := range out {
		filled += max(b.Height, 0)
	}
	return PageFragment{
		Index:  index,
		Blocks: out,
		Style:  style,
		Width:  g.PageWidth,
		Height: g.PageHeight,
		Filled: filled,
	}
}
