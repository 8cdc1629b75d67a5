package selection

import "molehill-mcp/internal/garden"

// Picker follows the two-click corner picking on the garden: the first click
// fixes one corner, hovering previews the rectangle, the second click fixes
// the opposite corner.
type Picker struct {
	first  *garden.Vector
	second *garden.Vector
	hover  *garden.Vector
}

// Click feeds a clicked tile. It reports true once both corners are known.
// Clicks after that are ignored until Reset.
func (p *Picker) Click(v garden.Vector) bool {
	switch {
	case p.first == nil:
		p.first = &v
		p.hover = &v
	case p.second == nil:
		p.second = &v
	}
	return p.second != nil
}

// Hover moves the preview corner. It has no effect before the first click or
// after the second.
func (p *Picker) Hover(v garden.Vector) {
	if p.first == nil || p.second != nil {
		return
	}
	p.hover = &v
}

// Preview is the rectangle between the first corner and the hovered tile.
func (p *Picker) Preview() (garden.Rect, bool) {
	if p.first == nil || p.hover == nil {
		return garden.Rect{}, false
	}
	return garden.NewRect(*p.first, *p.hover), true
}

// First returns the first corner once clicked.
func (p *Picker) First() (garden.Vector, bool) {
	if p.first == nil {
		return garden.Vector{}, false
	}
	return *p.first, true
}

// Selected is the normalized rectangle once both corners are picked.
func (p *Picker) Selected() (garden.Rect, bool) {
	if p.first == nil || p.second == nil {
		return garden.Rect{}, false
	}
	return garden.NewRect(*p.first, *p.second), true
}

func (p *Picker) Reset() {
	p.first, p.second, p.hover = nil, nil, nil
}
