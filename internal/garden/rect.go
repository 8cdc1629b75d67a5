package garden

import "fmt"

// Rect is an inclusive rectangle of tiles. A normalized Rect has
// Point1 <= Point2 on both axes.
type Rect struct {
	Point1 Vector `json:"point1"`
	Point2 Vector `json:"point2"`
}

// NewRect builds a normalized rectangle from two arbitrary corners.
func NewRect(a, b Vector) Rect {
	return Rect{
		Point1: Vector{X: min(a.X, b.X), Y: min(a.Y, b.Y)},
		Point2: Vector{X: max(a.X, b.X), Y: max(a.Y, b.Y)},
	}
}

// Normalize returns r with its corners ordered component-wise.
func (r Rect) Normalize() Rect {
	return NewRect(r.Point1, r.Point2)
}

func (r Rect) String() string {
	return fmt.Sprintf("%s to %s", r.Point1, r.Point2)
}

// Overlaps reports whether two normalized rectangles share at least one tile.
func (r Rect) Overlaps(o Rect) bool {
	return !(r.Point2.X < o.Point1.X || o.Point2.X < r.Point1.X ||
		r.Point2.Y < o.Point1.Y || o.Point2.Y < r.Point1.Y)
}

// InBounds reports whether both corners lie on the garden.
func (r Rect) InBounds() bool {
	return InBounds(r.Point1) && InBounds(r.Point2)
}

func (r Rect) Width() int  { return r.Point2.X - r.Point1.X + 1 }
func (r Rect) Height() int { return r.Point2.Y - r.Point1.Y + 1 }
func (r Rect) Area() int   { return r.Width() * r.Height() }

// Positions lists the tiles of r row by row, left to right, which is the
// order the page is clicked in.
func (r Rect) Positions() []Vector {
	if r.Point2.X < r.Point1.X || r.Point2.Y < r.Point1.Y {
		return nil
	}
	out := make([]Vector, 0, r.Area())
	for y := r.Point1.Y; y <= r.Point2.Y; y++ {
		for x := r.Point1.X; x <= r.Point2.X; x++ {
			out = append(out, Vector{X: x, Y: y})
		}
	}
	return out
}
