// Package garden models the Molehill Empire garden grid: tile coordinates,
// rectangles of tiles, the growth state of a tile as the page renders it and
// the crops that can be planted.
package garden

import (
	"fmt"
	"math"
)

// Garden dimensions
const (
	Width     = 17
	Height    = 12
	TileCount = Width * Height
)

// Vector is a 1-based tile position: X is the column, Y the row.
type Vector struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// V is shorthand for Vector{X: x, Y: y}.
func V(x, y int) Vector {
	return Vector{X: x, Y: y}
}

func (v Vector) String() string {
	return fmt.Sprintf("(%d, %d)", v.X, v.Y)
}

func (v Vector) Equals(o Vector) bool {
	return v.X == o.X && v.Y == o.Y
}

func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vector) Mul(scalar int) Vector {
	return Vector{X: v.X * scalar, Y: v.Y * scalar}
}

// Div divides both components, truncating toward zero.
func (v Vector) Div(scalar int) Vector {
	return Vector{X: v.X / scalar, Y: v.Y / scalar}
}

// Distance is the euclidean distance between two tiles.
func (v Vector) Distance(o Vector) float64 {
	dx := float64(v.X - o.X)
	dy := float64(v.Y - o.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func (v Vector) Array() [2]int {
	return [2]int{v.X, v.Y}
}

// InBounds reports whether v addresses a tile of the garden.
func InBounds(v Vector) bool {
	return v.X >= 1 && v.X <= Width && v.Y >= 1 && v.Y <= Height
}

// TileIndex converts a position to the page's linear tile number.
func TileIndex(v Vector) int {
	return v.X + (v.Y-1)*Width
}

// TileCoords is the inverse of TileIndex.
func TileCoords(index int) Vector {
	y := (index-1)/Width + 1
	x := index - (y-1)*Width
	return Vector{X: x, Y: y}
}
