package geometry

import (
	"encoding/json"
	"math"
)

// Rect is an axis-aligned rectangle in scene pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect builds a Rect, normalising NaN and infinite inputs to 0.
func NewRect(x, y, width, height float64) Rect {
	return Rect{
		X:      finite(x),
		Y:      finite(y),
		Width:  finite(width),
		Height: finite(height),
	}
}

// Left returns the x coordinate of the left edge.
func (r Rect) Left() float64 { return r.X }

// Top returns the y coordinate of the top edge.
func (r Rect) Top() float64 { return r.Y }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Vec2 {
	return Vec2{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Equals compares all four fields exactly.
func (r Rect) Equals(o Rect) bool {
	return r.X == o.X && r.Y == o.Y && r.Width == o.Width && r.Height == o.Height
}

// Inset shrinks the rectangle by a margin. The origin moves by the left/top
// margin and the size loses both opposing margins.
func (r Rect) Inset(m Margin) Rect {
	return NewRect(
		r.X+m.Left,
		r.Y+m.Top,
		r.Width-m.Left-m.Right,
		r.Height-m.Top-m.Bottom,
	)
}

// UnmarshalJSON replaces the whole rectangle. Absent keys become 0.
func (r *Rect) UnmarshalJSON(data []byte) error {
	var raw struct {
		X      *float64 `json:"x"`
		Y      *float64 `json:"y"`
		Width  *float64 `json:"width"`
		Height *float64 `json:"height"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = NewRect(deref(raw.X, 0), deref(raw.Y, 0), deref(raw.Width, 0), deref(raw.Height, 0))
	return nil
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func deref(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
