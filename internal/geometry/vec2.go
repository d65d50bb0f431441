package geometry

// Vec2 is a 2D point or size.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Equals compares both components exactly.
func (v Vec2) Equals(o Vec2) bool {
	return v.X == o.X && v.Y == o.Y
}
