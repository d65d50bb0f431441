package geometry

import (
	"encoding/json"
	"math"
	"strconv"
)

// TransformMatrix is a 2D affine transform in CSS matrix() order:
//
//	| A C E |
//	| B D F |
//	| 0 0 1 |
type TransformMatrix struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
	D float64 `json:"d"`
	E float64 `json:"e"`
	F float64 `json:"f"`
}

// Identity returns the identity transform.
func Identity() TransformMatrix {
	return TransformMatrix{A: 1, D: 1}
}

// IsIdentity reports whether m is exactly the identity transform.
func (m TransformMatrix) IsIdentity() bool {
	return m.Equals(Identity())
}

// Multiply returns m × o, i.e. o is applied first, then m.
func (m TransformMatrix) Multiply(o TransformMatrix) TransformMatrix {
	return TransformMatrix{
		A: m.A*o.A + m.C*o.B,
		B: m.B*o.A + m.D*o.B,
		C: m.A*o.C + m.C*o.D,
		D: m.B*o.C + m.D*o.D,
		E: m.A*o.E + m.C*o.F + m.E,
		F: m.B*o.E + m.D*o.F + m.F,
	}
}

// Inverse returns the inverse transform. A singular matrix has no inverse;
// in that case the identity is returned with ok=false.
func (m TransformMatrix) Inverse() (inv TransformMatrix, ok bool) {
	det := m.A*m.D - m.B*m.C
	if det == 0 || math.IsNaN(det) {
		return Identity(), false
	}
	return TransformMatrix{
		A: m.D / det,
		B: -m.B / det,
		C: -m.C / det,
		D: m.A / det,
		E: (m.C*m.F - m.D*m.E) / det,
		F: (m.B*m.E - m.A*m.F) / det,
	}, true
}

// Translate appends a translation.
func (m TransformMatrix) Translate(x, y float64) TransformMatrix {
	return m.Multiply(TransformMatrix{A: 1, D: 1, E: x, F: y})
}

// Scale appends a scale.
func (m TransformMatrix) Scale(x, y float64) TransformMatrix {
	return m.Multiply(TransformMatrix{A: x, D: y})
}

// Rotate appends a rotation by angle radians.
func (m TransformMatrix) Rotate(angle float64) TransformMatrix {
	sin, cos := math.Sincos(angle)
	return m.Multiply(TransformMatrix{A: cos, B: sin, C: -sin, D: cos})
}

// Skew appends a skew with x and y angles in radians.
func (m TransformMatrix) Skew(x, y float64) TransformMatrix {
	return m.Multiply(TransformMatrix{A: 1, B: math.Tan(x), C: math.Tan(y), D: 1})
}

// TransformPoint maps p through the transform.
func (m TransformMatrix) TransformPoint(p Vec2) Vec2 {
	return Vec2{
		X: p.X*m.A + p.Y*m.C + m.E,
		Y: p.X*m.B + p.Y*m.D + m.F,
	}
}

// Equals compares all six fields exactly.
func (m TransformMatrix) Equals(o TransformMatrix) bool {
	return m.A == o.A && m.B == o.B && m.C == o.C && m.D == o.D && m.E == o.E && m.F == o.F
}

// String renders the transform as a CSS matrix() function.
func (m TransformMatrix) String() string {
	b := make([]byte, 0, 64)
	b = append(b, "matrix("...)
	for i, v := range [6]float64{m.A, m.B, m.C, m.D, m.E, m.F} {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = strconv.AppendFloat(b, v, 'g', -1, 64)
	}
	return string(append(b, ')'))
}

// UnmarshalJSON fills absent fields from the identity transform.
func (m *TransformMatrix) UnmarshalJSON(data []byte) error {
	var raw struct {
		A, B, C, D, E, F *float64
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = TransformMatrix{
		A: finite(deref(raw.A, 1)),
		B: finite(deref(raw.B, 0)),
		C: finite(deref(raw.C, 0)),
		D: finite(deref(raw.D, 1)),
		E: finite(deref(raw.E, 0)),
		F: finite(deref(raw.F, 0)),
	}
	return nil
}
