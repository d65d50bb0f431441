package geometry

import "encoding/json"

// Margin is a crop or padding on the four sides of a rectangle.
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// NewMargin follows CSS shorthand: missing right copies top, missing bottom
// copies top, missing left copies right.
//
//	NewMargin(10)          // 10 10 10 10
//	NewMargin(10, 20)      // 10 20 10 20
//	NewMargin(10, 20, 30)  // 10 20 30 20
func NewMargin(values ...float64) Margin {
	var top, right, bottom, left *float64
	if len(values) > 0 {
		top = &values[0]
	}
	if len(values) > 1 {
		right = &values[1]
	}
	if len(values) > 2 {
		bottom = &values[2]
	}
	if len(values) > 3 {
		left = &values[3]
	}
	return cascade(top, right, bottom, left)
}

// Equals compares all four sides exactly.
func (m Margin) Equals(o Margin) bool {
	return m.Top == o.Top && m.Right == o.Right && m.Bottom == o.Bottom && m.Left == o.Left
}

// IsZero reports whether no side is cropped.
func (m Margin) IsZero() bool {
	return m.Top == 0 && m.Right == 0 && m.Bottom == 0 && m.Left == 0
}

// UnmarshalJSON applies the shorthand cascade to absent keys.
func (m *Margin) UnmarshalJSON(data []byte) error {
	var raw struct {
		Top    *float64 `json:"top"`
		Right  *float64 `json:"right"`
		Bottom *float64 `json:"bottom"`
		Left   *float64 `json:"left"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = cascade(raw.Top, raw.Right, raw.Bottom, raw.Left)
	return nil
}

func cascade(top, right, bottom, left *float64) Margin {
	t := finite(deref(top, 0))
	r := t
	if right != nil {
		r = finite(*right)
	}
	b := t
	if bottom != nil {
		b = finite(*bottom)
	}
	l := r
	if left != nil {
		l = finite(*left)
	}
	return Margin{Top: t, Right: r, Bottom: b, Left: l}
}
