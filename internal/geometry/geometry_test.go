package geometry

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNewRect_NormalisesInvalid(t *testing.T) {
	r := NewRect(math.NaN(), 10, math.Inf(1), 20)
	want := Rect{X: 0, Y: 10, Width: 0, Height: 20}
	if !r.Equals(want) {
		t.Errorf("NewRect() = %+v, want %+v", r, want)
	}
}

func TestRect_Edges(t *testing.T) {
	r := NewRect(10, 20, 100, 50)

	if r.Left() != 10 || r.Top() != 20 || r.Right() != 110 || r.Bottom() != 70 {
		t.Errorf("edges = %v %v %v %v", r.Left(), r.Top(), r.Right(), r.Bottom())
	}
	if c := r.Center(); !c.Equals(Vec2{X: 60, Y: 45}) {
		t.Errorf("Center() = %+v", c)
	}
}

func TestRect_Inset(t *testing.T) {
	r := NewRect(0, 0, 100, 100).Inset(NewMargin(10, 20, 30, 40))
	want := NewRect(40, 10, 40, 60)
	if !r.Equals(want) {
		t.Errorf("Inset() = %+v, want %+v", r, want)
	}
}

func TestRect_UnmarshalMissingFields(t *testing.T) {
	var r Rect
	if err := json.Unmarshal([]byte(`{"x":5,"width":null}`), &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !r.Equals(Rect{X: 5}) {
		t.Errorf("Rect = %+v, want {X:5}", r)
	}
}

func TestNewMargin_Cascade(t *testing.T) {
	tests := []struct {
		name string
		args []float64
		want Margin
	}{
		{"none", nil, Margin{}},
		{"one", []float64{10}, Margin{10, 10, 10, 10}},
		{"two", []float64{10, 20}, Margin{10, 20, 10, 20}},
		{"three", []float64{10, 20, 30}, Margin{10, 20, 30, 20}},
		{"four", []float64{10, 20, 30, 40}, Margin{10, 20, 30, 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewMargin(tt.args...); !got.Equals(tt.want) {
				t.Errorf("NewMargin(%v) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestMargin_UnmarshalCascade(t *testing.T) {
	var m Margin
	if err := json.Unmarshal([]byte(`{"top":4,"right":8}`), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !m.Equals(Margin{Top: 4, Right: 8, Bottom: 4, Left: 8}) {
		t.Errorf("Margin = %+v", m)
	}
}

func TestTransformMatrix_InverseRoundTrip(t *testing.T) {
	m := Identity().Translate(30, -12).Rotate(math.Pi / 6).Scale(2, 0.5)

	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("Inverse() ok = false for invertible matrix")
	}

	p := Vec2{X: 17, Y: -4}
	back := inv.TransformPoint(m.TransformPoint(p))
	if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
		t.Errorf("inverse(transform(p)) = %+v, want %+v", back, p)
	}
}

func TestTransformMatrix_Singular(t *testing.T) {
	_, ok := TransformMatrix{}.Inverse()
	if ok {
		t.Error("Inverse() of zero matrix reported ok")
	}
}

func TestTransformMatrix_TranslateThenScale(t *testing.T) {
	m := Identity().Translate(10, 20).Scale(2, 3)
	got := m.TransformPoint(Vec2{X: 1, Y: 1})
	if !got.Equals(Vec2{X: 12, Y: 23}) {
		t.Errorf("TransformPoint = %+v, want {12 23}", got)
	}
}

func TestTransformMatrix_String(t *testing.T) {
	got := TransformMatrix{A: 1, B: 0, C: 0, D: 1, E: 12.5, F: -3}.String()
	want := "matrix(1, 0, 0, 1, 12.5, -3)"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestTransformMatrix_UnmarshalDefaultsIdentity(t *testing.T) {
	var m TransformMatrix
	if err := json.Unmarshal([]byte(`{"e":5}`), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !m.Equals(TransformMatrix{A: 1, D: 1, E: 5}) {
		t.Errorf("matrix = %+v", m)
	}
}

func TestGeometry_JSONRoundTrip(t *testing.T) {
	r := NewRect(1, 2, 3, 4)
	m := NewMargin(1, 2, 3, 4)
	x := Identity().Rotate(0.3)

	data, err := json.Marshal(struct {
		R Rect            `json:"r"`
		M Margin          `json:"m"`
		X TransformMatrix `json:"x"`
	}{r, m, x})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out struct {
		R Rect            `json:"r"`
		M Margin          `json:"m"`
		X TransformMatrix `json:"x"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !out.R.Equals(r) || !out.M.Equals(m) || !out.X.Equals(x) {
		t.Errorf("round trip mismatch: %+v", out)
	}
}
