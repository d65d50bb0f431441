package component

import "fmt"

// Color is an RGBA colour with 0-255 channels and 0-1 alpha.
type Color struct {
	R int     `json:"r"`
	G int     `json:"g"`
	B int     `json:"b"`
	A float64 `json:"a"`
}

// CSS renders the colour as an rgba() function.
func (c Color) CSS() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", c.R, c.G, c.B, c.A)
}

func (c Color) clamped() Color {
	return Color{
		R: int(clamp(float64(c.R), 0, 255)),
		G: int(clamp(float64(c.G), 0, 255)),
		B: int(clamp(float64(c.B), 0, 255)),
		A: clamp(c.A, 0, 1),
	}
}

// Align is horizontal text alignment.
type Align string

const (
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
	AlignJustify Align = "justify"
)

// Text renders styled text.
type Text struct {
	Base
	Content       string  `json:"content"`
	FontSize      float64 `json:"fontSize"`
	FontFamily    string  `json:"fontFamily"`
	Color         Color   `json:"color"`
	Bold          bool    `json:"bold"`
	Italic        bool    `json:"italic"`
	Underline     bool    `json:"underline"`
	Strikethrough bool    `json:"strikethrough"`
	Align         Align   `json:"align"`
	LineHeight    float64 `json:"lineHeight"`
	LetterSpacing float64 `json:"letterSpacing"`
}

// TextFrame is the render payload of a text slot.
type TextFrame struct {
	Content string            `json:"content"`
	Style   map[string]string `json:"style"`
}

// NewText returns a text component with default styling.
func NewText() Component {
	return &Text{
		Content:    "Text",
		FontSize:   16,
		FontFamily: "Arial",
		Color:      Color{R: 255, G: 255, B: 255, A: 1},
		Align:      AlignLeft,
		LineHeight: 1.5,
	}
}

func (t *Text) normalize() {
	t.Color = t.Color.clamped()
	switch t.Align {
	case AlignLeft, AlignCenter, AlignRight, AlignJustify:
	default:
		t.Align = AlignLeft
	}
	if t.FontSize <= 0 {
		t.FontSize = 16
	}
}

// Actions returns an empty table; text has no actions.
func (t *Text) Actions() map[string]Action {
	return map[string]Action{}
}

// Properties lists the editable text fields.
func (t *Text) Properties() []Property {
	return append(t.Base.Properties(),
		Property{ID: "content", Label: "Content", Kind: KindTextbox, Value: t.Content},
		Property{ID: "fontFamily", Label: "Font", Kind: KindFont, Value: t.FontFamily},
		Property{ID: "fontSize", Label: "Font Size", Kind: KindNumber, Value: t.FontSize},
		Property{ID: "color", Label: "Color", Kind: KindColor, Value: t.Color},
		Property{ID: "bold", Label: "Bold", Kind: KindCheckbox, Value: t.Bold},
		Property{ID: "italic", Label: "Italic", Kind: KindCheckbox, Value: t.Italic},
		Property{ID: "underline", Label: "Underline", Kind: KindCheckbox, Value: t.Underline},
		Property{ID: "strikethrough", Label: "Strikethrough", Kind: KindCheckbox, Value: t.Strikethrough},
		Property{ID: "align", Label: "Align", Kind: KindSelect, Value: string(t.Align), Options: []Option{
			{Label: "Left", Value: string(AlignLeft)},
			{Label: "Center", Value: string(AlignCenter)},
			{Label: "Right", Value: string(AlignRight)},
			{Label: "Justify", Value: string(AlignJustify)},
		}},
		Property{ID: "lineHeight", Label: "Line Height", Kind: KindNumber, Value: t.LineHeight},
		Property{ID: "letterSpacing", Label: "Letter Spacing", Kind: KindNumber, Value: t.LetterSpacing},
	)
}

// Render returns the text with its CSS style.
func (t *Text) Render(_ string, _ RenderContext) Content {
	style := map[string]string{
		"fontFamily":    t.FontFamily,
		"fontSize":      fmt.Sprintf("%gpx", t.FontSize),
		"color":         t.Color.CSS(),
		"textAlign":     string(t.Align),
		"lineHeight":    fmt.Sprintf("%g", t.LineHeight),
		"letterSpacing": fmt.Sprintf("%gpx", t.LetterSpacing),
		"fontWeight":    "normal",
		"fontStyle":     "normal",
	}
	if t.Bold {
		style["fontWeight"] = "bold"
	}
	if t.Italic {
		style["fontStyle"] = "italic"
	}
	var decorations []string
	if t.Underline {
		decorations = append(decorations, "underline")
	}
	if t.Strikethrough {
		decorations = append(decorations, "line-through")
	}
	if len(decorations) > 0 {
		style["textDecoration"] = joinSpace(decorations)
	}

	return Content{
		ComponentID: t.ID,
		Type:        t.Type,
		Data:        TextFrame{Content: t.Content, Style: style},
	}
}

func joinSpace(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += " " + p
	}
	return out
}
