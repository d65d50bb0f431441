package component

// PropertyKind selects the editor widget for a property.
type PropertyKind string

const (
	KindText     PropertyKind = "text"
	KindTextbox  PropertyKind = "textbox"
	KindNumber   PropertyKind = "number"
	KindCheckbox PropertyKind = "checkbox"
	KindSelect   PropertyKind = "select"
	KindVec2     PropertyKind = "vec2"
	KindRect     PropertyKind = "rect"
	KindMargin   PropertyKind = "margin"
	KindAction   PropertyKind = "action"
	KindColor    PropertyKind = "color"
	KindFont     PropertyKind = "font"
)

// Option is one choice of a select property.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Property describes one editable field. Editing surfaces send changes back
// as a partial component JSON keyed by ID; action properties invoke Action.
type Property struct {
	ID           string       `json:"id"`
	Label        string       `json:"label"`
	Kind         PropertyKind `json:"kind"`
	Value        any          `json:"value,omitempty"`
	Options      []Option     `json:"options,omitempty"`
	Labels       []string     `json:"labels,omitempty"`
	UpdateOnBlur bool         `json:"updateOnBlur,omitempty"`
	ReadOnly     bool         `json:"readOnly,omitempty"`
	Action       string       `json:"action,omitempty"`
}

var fitOptions = []Option{
	{Label: "Contain", Value: "contain"},
	{Label: "Cover", Value: "cover"},
	{Label: "Fill", Value: "fill"},
}
