package component

import "github.com/nerrad567/screener-core/internal/geometry"

// Browser embeds a web page rendered at a fixed viewport size.
type Browser struct {
	Base
	URL        string        `json:"url"`
	Size       geometry.Vec2 `json:"size"`
	ZoomFactor float64       `json:"zoomFactor"`
}

// BrowserFrame is the render payload of a browser slot.
type BrowserFrame struct {
	URL         string        `json:"url"`
	Size        geometry.Vec2 `json:"size"`
	ZoomFactor  float64       `json:"zoomFactor"`
	Interactive bool          `json:"interactive"`
}

// NewBrowser returns a browser showing a blank page.
func NewBrowser() Component {
	return &Browser{
		URL:        "about:blank",
		Size:       geometry.Vec2{X: 800, Y: 600},
		ZoomFactor: 1,
	}
}

func (b *Browser) normalize() {
	if b.URL == "" {
		b.URL = "about:blank"
	}
	if b.ZoomFactor <= 0 {
		b.ZoomFactor = 1
	}
}

// Actions returns interact(), which output surfaces use to hand input focus
// to the embedded page. The editor ignores it.
func (b *Browser) Actions() map[string]Action {
	return map[string]Action{
		"interact": func(ActionContext, ...any) error { return nil },
	}
}

// Properties lists the editable browser fields.
func (b *Browser) Properties() []Property {
	return append(b.Base.Properties(),
		Property{ID: "url", Label: "URL", Kind: KindText, Value: b.URL, UpdateOnBlur: true},
		Property{ID: "size", Label: "Size", Kind: KindVec2, Value: b.Size},
		Property{ID: "zoomFactor", Label: "Zoom Factor", Kind: KindNumber, Value: b.ZoomFactor},
		Property{ID: "interact", Label: "Interact", Kind: KindAction, Action: "interact"},
	)
}

// Render returns the page description.
func (b *Browser) Render(_ string, rc RenderContext) Content {
	return Content{
		ComponentID: b.ID,
		Type:        b.Type,
		Data: BrowserFrame{
			URL:         b.URL,
			Size:        b.Size,
			ZoomFactor:  b.ZoomFactor,
			Interactive: !rc.Editor,
		},
	}
}
