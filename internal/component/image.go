package component

import (
	"github.com/nerrad567/screener-core/internal/geometry"
	"github.com/nerrad567/screener-core/internal/media"
)

// Image shows a still picture.
type Image struct {
	Base
	Src string `json:"src"`
	Fit Fit    `json:"fit"`

	media slotMedia
}

// ImageFrame is the render payload of an image slot. NaturalSize is zero
// until the resolved file has been probed.
type ImageFrame struct {
	Fit         Fit           `json:"fit"`
	NaturalSize geometry.Vec2 `json:"naturalSize"`
	Format      string        `json:"format,omitempty"`
}

type imageInfo struct {
	size   geometry.Vec2
	format string
}

// NewImage returns an image with default settings.
func NewImage() Component {
	img := &Image{Fit: FitContain}
	img.media.settled = img.probe
	return img
}

func (img *Image) normalize() {
	if !img.Fit.valid() {
		img.Fit = FitContain
	}
}

func (img *Image) probe(slotID, src, path string) {
	info, err := media.ProbeImage(path)
	if err != nil {
		return
	}
	img.media.setExtra(slotID, src, imageInfo{
		size:   geometry.Vec2{X: float64(info.Width), Y: float64(info.Height)},
		format: info.Format,
	})
}

// Actions returns an empty table; images have no actions.
func (img *Image) Actions() map[string]Action {
	return map[string]Action{}
}

// Properties lists the editable image fields.
func (img *Image) Properties() []Property {
	return append(img.Base.Properties(),
		Property{ID: "src", Label: "Source", Kind: KindText, Value: img.Src, UpdateOnBlur: true},
		Property{ID: "fit", Label: "Fit", Kind: KindSelect, Value: string(img.Fit), Options: fitOptions},
	)
}

// Render reports the resolved source for one slot.
func (img *Image) Render(slotID string, rc RenderContext) Content {
	st := img.media.resolve(img.ID, slotID, img.Src, rc)

	frame := ImageFrame{Fit: img.Fit}
	if info, ok := st.extra.(imageInfo); ok {
		frame.NaturalSize = info.size
		frame.Format = info.format
	}

	return Content{
		ComponentID: img.ID,
		Type:        img.Type,
		Status:      st.status,
		Source:      st.path,
		Data:        frame,
	}
}

// ForgetSlot drops the media state of a removed slot.
func (img *Image) ForgetSlot(slotID string) {
	img.media.forget(slotID)
}
