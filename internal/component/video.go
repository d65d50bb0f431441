package component

import "time"

// Fit is how media is scaled into its slot.
type Fit string

const (
	FitContain Fit = "contain"
	FitCover   Fit = "cover"
	FitFill    Fit = "fill"
)

func (f Fit) valid() bool {
	return f == FitContain || f == FitCover || f == FitFill
}

// Video plays a media file. StartTime is the epoch millisecond at which
// playback position zero was (or would have been) reached, so a surface that
// renders late can seek to now-StartTime.
type Video struct {
	Base
	Src       string  `json:"src"`
	Fit       Fit     `json:"fit"`
	Volume    float64 `json:"volume"`
	StartTime int64   `json:"startTime"`
	Playing   bool    `json:"playing"`
	Duration  float64 `json:"duration"`

	media slotMedia
}

// VideoFrame is the render payload of a video slot.
type VideoFrame struct {
	Fit         Fit     `json:"fit"`
	Volume      float64 `json:"volume"`
	Playing     bool    `json:"playing"`
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
}

// NewVideo returns a video with default settings.
func NewVideo() Component {
	return &Video{Fit: FitContain, Volume: 1}
}

func (v *Video) normalize() {
	if !v.Fit.valid() {
		v.Fit = FitContain
	}
	v.Volume = clamp(v.Volume, 0, 1)
	if v.Duration < 0 {
		v.Duration = 0
	}
}

// Actions returns play(seconds) and pause().
func (v *Video) Actions() map[string]Action {
	return map[string]Action{
		"play": func(ctx ActionContext, args ...any) error {
			seek, _ := argFloat(args, 0)
			v.Playing = true
			v.StartTime = ctx.Now.UnixMilli() - int64(seek*1000)
			return nil
		},
		"pause": func(ActionContext, ...any) error {
			v.Playing = false
			return nil
		},
	}
}

// Properties lists the editable video fields.
func (v *Video) Properties() []Property {
	return append(v.Base.Properties(),
		Property{ID: "src", Label: "Source", Kind: KindText, Value: v.Src, UpdateOnBlur: true},
		Property{ID: "fit", Label: "Fit", Kind: KindSelect, Value: string(v.Fit), Options: fitOptions},
		Property{ID: "volume", Label: "Volume", Kind: KindNumber, Value: v.Volume},
		Property{ID: "play", Label: "Play", Kind: KindAction, Action: "play"},
		Property{ID: "duration", Label: "Duration", Kind: KindNumber, Value: v.Duration, ReadOnly: true},
	)
}

// Render reports the playback state for one slot. Output surfaces are muted;
// audio belongs to the editor.
func (v *Video) Render(slotID string, rc RenderContext) Content {
	st := v.media.resolve(v.ID, slotID, v.Src, rc)

	frame := VideoFrame{
		Fit:      v.Fit,
		Volume:   v.Volume,
		Playing:  v.Playing,
		Duration: v.Duration,
	}
	if !rc.Editor {
		frame.Volume = 0
	}
	if v.Playing {
		now := rc.Now
		if now.IsZero() {
			now = time.Now()
		}
		frame.CurrentTime = float64(now.UnixMilli()-v.StartTime) / 1000
	}

	return Content{
		ComponentID: v.ID,
		Type:        v.Type,
		Status:      st.status,
		Source:      st.path,
		Data:        frame,
	}
}

// ForgetSlot drops the media state of a removed slot.
func (v *Video) ForgetSlot(slotID string) {
	v.media.forget(slotID)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
