package playback

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// DefaultName is the name of a playback created without one.
const DefaultName = "New Playback"

// Range is the time window of a track, in seconds.
type Range struct {
	// Offset is the delay before play fires.
	Offset float64 `json:"offset"`

	// Duration, when set, schedules pause at Offset+Duration.
	Duration *float64 `json:"duration"`

	// Start is the seek position passed to play.
	Start float64 `json:"start"`
}

// Track binds a component to a range.
type Track struct {
	Component string `json:"component"`
	Range     Range  `json:"range"`
}

// Timeline is an ordered list of tracks, at most one per component.
type Timeline struct {
	Tracks []*Track `json:"tracks"`
}

// MarshalJSON implements json.Marshaler.
func (t Timeline) MarshalJSON() ([]byte, error) {
	tracks := t.Tracks
	if tracks == nil {
		tracks = []*Track{}
	}
	return json.Marshal(struct {
		Tracks []*Track `json:"tracks"`
	}{tracks})
}

// Track returns the track bound to a component, or nil.
func (t *Timeline) Track(componentID string) *Track {
	for _, tr := range t.Tracks {
		if tr.Component == componentID {
			return tr
		}
	}
	return nil
}

// Merge reconciles the tracks against a payload by component id: existing
// tracks take the payload's range, new ones are appended and tracks absent
// from the payload are dropped.
func (t *Timeline) Merge(tracks []*Track) {
	for _, in := range tracks {
		if existing := t.Track(in.Component); existing != nil {
			existing.Range = in.Range
			continue
		}
		t.Tracks = append(t.Tracks, &Track{Component: in.Component, Range: in.Range})
	}

	keep := t.Tracks[:0]
	for _, tr := range t.Tracks {
		for _, in := range tracks {
			if in.Component == tr.Component {
				keep = append(keep, tr)
				break
			}
		}
	}
	t.Tracks = keep
}

// Clone returns a deep copy.
func (t *Timeline) Clone() Timeline {
	out := Timeline{Tracks: make([]*Track, len(t.Tracks))}
	for i, tr := range t.Tracks {
		c := *tr
		if tr.Range.Duration != nil {
			d := *tr.Range.Duration
			c.Range.Duration = &d
		}
		out.Tracks[i] = &c
	}
	return out
}

// Playback is a named, schedulable timeline.
type Playback struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Timeline Timeline `json:"timeline"`

	// StartTime is the epoch millisecond of the current run, nil when idle.
	StartTime *int64 `json:"startTime"`

	// Time is the playhead position in seconds.
	Time float64 `json:"time"`
}

// New creates an empty playback. An empty name selects the default.
func New(name string) *Playback {
	if name == "" {
		name = DefaultName
	}
	return &Playback{ID: uuid.NewString(), Name: name}
}

// Parse decodes a playback, defaulting missing fields.
func Parse(data []byte) (*Playback, error) {
	p := &Playback{Name: DefaultName}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return p, nil
}

// Merge applies a partial payload. The timeline is reconciled by component,
// an explicit null startTime clears it, and the id is preserved.
func (p *Playback) Merge(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	var tl *Timeline
	if v, ok := raw["timeline"]; ok {
		tl = &Timeline{}
		if err := json.Unmarshal(v, tl); err != nil {
			return fmt.Errorf("%w: timeline: %w", ErrInvalidJSON, err)
		}
	}
	var st *int64
	_, hasStart := raw["startTime"]
	if hasStart {
		if err := json.Unmarshal(raw["startTime"], &st); err != nil {
			return fmt.Errorf("%w: startTime: %w", ErrInvalidJSON, err)
		}
	}

	if tl != nil {
		p.Timeline.Merge(tl.Tracks)
	}
	if v, ok := raw["name"]; ok {
		var name string
		if err := json.Unmarshal(v, &name); err == nil && name != "" {
			p.Name = name
		}
	}
	if hasStart {
		p.StartTime = st
	}
	if v, ok := raw["time"]; ok {
		var tm float64
		if err := json.Unmarshal(v, &tm); err == nil {
			p.Time = tm
		}
	}
	return nil
}

// Clone returns a deep copy.
func (p *Playback) Clone() *Playback {
	c := *p
	c.Timeline = p.Timeline.Clone()
	if p.StartTime != nil {
		st := *p.StartTime
		c.StartTime = &st
	}
	return &c
}
