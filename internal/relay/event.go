package relay

import (
	"encoding/json"
	"time"
)

// Channels name the kinds of change a manager reports. WebSocket clients
// subscribe to these names.
const (
	ChannelSlice           = "slice"
	ChannelComponent       = "component"
	ChannelScene           = "scene"
	ChannelActiveScene     = "scene.active"
	ChannelPlayback        = "playback"
	ChannelActivePlayback  = "playback.active"
	ChannelComponentAction = "component.action"
)

// Channels lists every channel in a stable order.
func Channels() []string {
	return []string{
		ChannelSlice,
		ChannelComponent,
		ChannelScene,
		ChannelActiveScene,
		ChannelPlayback,
		ChannelActivePlayback,
		ChannelComponentAction,
	}
}

// Event is one manager notification.
//
// For entity channels Data holds the entity's JSON and is null when the
// entity was removed. For the active channels ID is the new active id ("" for
// no active playback). Component actions carry Action and Args.
type Event struct {
	Channel string          `json:"channel"`
	ID      string          `json:"id"`
	Data    json.RawMessage `json:"data"`
	Action  string          `json:"action,omitempty"`
	Args    []any           `json:"args,omitempty"`
	At      time.Time       `json:"at"`
}

// Removed reports whether the event describes a deleted entity.
func (e Event) Removed() bool {
	switch e.Channel {
	case ChannelSlice, ChannelComponent, ChannelScene, ChannelPlayback:
		return e.Data == nil
	}
	return false
}
