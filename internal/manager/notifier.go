package manager

import "encoding/json"

// Notifier receives one call per change, in mutation order, while the
// manager's lock is held. Implementations must not block and must not call
// back into the Manager synchronously.
//
// A nil data argument means the entity was removed.
type Notifier interface {
	SliceUpdated(id string, data json.RawMessage)
	ComponentUpdated(id string, data json.RawMessage)
	SceneUpdated(id string, data json.RawMessage)
	ActiveSceneUpdated(id string)
	PlaybackUpdated(id string, data json.RawMessage)

	// ActivePlaybackUpdated receives "" when no playback is active.
	ActivePlaybackUpdated(id string)

	ComponentActionInvoked(id, action string, args []any)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) SliceUpdated(string, json.RawMessage)         {}
func (NopNotifier) ComponentUpdated(string, json.RawMessage)     {}
func (NopNotifier) SceneUpdated(string, json.RawMessage)         {}
func (NopNotifier) ActiveSceneUpdated(string)                    {}
func (NopNotifier) PlaybackUpdated(string, json.RawMessage)      {}
func (NopNotifier) ActivePlaybackUpdated(string)                 {}
func (NopNotifier) ComponentActionInvoked(string, string, []any) {}
