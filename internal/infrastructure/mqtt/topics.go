package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is the root of every screener topic.
const DefaultTopicPrefix = "screener"

// State kinds published under {prefix}/state/{kind}/{id}.
const (
	KindScene     = "scene"
	KindSlice     = "slice"
	KindComponent = "component"
	KindPlayback  = "playback"
)

// Topics builds screener MQTT topics under a prefix.
//
//	topics := mqtt.NewTopics("screener")
//	topics.State(mqtt.KindScene, "s1")   // "screener/state/scene/s1"
//	topics.Command("scene.activate")     // "screener/command/scene.activate"
type Topics struct {
	prefix string
}

// NewTopics returns builders rooted at prefix. An empty prefix selects
// DefaultTopicPrefix and trailing slashes are dropped.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic root.
func (t Topics) Prefix() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// =============================================================================
// State Topics (retained)
// =============================================================================

// State returns the retained state topic of one entity.
//
// Example: screener/state/component/v1
func (t Topics) State(kind, id string) string {
	return fmt.Sprintf("%s/state/%s/%s", t.Prefix(), kind, id)
}

// ActiveScene returns the retained topic holding the active scene id.
//
// Example: screener/state/active_scene
func (t Topics) ActiveScene() string {
	return fmt.Sprintf("%s/state/active_scene", t.Prefix())
}

// ActivePlayback returns the retained topic holding the active playback id.
//
// Example: screener/state/active_playback
func (t Topics) ActivePlayback() string {
	return fmt.Sprintf("%s/state/active_playback", t.Prefix())
}

// =============================================================================
// Events and Commands
// =============================================================================

// ComponentAction returns the event topic for actions invoked on a component.
//
// Example: screener/event/component_action/v1
func (t Topics) ComponentAction(componentID string) string {
	return fmt.Sprintf("%s/event/component_action/%s", t.Prefix(), componentID)
}

// Command returns the topic a remote controller publishes a command on.
//
// Example: screener/command/playback.start
func (t Topics) Command(name string) string {
	return fmt.Sprintf("%s/command/%s", t.Prefix(), name)
}

// AllCommands returns the subscription pattern for every command.
//
// Pattern: screener/command/+
func (t Topics) AllCommands() string {
	return t.Command("+")
}

// CommandName extracts the command name from a command topic.
// ok is false for topics outside the command namespace.
func (t Topics) CommandName(topic string) (name string, ok bool) {
	name, ok = strings.CutPrefix(topic, t.Prefix()+"/command/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the online/offline status topic (also the LWT topic).
//
// Example: screener/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.Prefix())
}

// AllTopics returns a pattern matching every screener topic.
//
// Pattern: screener/#
func (t Topics) AllTopics() string {
	return t.Prefix() + "/#"
}
