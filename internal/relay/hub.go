package relay

// Broadcaster delivers a payload to every WebSocket client subscribed to a
// channel. *api.Hub implements it.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// HubSink forwards every event to a Broadcaster on the event's channel.
// Its queue never drops: display surfaces must see every change.
type HubSink struct {
	hub Broadcaster
}

// NewHubSink creates a sink broadcasting through hub.
func NewHubSink(hub Broadcaster) *HubSink {
	return &HubSink{hub: hub}
}

// Handle broadcasts ev on ev.Channel.
func (s *HubSink) Handle(ev Event) {
	s.hub.Broadcast(ev.Channel, ev)
}

func (s *HubSink) lossless() {}
