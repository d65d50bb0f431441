package relay

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/nerrad567/screener-core/internal/infrastructure/mqtt"
)

// Publisher is the part of *mqtt.Client the relay publishes through.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
	PublishEvent(topic string, payload []byte) error
	Topics() mqtt.Topics
}

var stateKinds = map[string]string{
	ChannelSlice:     mqtt.KindSlice,
	ChannelComponent: mqtt.KindComponent,
	ChannelScene:     mqtt.KindScene,
	ChannelPlayback:  mqtt.KindPlayback,
}

// MQTTPublisher mirrors live state onto retained MQTT topics so a
// controller connecting late sees the current stage at once.
//
// Entity removal publishes an empty retained payload, which clears the
// topic on the broker. Component actions go out as non-retained events.
type MQTTPublisher struct {
	client Publisher
	logger Logger
}

// NewMQTTPublisher creates a sink publishing through client.
func NewMQTTPublisher(client Publisher, logger Logger) *MQTTPublisher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MQTTPublisher{client: client, logger: logger}
}

type actionMessage struct {
	Component string    `json:"component"`
	Action    string    `json:"action"`
	Args      []any     `json:"args"`
	At        time.Time `json:"at"`
}

// Handle publishes ev to its topic.
func (p *MQTTPublisher) Handle(ev Event) {
	topics := p.client.Topics()

	var err error
	switch ev.Channel {
	case ChannelActiveScene:
		err = p.client.PublishRetained(topics.ActiveScene(), []byte(ev.ID))
	case ChannelActivePlayback:
		err = p.client.PublishRetained(topics.ActivePlayback(), []byte(ev.ID))
	case ChannelComponentAction:
		args := ev.Args
		if args == nil {
			args = []any{}
		}
		payload, mErr := json.Marshal(actionMessage{Component: ev.ID, Action: ev.Action, Args: args, At: ev.At})
		if mErr != nil {
			p.logger.Warn("encoding component action failed", "id", ev.ID, "action", ev.Action, "error", mErr)
			return
		}
		err = p.client.PublishEvent(topics.ComponentAction(ev.ID), payload)
	default:
		kind, ok := stateKinds[ev.Channel]
		if !ok {
			return
		}
		err = p.client.PublishRetained(topics.State(kind, ev.ID), ev.Data)
	}

	if err == nil {
		return
	}
	if errors.Is(err, mqtt.ErrNotConnected) {
		p.logger.Debug("mqtt offline, state not published", "channel", ev.Channel, "id", ev.ID)
		return
	}
	p.logger.Warn("mqtt publish failed", "channel", ev.Channel, "id", ev.ID, "error", err)
}
