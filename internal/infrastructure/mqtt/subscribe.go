package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Subscribe routes messages matching topic to handler. The pattern may use
// the + and # wildcards; the command listener subscribes to
// Topics().AllCommands().
//
// Each message is handled on a paho goroutine with panic recovery, and an
// error returned by the handler is logged. The subscription is tracked and
// replayed after every reconnect until Unsubscribe.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case handler == nil:
		return fmt.Errorf("%w: nil handler for %s", ErrSubscribeFailed, topic)
	case !c.IsConnected():
		return ErrNotConnected
	}

	c.track(subscription{topic: topic, qos: qos, handler: handler})
	if err := awaitToken(c.client.Subscribe(topic, qos, c.wrapHandler(handler)), ErrSubscribeFailed); err != nil {
		c.untrack(topic)
		return fmt.Errorf("%s: %w", topic, err)
	}
	return nil
}

// Unsubscribe stops delivery for a pattern passed to Subscribe. The pattern
// is no longer replayed on reconnect even when the broker cannot be reached,
// in which case ErrNotConnected is returned. Messages already dispatched may
// still reach the handler.
func (c *Client) Unsubscribe(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	c.untrack(topic)
	if !c.IsConnected() {
		return ErrNotConnected
	}
	if err := awaitToken(c.client.Unsubscribe(topic), ErrUnsubscribeFailed); err != nil {
		return fmt.Errorf("%s: %w", topic, err)
	}
	return nil
}

// SubscriptionCount returns the number of tracked patterns.
func (c *Client) SubscriptionCount() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subscriptions)
}

// HasSubscription reports whether exactly this pattern is tracked.
func (c *Client) HasSubscription(topic string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	_, ok := c.subscriptions[topic]
	return ok
}

func (c *Client) track(sub subscription) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subscriptions[sub.topic] = sub
}

func (c *Client) untrack(topic string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	delete(c.subscriptions, topic)
}

// awaitToken waits for a broker acknowledgement, wrapping failures in
// sentinel.
func awaitToken(token pahomqtt.Token, sentinel error) error {
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", sentinel, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return nil
}
