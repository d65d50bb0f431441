package relay

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nerrad567/screener-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/screener-core/internal/manager"
	"github.com/nerrad567/screener-core/internal/playback"
)

// Command names accepted on {prefix}/command/{name}.
const (
	CommandSceneActivate    = "scene.activate"
	CommandPlaybackStart    = "playback.start"
	CommandPlaybackStop     = "playback.stop"
	CommandPlaybackActivate = "playback.activate"
	CommandComponentAction  = "component.action"
	CommandHistoryUndo      = "history.undo"
	CommandHistoryRedo      = "history.redo"
)

// Controller is the part of *manager.Manager remote commands drive.
type Controller interface {
	SetActiveSceneFromID(id string, opts ...manager.MutationOption)
	SetActivePlayback(p *playback.Playback)
	SetActivePlaybackFromID(id string)
	StartPlayback() error
	StartPlaybackFromID(id string) error
	StopPlayback()
	InvokeComponentAction(id, action string, args ...any) error
	Undo() bool
	Redo() bool
}

// Subscriber is the part of *mqtt.Client the listener subscribes through.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	Topics() mqtt.Topics
}

// Command is the JSON payload of a remote command. Fields a command does
// not use are ignored; an empty payload is allowed for commands without
// fields.
//
//	{"id": "v1", "action": "play", "args": [12.5]}
type Command struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	Args   []any  `json:"args"`
}

// CommandListener turns MQTT commands into manager calls.
type CommandListener struct {
	ctrl   Controller
	sub    Subscriber
	logger Logger

	onExecuted func(name string, cmd Command)

	// mu is held shared while a command runs; Stop takes it exclusively.
	mu      sync.RWMutex
	stopped bool
}

// NewCommandListener creates a listener. Call Start to subscribe.
func NewCommandListener(ctrl Controller, sub Subscriber, logger Logger) *CommandListener {
	if logger == nil {
		logger = noopLogger{}
	}
	return &CommandListener{ctrl: ctrl, sub: sub, logger: logger}
}

// SetOnExecuted registers a callback run after each command received over
// MQTT succeeds. Call it before Start.
func (l *CommandListener) SetOnExecuted(fn func(name string, cmd Command)) {
	l.onExecuted = fn
}

// Start subscribes to every command topic. The subscription survives
// reconnects.
func (l *CommandListener) Start() error {
	topic := l.sub.Topics().AllCommands()
	if err := l.sub.Subscribe(topic, 1, l.handleMessage); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	l.logger.Info("listening for remote commands", "topic", topic)
	return nil
}

// Stop unsubscribes and waits for any command still running. Messages
// delivered afterwards are ignored.
func (l *CommandListener) Stop() error {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()

	topic := l.sub.Topics().AllCommands()
	if err := l.sub.Unsubscribe(topic); err != nil {
		return fmt.Errorf("unsubscribing from %s: %w", topic, err)
	}
	return nil
}

func (l *CommandListener) handleMessage(topic string, payload []byte) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.stopped {
		l.logger.Debug("remote command ignored after stop", "topic", topic)
		return nil
	}

	name, ok := l.sub.Topics().CommandName(topic)
	if !ok {
		return fmt.Errorf("%w: topic %s", ErrUnknownCommand, topic)
	}

	var cmd Command
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidCommand, name, err)
		}
	}

	l.logger.Debug("remote command", "command", name, "id", cmd.ID)
	if err := l.Execute(name, cmd); err != nil {
		return err
	}
	if l.onExecuted != nil {
		l.onExecuted(name, cmd)
	}
	return nil
}

// Execute runs one command against the controller.
//
// Returns:
//   - ErrUnknownCommand for an unrecognised name
//   - ErrInvalidCommand when a required field is missing
//   - any error the controller returns
func (l *CommandListener) Execute(name string, cmd Command) error {
	switch name {
	case CommandSceneActivate:
		if cmd.ID == "" {
			return fmt.Errorf("%w: %s requires id", ErrInvalidCommand, name)
		}
		l.ctrl.SetActiveSceneFromID(cmd.ID)

	case CommandPlaybackStart:
		if cmd.ID == "" {
			return l.ctrl.StartPlayback()
		}
		return l.ctrl.StartPlaybackFromID(cmd.ID)

	case CommandPlaybackStop:
		l.ctrl.StopPlayback()

	case CommandPlaybackActivate:
		if cmd.ID == "" {
			l.ctrl.SetActivePlayback(nil)
			return nil
		}
		l.ctrl.SetActivePlaybackFromID(cmd.ID)

	case CommandComponentAction:
		if cmd.ID == "" || cmd.Action == "" {
			return fmt.Errorf("%w: %s requires id and action", ErrInvalidCommand, name)
		}
		return l.ctrl.InvokeComponentAction(cmd.ID, cmd.Action, cmd.Args...)

	case CommandHistoryUndo:
		if !l.ctrl.Undo() {
			l.logger.Debug("nothing to undo")
		}

	case CommandHistoryRedo:
		if !l.ctrl.Redo() {
			l.logger.Debug("nothing to redo")
		}

	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return nil
}
