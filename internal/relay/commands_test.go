package relay

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/nerrad567/screener-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/screener-core/internal/manager"
	"github.com/nerrad567/screener-core/internal/playback"
)

// ─── Mock Dependencies ───────────────────────────────────────────────

type mockController struct {
	mu       sync.Mutex
	calls    []string
	startErr error
	undoable bool
}

func (c *mockController) record(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *mockController) getCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *mockController) SetActiveSceneFromID(id string, _ ...manager.MutationOption) {
	c.record("activateScene " + id)
}

func (c *mockController) SetActivePlayback(p *playback.Playback) {
	if p == nil {
		c.record("clearPlayback")
		return
	}
	c.record("activatePlayback " + p.ID)
}

func (c *mockController) SetActivePlaybackFromID(id string) { c.record("activatePlayback " + id) }

func (c *mockController) StartPlayback() error {
	c.record("start")
	return c.startErr
}

func (c *mockController) StartPlaybackFromID(id string) error {
	c.record("start " + id)
	return c.startErr
}

func (c *mockController) StopPlayback() { c.record("stop") }

func (c *mockController) InvokeComponentAction(id, action string, args ...any) error {
	c.record(fmt.Sprintf("invoke %s %s %v", id, action, args))
	return nil
}

func (c *mockController) Undo() bool {
	c.record("undo")
	return c.undoable
}

func (c *mockController) Redo() bool {
	c.record("redo")
	return false
}

type mockSubscriber struct {
	mu       sync.Mutex
	topics   []string
	handlers map[string]mqtt.MessageHandler
	err      error

	unsubscribed []string
}

func (s *mockSubscriber) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.handlers == nil {
		s.handlers = make(map[string]mqtt.MessageHandler)
	}
	s.topics = append(s.topics, topic)
	s.handlers[topic] = handler
	return nil
}

func (s *mockSubscriber) Unsubscribe(topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubscribed = append(s.unsubscribed, topic)
	return nil
}

func (s *mockSubscriber) Topics() mqtt.Topics { return mqtt.NewTopics("venue") }

// deliver simulates the broker delivering payload on the command topic.
func (s *mockSubscriber) deliver(t *testing.T, name, payload string) error {
	t.Helper()
	s.mu.Lock()
	h := s.handlers["venue/command/+"]
	s.mu.Unlock()
	if h == nil {
		t.Fatal("command topic not subscribed")
	}
	return h("venue/command/"+name, []byte(payload))
}

// =============================================================================
// CommandListener Tests
// =============================================================================

func startListener(t *testing.T) (*mockController, *mockSubscriber) {
	t.Helper()
	ctrl := &mockController{}
	sub := &mockSubscriber{}
	if err := NewCommandListener(ctrl, sub, nil).Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return ctrl, sub
}

func TestCommandListenerDispatch(t *testing.T) {
	tests := []struct {
		name      string
		command   string
		payload   string
		wantCalls []string
	}{
		{"scene activate", CommandSceneActivate, `{"id":"s2"}`, []string{"activateScene s2"}},
		{"start active", CommandPlaybackStart, ``, []string{"start"}},
		{"start by id", CommandPlaybackStart, `{"id":"p1"}`, []string{"start p1"}},
		{"stop", CommandPlaybackStop, `{}`, []string{"stop"}},
		{"activate playback", CommandPlaybackActivate, `{"id":"p2"}`, []string{"activatePlayback p2"}},
		{"clear playback", CommandPlaybackActivate, `{}`, []string{"clearPlayback"}},
		{"component action", CommandComponentAction, `{"id":"v1","action":"play","args":[4]}`, []string{"invoke v1 play [4]"}},
		{"component action no args", CommandComponentAction, `{"id":"v1","action":"pause"}`, []string{"invoke v1 pause []"}},
		{"undo", CommandHistoryUndo, ``, []string{"undo"}},
		{"redo", CommandHistoryRedo, ``, []string{"redo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, sub := startListener(t)
			if err := sub.deliver(t, tt.command, tt.payload); err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if got := ctrl.getCalls(); !slices.Equal(got, tt.wantCalls) {
				t.Errorf("calls = %v, want %v", got, tt.wantCalls)
			}
		})
	}
}

func TestCommandListenerErrors(t *testing.T) {
	tests := []struct {
		name    string
		command string
		payload string
		wantErr error
	}{
		{"unknown", "lights.on", ``, ErrUnknownCommand},
		{"bad json", CommandSceneActivate, `{"id":`, ErrInvalidCommand},
		{"scene without id", CommandSceneActivate, `{}`, ErrInvalidCommand},
		{"action without name", CommandComponentAction, `{"id":"v1"}`, ErrInvalidCommand},
		{"action without id", CommandComponentAction, `{"action":"play"}`, ErrInvalidCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, sub := startListener(t)
			err := sub.deliver(t, tt.command, tt.payload)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if calls := ctrl.getCalls(); len(calls) != 0 {
				t.Errorf("controller called: %v", calls)
			}
		})
	}
}

func TestCommandListenerOnExecuted(t *testing.T) {
	ctrl := &mockController{}
	sub := &mockSubscriber{}
	l := NewCommandListener(ctrl, sub, nil)

	var executed []string
	l.SetOnExecuted(func(name string, cmd Command) {
		executed = append(executed, name+" "+cmd.ID)
	})
	if err := l.Start(); err != nil {
		t.Fatal(err)
	}

	if err := sub.deliver(t, CommandSceneActivate, `{"id":"s1"}`); err != nil {
		t.Fatal(err)
	}
	if err := sub.deliver(t, CommandSceneActivate, `{}`); err == nil {
		t.Fatal("expected error for missing id")
	}

	if !slices.Equal(executed, []string{"scene.activate s1"}) {
		t.Errorf("executed = %v, want only the successful command", executed)
	}
}

func TestCommandListenerStop(t *testing.T) {
	ctrl, sub := &mockController{}, &mockSubscriber{}
	l := NewCommandListener(ctrl, sub, nil)
	if err := l.Start(); err != nil {
		t.Fatal(err)
	}

	if err := l.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !slices.Equal(sub.unsubscribed, []string{"venue/command/+"}) {
		t.Errorf("unsubscribed = %v", sub.unsubscribed)
	}
	if err := sub.deliver(t, CommandHistoryUndo, ""); err != nil {
		t.Errorf("delivery after Stop error = %v, want nil", err)
	}
	if calls := ctrl.getCalls(); len(calls) != 0 {
		t.Errorf("controller called after Stop: %v", calls)
	}
}

func TestCommandListenerPropagatesControllerError(t *testing.T) {
	ctrl := &mockController{startErr: manager.ErrNoActivePlayback}
	l := NewCommandListener(ctrl, &mockSubscriber{}, nil)

	if err := l.Execute(CommandPlaybackStart, Command{}); !errors.Is(err, manager.ErrNoActivePlayback) {
		t.Errorf("Execute() error = %v, want ErrNoActivePlayback", err)
	}
}

func TestCommandListenerRejectsForeignTopic(t *testing.T) {
	ctrl := &mockController{}
	l := NewCommandListener(ctrl, &mockSubscriber{}, nil)

	if err := l.handleMessage("venue/state/scene/s1", nil); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("handleMessage() error = %v", err)
	}
}

func TestCommandListenerStartFails(t *testing.T) {
	sub := &mockSubscriber{err: mqtt.ErrNotConnected}
	err := NewCommandListener(&mockController{}, sub, nil).Start()
	if !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("Start() error = %v", err)
	}
}

func TestCommandListenerDrivesManager(t *testing.T) {
	m := manager.New(manager.Options{})
	t.Cleanup(m.Close)
	m.CreateScene("Second")
	first := m.Scenes()[0]

	l := NewCommandListener(m, &mockSubscriber{}, nil)
	if err := l.Execute(CommandSceneActivate, Command{ID: first.ID}); err != nil {
		t.Fatal(err)
	}
	if m.ActiveScene().ID != first.ID {
		t.Errorf("active = %s, want %s", m.ActiveScene().ID, first.ID)
	}
	if err := l.Execute(CommandPlaybackStart, Command{ID: "missing"}); !errors.Is(err, manager.ErrPlaybackNotFound) {
		t.Errorf("start missing playback error = %v", err)
	}
}
