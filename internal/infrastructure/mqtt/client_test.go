package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/screener-core/internal/infrastructure/config"
)

// testConfig returns an MQTT configuration pointing at a local broker.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "screener-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
		TopicPrefix: "screener",
	}
}

// ─── Mock Dependencies ───────────────────────────────────────────────

type mockLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

// =============================================================================
// Topic Tests
// =============================================================================

func TestTopics(t *testing.T) {
	topics := NewTopics("venue/")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"scene state", topics.State(KindScene, "s1"), "venue/state/scene/s1"},
		{"component state", topics.State(KindComponent, "v1"), "venue/state/component/v1"},
		{"active scene", topics.ActiveScene(), "venue/state/active_scene"},
		{"active playback", topics.ActivePlayback(), "venue/state/active_playback"},
		{"component action", topics.ComponentAction("v1"), "venue/event/component_action/v1"},
		{"command", topics.Command("scene.activate"), "venue/command/scene.activate"},
		{"all commands", topics.AllCommands(), "venue/command/+"},
		{"system status", topics.SystemStatus(), "venue/system/status"},
		{"all topics", topics.AllTopics(), "venue/#"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestTopicsDefaultPrefix(t *testing.T) {
	if got := NewTopics("").SystemStatus(); got != "screener/system/status" {
		t.Errorf("NewTopics(\"\") status = %q", got)
	}
	if got := (Topics{}).ActiveScene(); got != "screener/state/active_scene" {
		t.Errorf("zero Topics active scene = %q", got)
	}
}

func TestCommandName(t *testing.T) {
	topics := NewTopics("screener")

	tests := []struct {
		topic  string
		want   string
		wantOK bool
	}{
		{"screener/command/history.undo", "history.undo", true},
		{"screener/command/", "", false},
		{"screener/command/a/b", "", false},
		{"screener/state/scene/s1", "", false},
		{"other/command/history.undo", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			got, ok := topics.CommandName(tt.topic)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("CommandName(%q) = %q, %v; want %q, %v", tt.topic, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// =============================================================================
// Option Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "desk"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.ClientID != "screener-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "desk" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q", opts.Username, opts.Password)
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Errorf("AutoReconnect=%v CleanSession=%v", opts.AutoReconnect, opts.CleanSession)
	}
	if opts.TLSConfig != nil && opts.TLSConfig.MinVersion != 0 {
		t.Error("TLS configured without cfg.Broker.TLS")
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if got := opts.Servers[0].String(); got != "ssl://127.0.0.1:8883" {
		t.Errorf("Servers[0] = %q", got)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Errorf("TLSConfig = %+v", opts.TLSConfig)
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, NewTopics("venue"), "screener-test")

	if !opts.WillEnabled || !opts.WillRetained || opts.WillQos != 1 {
		t.Errorf("will enabled=%v retained=%v qos=%d", opts.WillEnabled, opts.WillRetained, opts.WillQos)
	}
	if opts.WillTopic != "venue/system/status" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}

	var msg map[string]string
	if err := json.Unmarshal(opts.WillPayload, &msg); err != nil {
		t.Fatalf("will payload not JSON: %v", err)
	}
	if msg["status"] != "offline" || msg["reason"] != "unexpected_disconnect" || msg["client_id"] != "screener-test" {
		t.Errorf("will payload = %v", msg)
	}
}

func TestStatusPayloads(t *testing.T) {
	if p := buildOnlinePayload("c1"); !strings.Contains(p, `"status":"online"`) || strings.Contains(p, "reason") {
		t.Errorf("online payload = %s", p)
	}
	if p := buildOfflinePayload("c1"); !strings.Contains(p, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload = %s", p)
	}
}

// =============================================================================
// Client Tests (no broker)
// =============================================================================

func TestConnectDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	client, err := Connect(cfg)
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("Connect() error = %v, want ErrDisabled", err)
	}
	if client != nil {
		t.Error("Connect() returned a client while disabled")
	}
}

func TestCloseNil(t *testing.T) {
	var nilClient *Client
	if err := nilClient.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
	if err := (&Client{}).Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v", err)
	}
}

func TestPublishValidation(t *testing.T) {
	c := &Client{}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 0, ErrInvalidTopic},
		{"bad qos", "t", []byte("x"), 3, ErrInvalidQoS},
		{"oversized", "t", make([]byte, maxPayloadSize+1), 0, ErrPublishFailed},
		{"disconnected", "t", []byte("x"), 1, ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}
	handler := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{"empty topic", "", 0, handler, ErrInvalidTopic},
		{"bad qos", "t", 5, handler, ErrInvalidQoS},
		{"nil handler", "t", 0, nil, ErrSubscribeFailed},
		{"disconnected", "t", 0, handler, ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after failed subscribes", c.SubscriptionCount())
	}
}

func TestUnsubscribeDisconnectedStopsReplay(t *testing.T) {
	handler := func(string, []byte) error { return nil }
	c := &Client{subscriptions: map[string]subscription{
		"venue/command/+": {topic: "venue/command/+", handler: handler},
		"venue/status":    {topic: "venue/status", handler: handler},
	}}

	tests := []struct {
		name      string
		topic     string
		wantErr   error
		wantCount int
	}{
		{"empty topic", "", ErrInvalidTopic, 2},
		{"tracked pattern", "venue/command/+", ErrNotConnected, 1},
		{"unknown pattern", "venue/other", ErrNotConnected, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Unsubscribe(tt.topic); !errors.Is(err, tt.wantErr) {
				t.Errorf("Unsubscribe() error = %v, want %v", err, tt.wantErr)
			}
			if got := c.SubscriptionCount(); got != tt.wantCount {
				t.Errorf("SubscriptionCount() = %d, want %d", got, tt.wantCount)
			}
		})
	}
	if c.HasSubscription("venue/command/+") {
		t.Error("command pattern still tracked for reconnect")
	}
	if !c.HasSubscription("venue/status") {
		t.Error("status pattern lost")
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	c := &Client{}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) error = %v", err)
	}
}

func TestDispatchRecoversAndLogs(t *testing.T) {
	logger := &mockLogger{}
	c := &Client{}
	c.SetLogger(logger)

	c.dispatch(func(string, []byte) error { panic("boom") }, "t", nil)
	c.dispatch(func(string, []byte) error { return errors.New("bad payload") }, "t", nil)
	c.dispatch(func(string, []byte) error { return nil }, "t", nil)

	if len(logger.errors) != 1 || len(logger.warns) != 1 {
		t.Errorf("errors=%v warns=%v", logger.errors, logger.warns)
	}
}

func TestDispatchWithoutLogger(t *testing.T) {
	c := &Client{}
	c.dispatch(func(string, []byte) error { panic("boom") }, "t", nil)
}
