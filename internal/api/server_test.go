package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/screener-core/internal/audit"
	"github.com/nerrad567/screener-core/internal/auth"
	"github.com/nerrad567/screener-core/internal/clock"
	"github.com/nerrad567/screener-core/internal/geometry"
	"github.com/nerrad567/screener-core/internal/infrastructure/config"
	"github.com/nerrad567/screener-core/internal/infrastructure/logging"
	"github.com/nerrad567/screener-core/internal/manager"
	"github.com/nerrad567/screener-core/internal/scene"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

// ─── Mock Dependencies ──────────────────────────────────────────────────────

// mockMedia resolves every source to "/cache/<src>" except "broken".
type mockMedia struct {
	mu       sync.Mutex
	requests []string
}

func (m *mockMedia) Request(_ context.Context, componentID, src string, _ bool) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, componentID+"|"+src)
	if src == "broken" {
		return "", false
	}
	return "/cache/" + src, true
}

func (m *mockMedia) Release(string) int { return 0 }

// mockStatus reports a fixed connection state.
type mockStatus bool

func (s mockStatus) IsConnected() bool { return bool(s) }

// mockDrops reports a fixed drop count.
type mockDrops uint64

func (d mockDrops) Dropped() uint64 { return uint64(d) }

// ─── Helpers ────────────────────────────────────────────────────────────────

type serverOptions struct {
	secret   string
	accounts []auth.Account
	notifier manager.Notifier
	media    manager.MediaCache
	hub      *Hub
	audit    audit.Repository
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
}

// testServer creates a Server over a fresh manager holding one slice.
func testServer(t *testing.T, opts serverOptions) (*Server, *manager.Manager) {
	t.Helper()

	log := testLogger()
	mgr := manager.New(manager.Options{
		Notifier:        opts.notifier,
		Media:           opts.media,
		Clock:           clock.NewFake(time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)),
		Logger:          log,
		HistoryDebounce: time.Second,
		MaxHistory:      50,
		Slices:          []*scene.Slice{scene.NewSlice("Main", geometry.Rect{Width: 1920, Height: 1080})},
	})
	t.Cleanup(mgr.Close)

	var authn *auth.Authenticator
	if len(opts.accounts) > 0 {
		var err error
		if authn, err = auth.NewAuthenticator(opts.accounts); err != nil {
			t.Fatalf("NewAuthenticator() error: %v", err)
		}
	}

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host:     "127.0.0.1",
			Timeouts: config.APITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		WS: config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{Secret: opts.secret, AccessTokenTTL: 15},
		},
		Logger:   log,
		Manager:  mgr,
		Accounts: authn,
		Hub:      opts.hub,
		Audit:    opts.audit,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv, mgr
}

// do sends a request through the router and returns the recorder.
func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// decode unmarshals a response body into v.
func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	return h
}

func bearer(t *testing.T, subject string, role auth.Role) string {
	t.Helper()
	token, err := auth.GenerateAccessToken(subject, role, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error: %v", err)
	}
	return "Bearer " + token
}

// ─── Server Tests ───────────────────────────────────────────────────────────

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: testLogger()}); err == nil {
		t.Error("New() without manager should fail")
	}
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t, serverOptions{})
	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var resp map[string]any
	decode(t, w, &resp)
	if resp["status"] != "ok" || resp["version"] != "test" {
		t.Errorf("health = %v", resp)
	}
}

func TestRequestID(t *testing.T) {
	srv, _ := testServer(t, serverOptions{})
	router := srv.buildRouter()

	w := do(t, router, http.MethodGet, "/api/v1/health", "")
	if got := w.Header().Get("X-Request-ID"); len(got) != requestIDBytes*2 {
		t.Errorf("generated X-Request-ID = %q", got)
	}

	w = do(t, router, http.MethodGet, "/api/v1/health", "", "X-Request-ID", "client-id")
	if got := w.Header().Get("X-Request-ID"); got != "client-id" {
		t.Errorf("X-Request-ID = %q, want client-id", got)
	}
}

func TestCORS(t *testing.T) {
	srv, _ := testServer(t, serverOptions{})
	srv.cfg.CORS.AllowedOrigins = []string{"http://desk.local"}
	router := srv.buildRouter()

	w := do(t, router, http.MethodOptions, "/api/v1/scenes", "", "Origin", "http://desk.local")
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://desk.local" {
		t.Errorf("Allow-Origin = %q", got)
	}

	w = do(t, router, http.MethodGet, "/api/v1/health", "", "Origin", "http://evil.example")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Allow-Origin = %q", got)
	}
}

func TestNotFound(t *testing.T) {
	srv, _ := testServer(t, serverOptions{})
	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestBodySizeLimit(t *testing.T) {
	srv, _ := testServer(t, serverOptions{})
	big := `{"name":"` + strings.Repeat("x", maxRequestBodySize) + `"}`
	w := do(t, srv.buildRouter(), http.MethodPost, "/api/v1/scenes", big)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestMetrics(t *testing.T) {
	srv, mgr := testServer(t, serverOptions{})
	srv.mqtt = mockStatus(true)
	srv.relay = mockDrops(3)
	mgr.CreateScene("Second")

	w := do(t, srv.buildRouter(), http.MethodGet, "/api/v1/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var m SystemMetrics
	decode(t, w, &m)
	if m.Version != "test" || m.Runtime.Goroutines == 0 {
		t.Errorf("runtime metrics = %+v", m)
	}
	if !m.MQTT.Enabled || !m.MQTT.Connected {
		t.Errorf("MQTT = %+v, want enabled and connected", m.MQTT)
	}
	if m.InfluxDB.Enabled {
		t.Errorf("InfluxDB = %+v, want disabled", m.InfluxDB)
	}
	if m.Relay.Dropped != 3 {
		t.Errorf("Relay.Dropped = %d, want 3", m.Relay.Dropped)
	}
	if m.Store.Scenes != 2 || m.Store.Slices != 1 || m.Store.ActiveScene == "" {
		t.Errorf("Store = %+v", m.Store)
	}
}

func TestServer_StartAndClose(t *testing.T) {
	srv, _ := testServer(t, serverOptions{})
	srv.cfg.Port = 0

	if err := srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start should fail")
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := srv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() after Start error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := srv.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() with cancelled context should fail")
	}

	if err := srv.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestServer_CloseBeforeStart(t *testing.T) {
	srv, _ := testServer(t, serverOptions{})
	if err := srv.Close(); err != nil {
		t.Errorf("Close() before Start error: %v", err)
	}
}

// ─── Auth Tests ─────────────────────────────────────────────────────────────

func TestAuthDisabled_ActsAsOperator(t *testing.T) {
	srv, _ := testServer(t, serverOptions{})
	router := srv.buildRouter()

	if w := do(t, router, http.MethodPost, "/api/v1/scenes", `{"name":"Open"}`); w.Code != http.StatusCreated {
		t.Errorf("create scene without auth = %d, want %d", w.Code, http.StatusCreated)
	}
	if w := do(t, router, http.MethodPost, "/api/v1/auth/token", `{"name":"a","password":"b"}`); w.Code != http.StatusNotFound {
		t.Errorf("token endpoint with auth disabled = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestToken(t *testing.T) {
	srv, _ := testServer(t, serverOptions{
		secret: testSecret,
		accounts: []auth.Account{
			{Name: "desk", Role: auth.RoleOperator, PasswordHash: hashed(t, "correct horse")},
		},
	})
	router := srv.buildRouter()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"name":"desk","password":"correct horse"}`, http.StatusOK},
		{"wrong password", `{"name":"desk","password":"battery"}`, http.StatusUnauthorized},
		{"unknown account", `{"name":"wall","password":"correct horse"}`, http.StatusUnauthorized},
		{"missing fields", `{"name":"desk"}`, http.StatusBadRequest},
		{"invalid JSON", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/api/v1/auth/token", tt.body)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if tt.want != http.StatusOK {
				return
			}
			var resp tokenResponse
			decode(t, w, &resp)
			if resp.TokenType != "Bearer" || resp.Role != auth.RoleOperator || resp.ExpiresIn != 15*60 {
				t.Errorf("token response = %+v", resp)
			}
			claims, err := auth.ParseToken(resp.AccessToken, testSecret)
			if err != nil || claims.Subject != "desk" {
				t.Errorf("ParseToken() = %+v, %v", claims, err)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	srv, _ := testServer(t, serverOptions{secret: testSecret})
	router := srv.buildRouter()

	otherKey, err := auth.GenerateAccessToken("desk", auth.RoleOperator, "another-secret-of-sufficient-length!", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong key", "Bearer " + otherKey, http.StatusUnauthorized},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"operator", bearer(t, "desk", auth.RoleOperator), http.StatusOK},
		{"display", bearer(t, "wall", auth.RoleDisplay), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tt.header == "" {
				w = do(t, router, http.MethodGet, "/api/v1/scenes", "")
			} else {
				w = do(t, router, http.MethodGet, "/api/v1/scenes", "", "Authorization", tt.header)
			}
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestPermissions_DisplayRole(t *testing.T) {
	srv, mgr := testServer(t, serverOptions{secret: testSecret, media: &mockMedia{}})
	router := srv.buildRouter()
	display := bearer(t, "wall", auth.RoleDisplay)
	sceneID := mgr.ActiveScene().ID

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/api/v1/state", "", http.StatusOK},
		{http.MethodGet, "/api/v1/scenes/" + sceneID + "/render", "", http.StatusOK},
		{http.MethodPost, "/api/v1/media/resolve", `{"src":"a.png"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/scenes", `{"name":"x"}`, http.StatusForbidden},
		{http.MethodPut, "/api/v1/state", `{}`, http.StatusForbidden},
		{http.MethodPost, "/api/v1/history/undo", "", http.StatusForbidden},
		{http.MethodPost, "/api/v1/playbacks/active/stop", "", http.StatusForbidden},
		{http.MethodPost, "/api/v1/components/x/actions/play", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := do(t, router, tt.method, tt.path, tt.body, "Authorization", display)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if tt.want == http.StatusForbidden {
				var e Error
				decode(t, w, &e)
				if e.Code != ErrCodeForbidden {
					t.Errorf("error code = %q, want %q", e.Code, ErrCodeForbidden)
				}
			}
		})
	}
}

func TestWSTicket_SingleUse(t *testing.T) {
	srv, _ := testServer(t, serverOptions{secret: testSecret})
	router := srv.buildRouter()

	w := do(t, router, http.MethodPost, "/api/v1/auth/ws-ticket", "", "Authorization", bearer(t, "wall", auth.RoleDisplay))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	decode(t, w, &resp)
	ticket, ok := resp["ticket"].(string)
	if !ok || ticket == "" {
		t.Fatal("expected ticket to be a non-empty string")
	}

	id, ok := srv.validateTicket(ticket)
	if !ok {
		t.Fatal("ticket should be valid on first use")
	}
	if id.Subject != "wall" || id.Role != auth.RoleDisplay {
		t.Errorf("ticket identity = %+v", id)
	}
	if _, ok := srv.validateTicket(ticket); ok {
		t.Error("ticket should not be valid on second use")
	}
}

func TestWSTicket_Expiry(t *testing.T) {
	srv, _ := testServer(t, serverOptions{secret: testSecret})
	ticket := generateTicket()
	srv.tickets.tickets[ticket] = ticketEntry{expiresAt: time.Now().Add(-time.Second)}

	if _, ok := srv.validateTicket(ticket); ok {
		t.Error("expired ticket should not be valid")
	}

	stale := generateTicket()
	srv.tickets.tickets[stale] = ticketEntry{expiresAt: time.Now().Add(-time.Second)}
	srv.cleanExpiredTickets()
	if len(srv.tickets.tickets) != 0 {
		t.Errorf("tickets after cleanup = %d, want 0", len(srv.tickets.tickets))
	}
}

func TestWebSocket_RequiresTicket(t *testing.T) {
	srv, _ := testServer(t, serverOptions{secret: testSecret})
	router := srv.buildRouter()

	if w := do(t, router, http.MethodGet, "/api/v1/ws", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no ticket = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if w := do(t, router, http.MethodGet, "/api/v1/ws?ticket=bogus", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("bogus ticket = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
