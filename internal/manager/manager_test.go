package manager

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/screener-core/internal/clock"
	"github.com/nerrad567/screener-core/internal/component"
	"github.com/nerrad567/screener-core/internal/geometry"
	"github.com/nerrad567/screener-core/internal/playback"
	"github.com/nerrad567/screener-core/internal/scene"
)

// ─── Mock Dependencies ──────────────────────────────────────────────────────

// mockNotifier records every notification as "kind:id" or "kind:id:nil".
type mockNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *mockNotifier) add(kind, id string, data json.RawMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	e := kind + ":" + id
	if data == nil {
		e += ":nil"
	}
	n.events = append(n.events, e)
}

func (n *mockNotifier) SliceUpdated(id string, data json.RawMessage)     { n.add("slice", id, data) }
func (n *mockNotifier) ComponentUpdated(id string, data json.RawMessage) { n.add("component", id, data) }
func (n *mockNotifier) SceneUpdated(id string, data json.RawMessage)     { n.add("scene", id, data) }
func (n *mockNotifier) ActiveSceneUpdated(id string)                     { n.add("active", id, json.RawMessage{}) }
func (n *mockNotifier) PlaybackUpdated(id string, data json.RawMessage)  { n.add("playback", id, data) }
func (n *mockNotifier) ActivePlaybackUpdated(id string)                  { n.add("activePlayback", id, json.RawMessage{}) }

func (n *mockNotifier) ComponentActionInvoked(id, action string, args []any) {
	data, _ := json.Marshal(args) //nolint:errcheck // test args are plain values
	n.add("action", id+":"+action+string(data), json.RawMessage{})
}

func (n *mockNotifier) getEvents() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.events)
}

func (n *mockNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}

func (n *mockNotifier) count(prefix string) int {
	c := 0
	for _, e := range n.getEvents() {
		if strings.HasPrefix(e, prefix) {
			c++
		}
	}
	return c
}

// mockMedia resolves everything to "/media/<src>" and records releases.
type mockMedia struct {
	mu       sync.Mutex
	released []string
}

func (m *mockMedia) Request(_ context.Context, _, src string, _ bool) (string, bool) {
	return "/media/" + src, true
}

func (m *mockMedia) Release(componentID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, componentID)
	return 1
}

func (m *mockMedia) getReleased() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.released)
}

type harness struct {
	m      *Manager
	notify *mockNotifier
	media  *mockMedia
	clock  *clock.Fake
}

func newHarness(t *testing.T, slices ...*scene.Slice) *harness {
	t.Helper()
	h := &harness{
		notify: &mockNotifier{},
		media:  &mockMedia{},
		clock:  clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	h.m = New(Options{
		Notifier:        h.notify,
		Media:           h.media,
		Clock:           h.clock,
		HistoryDebounce: 500 * time.Millisecond,
		Slices:          slices,
	})
	t.Cleanup(h.m.Close)
	return h
}

func (h *harness) snapshot(t *testing.T) string {
	t.Helper()
	data, err := h.m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	return string(data)
}

func sliceKeys(sc *scene.Scene) []string {
	keys := make([]string, 0, len(sc.SliceSetup))
	for k := range sc.SliceSetup {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func liveSliceIDs(m *Manager) []string {
	var ids []string
	for _, s := range m.Slices() {
		ids = append(ids, s.ID)
	}
	sort.Strings(ids)
	return ids
}

// ─── Construction ───────────────────────────────────────────────────────────

func TestNewHasOneActiveScene(t *testing.T) {
	primary := scene.NewSlice("Main", geometry.NewRect(0, 0, 1920, 1080))
	h := newHarness(t, primary)

	scenes := h.m.Scenes()
	if len(scenes) != 1 {
		t.Fatalf("scenes = %d, want 1", len(scenes))
	}
	if h.m.ActiveScene().ID != scenes[0].ID {
		t.Error("initial scene is not active")
	}
	if keys := sliceKeys(scenes[0]); !slices.Equal(keys, []string{primary.ID}) {
		t.Errorf("sliceSetup keys = %v, want [%s]", keys, primary.ID)
	}
	if h.m.CanUndo() {
		t.Error("CanUndo() = true on a fresh manager")
	}
}

// ─── Scene / slice reconciliation ───────────────────────────────────────────

func TestSliceSetupTracksLiveSlices(t *testing.T) {
	h := newHarness(t)
	m := h.m

	check := func(step string) {
		t.Helper()
		want := liveSliceIDs(m)
		for _, sc := range m.Scenes() {
			if got := sliceKeys(sc); !slices.Equal(got, want) {
				t.Fatalf("%s: scene %s sliceSetup = %v, want %v", step, sc.ID, got, want)
			}
		}
	}

	a := m.CreateSlice("A", geometry.NewRect(0, 0, 1920, 1080))
	check("add A")
	sc2 := m.CreateScene("Two")
	check("add scene")
	b := m.CreateSlice("B", geometry.NewRect(1920, 0, 1920, 1080))
	check("add B")
	m.RemoveSlice(a.ID)
	check("remove A")
	m.CreateScene("Three")
	check("add scene 3")
	m.RemoveScene(sc2.ID)
	check("remove scene")
	if err := m.UpdateSliceWithJSON([]byte(`{"id":"c","name":"C"}`)); err != nil {
		t.Fatal(err)
	}
	check("json slice")
	m.RemoveSlice(b.ID)
	m.RemoveSlice("c")
	check("remove all")
}

func TestAddSceneReconcilesForeignSetup(t *testing.T) {
	h := newHarness(t, scene.NewSlice("Main", scene.DefaultSliceRect))
	sc := scene.New("Imported")
	sc.SliceSetup["stale"] = geometry.Rect{}

	h.m.AddScene(sc)
	got := h.m.Scene(sc.ID)
	if got == nil {
		t.Fatal("scene not added")
	}
	if keys := sliceKeys(got); !slices.Equal(keys, liveSliceIDs(h.m)) {
		t.Errorf("sliceSetup keys = %v", keys)
	}
	if h.m.ActiveScene().ID != sc.ID {
		t.Error("added scene not activated")
	}
}

// ─── Active scene ───────────────────────────────────────────────────────────

func TestRemoveSceneActivatesNeighbour(t *testing.T) {
	h := newHarness(t)
	m := h.m
	first := m.ActiveScene()
	second := m.CreateScene("2")
	third := m.CreateScene("3")

	tests := []struct {
		name       string
		activate   string
		remove     string
		wantActive string
	}{
		{"previous neighbour", third.ID, third.ID, second.ID},
		{"next neighbour when first removed", first.ID, first.ID, second.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.SetActiveSceneFromID(tt.activate)
			m.RemoveScene(tt.remove)
			if got := m.ActiveScene().ID; got != tt.wantActive {
				t.Errorf("active = %s, want %s", got, tt.wantActive)
			}
			if m.Scene(tt.remove) != nil {
				t.Error("scene not removed")
			}
		})
	}
}

func TestRemoveInactiveSceneKeepsActive(t *testing.T) {
	h := newHarness(t)
	first := h.m.ActiveScene()
	second := h.m.CreateScene("2")

	h.m.RemoveScene(first.ID)
	if h.m.ActiveScene().ID != second.ID {
		t.Error("active scene changed on removal of another scene")
	}
}

func TestRemoveLastSceneRefused(t *testing.T) {
	h := newHarness(t)
	only := h.m.ActiveScene()

	h.m.RemoveScene(only.ID)
	if len(h.m.Scenes()) != 1 || h.m.ActiveScene().ID != only.ID {
		t.Error("last scene was removed")
	}
}

func TestSetActiveSceneUnknownIsNoop(t *testing.T) {
	h := newHarness(t)
	before := h.m.ActiveScene().ID
	h.notify.reset()

	h.m.SetActiveSceneFromID("nope")
	h.m.SetActiveScene(nil)
	if h.m.ActiveScene().ID != before || len(h.notify.getEvents()) != 0 {
		t.Errorf("unknown id changed state: events %v", h.notify.getEvents())
	}
}

func TestFromJSONWithoutScenesSynthesisesDefault(t *testing.T) {
	primary := scene.NewSlice("Main", geometry.NewRect(0, 0, 1280, 720))
	h := newHarness(t, primary)

	if err := h.m.FromJSON([]byte(`{"scenes":[]}`)); err != nil {
		t.Fatal(err)
	}
	scenes := h.m.Scenes()
	if len(scenes) != 1 {
		t.Fatalf("scenes = %d, want 1", len(scenes))
	}
	if h.m.ActiveScene().ID != scenes[0].ID {
		t.Error("synthesised scene not active")
	}
	if r, ok := scenes[0].Viewport(primary.ID); !ok || !r.Equals(primary.Rect) {
		t.Errorf("viewport = %+v, %v; want the slice rect", r, ok)
	}
}

// ─── Slots ──────────────────────────────────────────────────────────────────

func TestSlotOperations(t *testing.T) {
	h := newHarness(t)
	m := h.m
	sc := m.ActiveScene()
	c, err := m.CreateComponent(component.TypeText, nil)
	if err != nil {
		t.Fatal(err)
	}

	slot, err := m.AddSlot(sc.ID, c.Meta().ID, geometry.NewRect(0, 0, 100, 100))
	if err != nil {
		t.Fatalf("AddSlot() error = %v", err)
	}

	if err := m.UpdateSlotWithJSON(sc.ID, []byte(`{"id":"`+slot.ID+`","visible":false}`)); err != nil {
		t.Fatal(err)
	}
	if got := m.Scene(sc.ID).Slot(slot.ID); got == nil || got.Visible {
		t.Errorf("slot after merge = %+v", got)
	}

	if err := m.UpdateSlotWithJSON(sc.ID, []byte(`{"id":"fresh","component":"`+c.Meta().ID+`"}`)); err != nil {
		t.Fatal(err)
	}
	if m.Scene(sc.ID).Slot("fresh") == nil {
		t.Error("unseen slot id was not created")
	}

	if err := m.SetSlot(sc.ID, "fresh", []byte(`{"rect":{"x":5,"y":5,"width":10,"height":10}}`)); err != nil {
		t.Fatal(err)
	}
	if r := m.Scene(sc.ID).Slot("fresh").Rect; r.X != 5 {
		t.Errorf("SetSlot rect = %+v", r)
	}
	if err := m.SetSlot(sc.ID, "fresh", nil); err != nil {
		t.Fatal(err)
	}
	if m.Scene(sc.ID).Slot("fresh") != nil {
		t.Error("SetSlot(nil) did not remove the slot")
	}
}

func TestSlotOperationsOnUnknownSceneFail(t *testing.T) {
	h := newHarness(t)

	if _, err := h.m.AddSlot("nope", "c", geometry.Rect{}); !errors.Is(err, ErrSceneNotFound) {
		t.Errorf("AddSlot error = %v", err)
	}
	if err := h.m.UpdateSlotWithJSON("nope", []byte(`{"id":"s","component":"c"}`)); !errors.Is(err, ErrSceneNotFound) {
		t.Errorf("UpdateSlotWithJSON error = %v", err)
	}
	if err := h.m.RemoveSlot("nope", "s"); !errors.Is(err, ErrSceneNotFound) {
		t.Errorf("RemoveSlot error = %v", err)
	}
}

// ─── Components ─────────────────────────────────────────────────────────────

func TestUpdateComponentWithJSON(t *testing.T) {
	h := newHarness(t)
	c, _ := h.m.CreateComponent(component.TypeText, []byte(`{"content":"Hello","fontSize":30}`)) //nolint:errcheck // registered type
	id := c.Meta().ID

	if err := h.m.UpdateComponentWithJSON([]byte(`{"id":"` + id + `","content":"Bye"}`)); err != nil {
		t.Fatal(err)
	}
	txt := h.m.Component(id).(*component.Text)
	if txt.Content != "Bye" || txt.FontSize != 30 {
		t.Errorf("after merge: content=%q fontSize=%v", txt.Content, txt.FontSize)
	}

	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{"missing id", `{"content":"x"}`, ErrMissingID},
		{"unknown type on create", `{"id":"new","type":"hologram"}`, component.ErrUnknownType},
		{"malformed", `{`, ErrInvalidJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := h.m.UpdateComponentWithJSON([]byte(tt.payload)); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFailedUpdatesLeaveStateUntouched(t *testing.T) {
	h := newHarness(t, scene.NewSlice("Main", geometry.NewRect(0, 0, 1920, 1080)))
	m := h.m
	c, _ := m.CreateComponent(component.TypeText, []byte(`{"content":"Hello"}`)) //nolint:errcheck // registered type
	sc := m.ActiveScene()
	slot, err := m.AddSlot(sc.ID, c.Meta().ID, geometry.NewRect(0, 0, 100, 100))
	if err != nil {
		t.Fatal(err)
	}
	sliceID := m.Slices()[0].ID
	h.clock.Advance(time.Second)

	tests := []struct {
		name    string
		update  func() error
		wantErr error
	}{
		{"component", func() error {
			return m.UpdateComponentWithJSON([]byte(`{"id":"` + c.Meta().ID + `","name":"changed","fontSize":"big"}`))
		}, component.ErrInvalidJSON},
		{"slot", func() error {
			return m.UpdateSlotWithJSON(sc.ID, []byte(`{"id":"`+slot.ID+`","visible":false,"rect":{"width":"wide"}}`))
		}, scene.ErrInvalidJSON},
		{"scene with one bad slot", func() error {
			return m.UpdateSceneWithJSON([]byte(`{"id":"` + sc.ID + `","name":"changed","slots":[{"id":"` + slot.ID + `","visible":false},{"id":"x","component":5}]}`))
		}, scene.ErrInvalidJSON},
		{"slice", func() error {
			return m.UpdateSliceWithJSON([]byte(`{"id":"` + sliceID + `","name":"changed","rect":{"x":"left"}}`))
		}, scene.ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := h.snapshot(t)
			length := m.HistoryState().Length
			h.notify.reset()

			if err := tt.update(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			h.clock.Advance(time.Second)

			if got := h.snapshot(t); got != before {
				t.Errorf("state changed by a rejected update:\n got %s\nwant %s", got, before)
			}
			if events := h.notify.getEvents(); len(events) != 0 {
				t.Errorf("rejected update notified %v", events)
			}
			if got := m.HistoryState().Length; got != length {
				t.Errorf("history length = %d, want %d", got, length)
			}
		})
	}
}

func TestRemoveComponentLeavesDanglingSlot(t *testing.T) {
	h := newHarness(t)
	sc := h.m.ActiveScene()
	c, _ := h.m.CreateComponent(component.TypeText, nil) //nolint:errcheck // registered type
	slot, _ := h.m.AddSlot(sc.ID, c.Meta().ID, geometry.Rect{}) //nolint:errcheck // scene exists

	h.m.RemoveComponent(c.Meta().ID)

	if h.m.Scene(sc.ID).Slot(slot.ID) == nil {
		t.Error("slot was cascade-deleted")
	}
	placements, err := h.m.RenderScene(sc.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(placements) != 1 || placements[0].Content != nil {
		t.Errorf("placements = %+v, want one empty placement", placements)
	}
	if got := h.media.getReleased(); !slices.Equal(got, []string{c.Meta().ID}) {
		t.Errorf("released = %v", got)
	}
}

func TestInvokeComponentAction(t *testing.T) {
	h := newHarness(t)
	c, _ := h.m.CreateComponent(component.TypeVideo, nil) //nolint:errcheck // registered type
	id := c.Meta().ID
	h.notify.reset()

	if err := h.m.InvokeComponentAction(id, "play", 1.0); err != nil {
		t.Fatal(err)
	}
	events := h.notify.getEvents()
	if len(events) != 2 || events[0] != "action:"+id+":play[1]" || events[1] != "component:"+id {
		t.Errorf("events = %v", events)
	}
	if !h.m.Component(id).(*component.Video).Playing {
		t.Error("play action did not run")
	}

	if err := h.m.InvokeComponentAction(id, "explode"); !errors.Is(err, component.ErrUnknownAction) {
		t.Errorf("unknown action error = %v", err)
	}
	if err := h.m.InvokeComponentAction("nope", "play"); !errors.Is(err, ErrComponentNotFound) {
		t.Errorf("unknown component error = %v", err)
	}
}

// ─── History ────────────────────────────────────────────────────────────────

func TestUndoSlotAddRestoresPreviousSnapshot(t *testing.T) {
	h := newHarness(t)
	m := h.m

	m.CreateSlice("S1", geometry.NewRect(0, 0, 1920, 1080))
	a := m.CreateScene("A")
	if m.ActiveScene().ID != a.ID {
		t.Fatal("created scene not active")
	}
	c1, err := m.CreateComponent(component.TypeText, nil)
	if err != nil {
		t.Fatal(err)
	}
	beforeSlot := h.snapshot(t)

	if _, err := m.AddSlot(a.ID, c1.Meta().ID, geometry.NewRect(0, 0, 200, 100)); err != nil {
		t.Fatal(err)
	}
	afterSlot := h.snapshot(t)

	if !m.Undo() {
		t.Fatal("Undo() = false")
	}
	if got := h.snapshot(t); got != beforeSlot {
		t.Errorf("after undo:\n%s\nwant:\n%s", got, beforeSlot)
	}
	if !m.Redo() {
		t.Fatal("Redo() = false")
	}
	if got := h.snapshot(t); got != afterSlot {
		t.Errorf("after redo:\n%s\nwant:\n%s", got, afterSlot)
	}
}

func TestUndoRedoIsByteIdentical(t *testing.T) {
	h := newHarness(t, scene.NewSlice("Main", scene.DefaultSliceRect))
	m := h.m

	c, _ := m.CreateComponent(component.TypeVideo, []byte(`{"src":"clip.mp4","volume":0.4}`)) //nolint:errcheck // registered type
	sc := m.CreateScene("Show")
	m.AddSlot(sc.ID, c.Meta().ID, geometry.NewRect(10, 10, 640, 360)) //nolint:errcheck // scene exists
	m.UpdateComponentWithJSON([]byte(`{"id":"` + c.Meta().ID + `","fit":"cover"}`)) //nolint:errcheck // valid payload
	h.clock.Advance(time.Second)
	m.CreateSlice("Side", geometry.NewRect(1920, 0, 1080, 1920))

	want := h.snapshot(t)
	if !m.Undo() || !m.Redo() {
		t.Fatal("undo/redo unavailable")
	}
	if got := h.snapshot(t); got != want {
		t.Errorf("state after undo+redo differs:\n%s\n%s", got, want)
	}
}

func TestUndoPreservesEntityIdentity(t *testing.T) {
	h := newHarness(t)
	m := h.m
	c, _ := m.CreateComponent(component.TypeText, nil) //nolint:errcheck // registered type
	m.UpdateComponentWithJSON([]byte(`{"id":"` + c.Meta().ID + `","content":"v2"}`)) //nolint:errcheck // valid payload
	m.PushHistoryNow()

	m.mu.Lock()
	live := m.components[0]
	m.mu.Unlock()

	m.Undo()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.components[0] != live {
		t.Error("undo replaced a component that exists in both states")
	}
	if live.(*component.Text).Content != "Text" {
		t.Errorf("content = %q, want the default", live.(*component.Text).Content)
	}
}

func TestDebouncedEditsCoalesce(t *testing.T) {
	h := newHarness(t)
	m := h.m
	c, _ := m.CreateComponent(component.TypeText, nil) //nolint:errcheck // registered type
	base := m.HistoryState().Length

	for i, content := range []string{"a", "ab", "abc", "abcd"} {
		m.UpdateComponentWithJSON([]byte(`{"id":"` + c.Meta().ID + `","content":"` + content + `"}`)) //nolint:errcheck // valid payload
		h.clock.Advance(time.Duration(100*(i+1)) * time.Millisecond / 4)
	}
	if m.HistoryState().Length != base {
		t.Fatal("debounced edits recorded before the delay")
	}
	h.clock.Advance(time.Second)

	st := m.HistoryState()
	if st.Length != base+1 {
		t.Fatalf("history length = %d, want %d", st.Length, base+1)
	}
	m.Undo()
	m.Redo()
	if got := m.Component(c.Meta().ID).(*component.Text).Content; got != "abcd" {
		t.Errorf("recorded content = %q, want abcd", got)
	}
}

func TestReplayDoesNotRecordHistory(t *testing.T) {
	h := newHarness(t)
	h.m.CreateScene("x")
	h.m.CreateScene("y")
	length := h.m.HistoryState().Length

	h.m.Undo()
	h.m.Undo()
	h.clock.Advance(time.Second)
	if got := h.m.HistoryState().Length; got != length {
		t.Errorf("history length = %d after replay, want %d", got, length)
	}
	if !h.m.CanRedo() {
		t.Error("redo branch lost")
	}
}

// ─── Snapshots ──────────────────────────────────────────────────────────────

func TestSnapshotRoundTrip(t *testing.T) {
	src := newHarness(t, scene.NewSlice("Main", scene.DefaultSliceRect))
	c, _ := src.m.CreateComponent(component.TypeBrowser, []byte(`{"url":"https://example.com"}`)) //nolint:errcheck // registered type
	sc := src.m.CreateScene("Show")
	src.m.AddSlot(sc.ID, c.Meta().ID, geometry.NewRect(0, 0, 800, 600)) //nolint:errcheck // scene exists
	want := src.snapshot(t)

	dst := newHarness(t)
	if err := dst.m.FromJSON([]byte(want)); err != nil {
		t.Fatal(err)
	}
	if got := dst.snapshot(t); got != want {
		t.Errorf("round trip differs:\n%s\n%s", got, want)
	}
}

func TestFromJSONNotifiesOnlyChanges(t *testing.T) {
	h := newHarness(t, scene.NewSlice("Main", scene.DefaultSliceRect))
	h.m.CreateComponent(component.TypeText, nil) //nolint:errcheck // registered type
	snap := h.snapshot(t)
	h.notify.reset()

	if err := h.m.FromJSON([]byte(snap)); err != nil {
		t.Fatal(err)
	}
	if events := h.notify.getEvents(); len(events) != 0 {
		t.Errorf("identical snapshot notified %v", events)
	}
}

func TestFromJSONRejectsInvalidPayloadAtomically(t *testing.T) {
	h := newHarness(t)
	before := h.snapshot(t)

	err := h.m.FromJSON([]byte(`{"slices":[{"id":"s9"}],"components":[{"id":"x","type":"hologram"}]}`))
	if !errors.Is(err, component.ErrUnknownType) {
		t.Fatalf("error = %v, want ErrUnknownType", err)
	}
	if got := h.snapshot(t); got != before {
		t.Error("partial payload was applied")
	}
}

// ─── Playback ───────────────────────────────────────────────────────────────

func TestPlaybackScenario(t *testing.T) {
	h := newHarness(t)
	m := h.m
	v1, _ := m.CreateComponent(component.TypeVideo, nil) //nolint:errcheck // registered type
	id := v1.Meta().ID

	p := m.CreatePlayback("Intro")
	payload := `{"id":"` + p.ID + `","timeline":{"tracks":[{"component":"` + id + `","range":{"offset":0,"duration":2,"start":0}}]}}`
	if err := m.UpdatePlaybackWithJSON([]byte(payload)); err != nil {
		t.Fatal(err)
	}
	h.notify.reset()

	if err := m.StartPlaybackFromID(p.ID); err != nil {
		t.Fatal(err)
	}
	if got := h.notify.count("action:" + id + ":play[0]"); got != 1 {
		t.Fatalf("synchronous play count = %d, want 1 (events %v)", got, h.notify.getEvents())
	}
	if m.ActivePlayback().StartTime == nil {
		t.Error("run start not stamped")
	}

	h.clock.Advance(2 * time.Second)
	h.clock.Advance(5 * time.Second)
	if got := h.notify.count("action:" + id + ":pause[]"); got != 1 {
		t.Errorf("pause count = %d, want 1", got)
	}
	if m.Component(id).(*component.Video).Playing {
		t.Error("video still playing after pause")
	}
}

func TestPlaybackErrors(t *testing.T) {
	h := newHarness(t)

	if err := h.m.StartPlayback(); !errors.Is(err, ErrNoActivePlayback) {
		t.Errorf("StartPlayback error = %v", err)
	}
	if err := h.m.StartPlaybackFromID("nope"); !errors.Is(err, ErrPlaybackNotFound) {
		t.Errorf("StartPlaybackFromID error = %v", err)
	}
	if err := h.m.UpdatePlaybackWithJSON([]byte(`{"name":"x"}`)); !errors.Is(err, ErrMissingID) {
		t.Errorf("UpdatePlaybackWithJSON error = %v", err)
	}
}

func TestRemoveActivePlaybackClearsPointerAndTimers(t *testing.T) {
	h := newHarness(t)
	m := h.m
	v, _ := m.CreateComponent(component.TypeVideo, nil) //nolint:errcheck // registered type
	p := playback.New("Loop")
	p.Timeline.Tracks = []*playback.Track{{Component: v.Meta().ID, Range: playback.Range{Offset: 5}}}
	m.AddPlayback(p)
	m.SetActivePlaybackFromID(p.ID)
	if err := m.StartPlayback(); err != nil {
		t.Fatal(err)
	}

	m.RemovePlayback(p.ID)
	if m.ActivePlayback() != nil {
		t.Error("active playback not cleared")
	}
	h.clock.Advance(10 * time.Second)
	if h.notify.count("action:") != 0 {
		t.Errorf("removed playback still fired: %v", h.notify.getEvents())
	}
}

func TestStopPlayback(t *testing.T) {
	h := newHarness(t)
	m := h.m
	v, _ := m.CreateComponent(component.TypeVideo, nil) //nolint:errcheck // registered type
	p := m.CreatePlayback("")
	m.UpdatePlaybackWithJSON([]byte(`{"id":"` + p.ID + `","timeline":{"tracks":[{"component":"` + v.Meta().ID + `","range":{"offset":1}}]}}`)) //nolint:errcheck // valid payload
	m.StartPlaybackFromID(p.ID) //nolint:errcheck // playback exists

	m.StopPlayback()
	h.clock.Advance(5 * time.Second)
	if h.notify.count("action:") != 0 {
		t.Error("stopped playback fired")
	}
	if m.ActivePlayback().StartTime != nil {
		t.Error("StartTime not cleared")
	}
}

func TestPlaybacksExcludedFromSnapshots(t *testing.T) {
	h := newHarness(t)
	h.m.CreatePlayback("Intro")

	var snap map[string]json.RawMessage
	if err := json.Unmarshal([]byte(h.snapshot(t)), &snap); err != nil {
		t.Fatal(err)
	}
	if _, ok := snap["playbacks"]; ok {
		t.Error("snapshot contains playbacks")
	}
	if h.m.CanUndo() {
		t.Error("playback creation recorded history")
	}
}

// ─── Rendering ──────────────────────────────────────────────────────────────

func TestRenderSceneResolvesMedia(t *testing.T) {
	h := newHarness(t)
	sc := h.m.ActiveScene()
	c, _ := h.m.CreateComponent(component.TypeVideo, []byte(`{"src":"clip.mp4"}`)) //nolint:errcheck // registered type
	h.m.AddSlot(sc.ID, c.Meta().ID, geometry.NewRect(0, 0, 100, 100)) //nolint:errcheck // scene exists

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		placements, err := h.m.RenderScene(sc.ID, true)
		if err != nil {
			t.Fatal(err)
		}
		if placements[0].Content.Status == component.MediaReady {
			if placements[0].Content.Source != "/media/clip.mp4" {
				t.Errorf("Source = %q", placements[0].Content.Source)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("media never became ready")
}

func TestRenderUnknownScene(t *testing.T) {
	h := newHarness(t)
	if _, err := h.m.RenderScene("nope", false); !errors.Is(err, ErrSceneNotFound) {
		t.Errorf("error = %v", err)
	}
}

// ─── Notifications ──────────────────────────────────────────────────────────

func TestNotificationOrder(t *testing.T) {
	h := newHarness(t)
	first := h.m.ActiveScene()
	h.notify.reset()

	s := h.m.CreateSlice("Main", scene.DefaultSliceRect)
	sc := h.m.CreateScene("Two")
	h.m.RemoveScene(sc.ID)
	h.m.RemoveSlice(s.ID)

	want := []string{
		"slice:" + s.ID,
		"scene:" + first.ID,
		"active:" + first.ID,
		"active:" + sc.ID,
		"scene:" + sc.ID,
		"scene:" + sc.ID + ":nil",
		"active:" + first.ID,
		"slice:" + s.ID + ":nil",
		"scene:" + first.ID,
		"active:" + first.ID,
	}
	if got := h.notify.getEvents(); !slices.Equal(got, want) {
		t.Errorf("events:\n%v\nwant:\n%v", got, want)
	}
}
