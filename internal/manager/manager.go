package manager

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/screener-core/internal/clock"
	"github.com/nerrad567/screener-core/internal/component"
	"github.com/nerrad567/screener-core/internal/history"
	"github.com/nerrad567/screener-core/internal/playback"
	"github.com/nerrad567/screener-core/internal/scene"
)

// Logger defines the logging interface used by the Manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MediaCache resolves media sources for components. *media.Cache implements it.
type MediaCache interface {
	Request(ctx context.Context, componentID, src string, noCache bool) (string, bool)
	Release(componentID string) int
}

// Options configures a Manager. Zero values select defaults.
type Options struct {
	// Registry builds components. Nil selects the default plugin.
	Registry *component.Registry

	// Notifier receives change notifications. Nil discards them.
	Notifier Notifier

	// Media resolves media sources. Nil makes every request fail.
	Media MediaCache

	// Clock drives history debounce and playback timers.
	Clock clock.Clock

	Logger Logger

	// HistoryDebounce is the debounce delay of PushHistory.
	HistoryDebounce time.Duration

	// MaxHistory caps the undo buffer.
	MaxHistory int

	// Slices are the initial output regions.
	Slices []*scene.Slice
}

// Manager is the authoritative store. Create one per process with New and
// tear it down with Close.
//
// All methods are safe for concurrent use.
type Manager struct {
	registry  *component.Registry
	notifier  Notifier
	media     MediaCache
	clock     clock.Clock
	logger    Logger
	history   *history.Recorder
	scheduler *playback.Scheduler

	mu             sync.Mutex
	scenes         []*scene.Scene
	activeScene    *scene.Scene
	slices         []*scene.Slice
	components     []component.Component
	playbacks      []*playback.Playback
	activePlayback *playback.Playback
}

// New creates a manager holding the given slices and one empty, active
// scene. The initial state is the first history entry.
func New(opts Options) *Manager {
	if opts.Registry == nil {
		opts.Registry, _ = component.NewRegistry(component.DefaultPlugin()) //nolint:errcheck // built-in plugin has unique types
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	m := &Manager{
		registry:  opts.Registry,
		notifier:  opts.Notifier,
		media:     opts.Media,
		clock:     opts.Clock,
		logger:    opts.Logger,
		scheduler: playback.NewScheduler(opts.Clock),
	}
	m.history = history.New(m.snapshot, history.Options{
		Debounce:  opts.HistoryDebounce,
		MaxLength: opts.MaxHistory,
		Clock:     opts.Clock,
		Logger:    opts.Logger,
	})

	m.scheduler.SetLocker(&m.mu)

	for _, s := range opts.Slices {
		m.slices = append(m.slices, s.Clone())
	}
	sc := m.newSceneLocked("")
	m.scenes = append(m.scenes, sc)
	m.activeScene = sc

	if data, err := m.snapshot(); err == nil {
		m.history.Reset(data)
	}
	return m
}

// Registry returns the component registry.
func (m *Manager) Registry() *component.Registry {
	return m.registry
}

// History returns the undo buffer, mainly for wiring commit hooks.
func (m *Manager) History() *history.Recorder {
	return m.history
}

// Close cancels playback timers and flushes pending history.
func (m *Manager) Close() {
	m.scheduler.Stop()
	m.history.Close()
}

// ─── Mutation options ───────────────────────────────────────────────────────

// MutationOption adjusts a single mutating call.
type MutationOption func(*mutation)

type mutation struct {
	record bool
}

// WithoutHistory suppresses the history push of a mutation. History replay
// uses it so that restoring a snapshot does not record a new one.
func WithoutHistory() MutationOption {
	return func(m *mutation) { m.record = false }
}

func applyOptions(opts []MutationOption) mutation {
	mut := mutation{record: true}
	for _, o := range opts {
		o(&mut)
	}
	return mut
}

// commit pushes history for a mutation that changed state. It is deferred
// before the store lock so that it runs after the unlock.
func (m *Manager) commit(policy history.FlushPolicy, mut mutation, changed *bool) {
	if *changed && mut.record {
		m.history.Push(policy)
	}
}

// ─── History ────────────────────────────────────────────────────────────────

// HistoryState summarises the undo buffer.
type HistoryState struct {
	Length  int  `json:"length"`
	Index   int  `json:"index"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
	Pending bool `json:"pending"`
}

// PushHistory records the current state after the debounce delay.
func (m *Manager) PushHistory() {
	m.history.Push(history.FlushDebounced)
}

// PushHistoryNow records the current state immediately.
func (m *Manager) PushHistoryNow() {
	m.history.Push(history.FlushImmediate)
}

// Undo restores the previous history entry.
//
// Returns false if there is nothing to undo.
func (m *Manager) Undo() bool {
	data, ok := m.history.Undo()
	if !ok {
		return false
	}
	if err := m.FromJSON(data, WithoutHistory()); err != nil {
		m.logger.Error("history replay failed", "direction", "undo", "error", err)
		return false
	}
	return true
}

// Redo restores the next history entry.
//
// Returns false if there is nothing to redo.
func (m *Manager) Redo() bool {
	data, ok := m.history.Redo()
	if !ok {
		return false
	}
	if err := m.FromJSON(data, WithoutHistory()); err != nil {
		m.logger.Error("history replay failed", "direction", "redo", "error", err)
		return false
	}
	return true
}

// CanUndo reports whether Undo would change state.
func (m *Manager) CanUndo() bool {
	return m.history.CanUndo()
}

// CanRedo reports whether Redo would change state.
func (m *Manager) CanRedo() bool {
	return m.history.CanRedo()
}

// HistoryState returns the undo buffer summary.
func (m *Manager) HistoryState() HistoryState {
	return HistoryState{
		Length:  m.history.Len(),
		Index:   m.history.Index(),
		CanUndo: m.history.CanUndo(),
		CanRedo: m.history.CanRedo(),
		Pending: m.history.Pending(),
	}
}

// ─── Media ──────────────────────────────────────────────────────────────────

// RequestMedia resolves a media source on behalf of a component. It blocks
// until resolution completes and never holds the store lock.
//
// Returns ("", false) when resolution fails.
func (m *Manager) RequestMedia(ctx context.Context, componentID, src string, noCache bool) (string, bool) {
	if m.media == nil {
		return "", false
	}
	return m.media.Request(ctx, componentID, src, noCache)
}

// ReleaseMedia drops a component's claim on cached media.
//
// Returns the number of evicted cache entries.
func (m *Manager) ReleaseMedia(componentID string) int {
	if m.media == nil {
		return 0
	}
	return m.media.Release(componentID)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (m *Manager) encode(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		m.logger.Error("encoding entity failed", "error", err)
		return json.RawMessage("{}")
	}
	return data
}

func (m *Manager) sliceIDsLocked() []string {
	ids := make([]string, len(m.slices))
	for i, s := range m.slices {
		ids[i] = s.ID
	}
	return ids
}

// reconcileScenesLocked makes every scene's sliceSetup cover exactly the live
// slices and notifies the scenes that changed.
func (m *Manager) reconcileScenesLocked() {
	ids := m.sliceIDsLocked()
	for _, sc := range m.scenes {
		if sc.ReconcileSlices(ids) {
			m.notifier.SceneUpdated(sc.ID, m.encode(sc))
		}
	}
}

// ensureActiveLocked keeps at least one scene and a valid active pointer. A
// synthesised default scene shows every slice at its own rect. Callers notify.
//
// Returns true if the active scene changed.
func (m *Manager) ensureActiveLocked() bool {
	if len(m.scenes) == 0 {
		m.logger.Warn("no scenes left, creating default scene")
		sc := scene.New("")
		for _, s := range m.slices {
			sc.SliceSetup[s.ID] = s.Rect
		}
		m.scenes = append(m.scenes, sc)
	}
	for _, sc := range m.scenes {
		if sc == m.activeScene {
			return false
		}
	}
	if m.activeScene != nil {
		m.logger.Warn("active scene not found, activating first scene", "scene_id", m.activeScene.ID)
	}
	m.activeScene = m.scenes[0]
	return true
}
