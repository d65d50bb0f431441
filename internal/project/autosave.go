package project

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/nerrad567/screener-core/internal/clock"
)

// Logger defines the logging interface used by the project package.
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

// AutosaveLabel marks snapshots written by the Autosaver.
const AutosaveLabel = "autosave"

// saveTimeout bounds one database write.
const saveTimeout = 5 * time.Second

// AutosaveOptions configures an Autosaver. Zero values select defaults.
type AutosaveOptions struct {
	// Interval is how long the saver waits after the first queued snapshot
	// before writing. Snapshots queued in the meantime replace it.
	Interval time.Duration

	// Keep is the number of rows retained after each save. <= 0 keeps all.
	Keep int

	Clock  clock.Clock
	Logger Logger
}

// Autosaver writes the newest queued snapshot after a quiet interval.
//
// Enqueue never blocks on the database, so it can be registered directly as
// a history commit hook.
type Autosaver struct {
	repo     Repository
	interval time.Duration
	keep     int
	clock    clock.Clock
	logger   Logger

	mu      sync.Mutex
	pending []byte
	timer   clock.Timer
	closed  bool

	// saveMu serialises writes so rows land in commit order.
	saveMu sync.Mutex
	last   []byte
	saves  int
}

// NewAutosaver creates an autosaver writing to repo.
func NewAutosaver(repo Repository, opts AutosaveOptions) *Autosaver {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	return &Autosaver{
		repo:     repo,
		interval: opts.Interval,
		keep:     opts.Keep,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
}

// Seed records data as already persisted so an identical first commit is
// not written again. Call it after Restore.
func (a *Autosaver) Seed(data []byte) {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	a.last = append([]byte(nil), data...)
}

// Enqueue queues a snapshot for saving, replacing any snapshot still
// waiting. Calls after Close are ignored.
func (a *Autosaver) Enqueue(snapshot []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.pending = append(a.pending[:0:0], snapshot...)
	if a.timer == nil {
		a.timer = a.clock.AfterFunc(a.interval, a.fire)
	}
}

// Pending reports whether a snapshot is waiting to be written.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}

// Saves returns how many snapshots have been written.
func (a *Autosaver) Saves() int {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	return a.saves
}

// Close cancels the timer and writes any pending snapshot synchronously.
func (a *Autosaver) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	data := a.pending
	a.pending = nil
	a.mu.Unlock()

	if data != nil {
		a.save(data)
	}
}

func (a *Autosaver) fire() {
	a.mu.Lock()
	data := a.pending
	a.pending = nil
	a.timer = nil
	a.mu.Unlock()

	if data != nil {
		a.save(data)
	}
}

func (a *Autosaver) save(data []byte) {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	if bytes.Equal(data, a.last) {
		a.logger.Debug("autosave skipped, state unchanged")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	snap, err := a.repo.Save(ctx, AutosaveLabel, data, a.keep)
	if err != nil {
		a.logger.Error("autosave failed", "error", err)
		return
	}
	a.last = data
	a.saves++
	a.logger.Debug("autosaved", "snapshot_id", snap.ID, "bytes", len(data))
}
