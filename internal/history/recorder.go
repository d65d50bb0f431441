package history

import (
	"bytes"
	"sync"
	"time"

	"github.com/nerrad567/screener-core/internal/clock"
)

// Recorder defaults.
const (
	DefaultDebounce  = 500 * time.Millisecond
	DefaultMaxLength = 100
)

// FlushPolicy selects when a push captures state.
type FlushPolicy int

const (
	// FlushDebounced captures once the debounce delay passes without
	// another push.
	FlushDebounced FlushPolicy = iota

	// FlushImmediate captures before Push returns.
	FlushImmediate
)

// String returns the policy name.
func (p FlushPolicy) String() string {
	if p == FlushImmediate {
		return "immediate"
	}
	return "debounced"
}

// CaptureFunc returns the serialised state to record. It is called without
// any Recorder lock held.
type CaptureFunc func() ([]byte, error)

// Logger defines the logging interface used by the Recorder.
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

// Options configures a Recorder. Zero values select the defaults.
type Options struct {
	Debounce  time.Duration
	MaxLength int
	Clock     clock.Clock
	Logger    Logger
}

// Recorder is the undo/redo buffer.
//
// All methods are safe for concurrent use. Methods that may capture (Push
// with FlushImmediate, Flush, Undo, Redo, Close) call the CaptureFunc and must
// not be called while holding a lock the CaptureFunc needs.
type Recorder struct {
	capture  CaptureFunc
	clock    clock.Clock
	logger   Logger
	debounce time.Duration
	maxLen   int

	// commitMu orders captures so entries appear in capture order.
	commitMu sync.Mutex

	mu       sync.Mutex
	entries  [][]byte
	index    int
	timer    clock.Timer
	gen      uint64
	closed   bool
	onCommit func(snapshot []byte)
}

// New creates a recorder with an empty buffer.
func New(capture CaptureFunc, opts Options) *Recorder {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	return &Recorder{
		capture:  capture,
		clock:    opts.Clock,
		logger:   opts.Logger,
		debounce: opts.Debounce,
		maxLen:   opts.MaxLength,
		index:    -1,
	}
}

// OnCommit registers a hook that receives every recorded snapshot. It runs
// outside the recorder's lock.
func (r *Recorder) OnCommit(fn func(snapshot []byte)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onCommit = fn
}

// Push records the current state according to policy.
func (r *Recorder) Push(policy FlushPolicy) {
	if policy == FlushImmediate {
		r.mu.Lock()
		r.cancelLocked()
		closed := r.closed
		r.mu.Unlock()
		if !closed {
			r.commit()
		}
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.cancelLocked()
	gen := r.gen
	r.timer = r.clock.AfterFunc(r.debounce, func() { r.fire(gen) })
}

// Flush captures a pending debounced push now.
//
// Returns true if a push was pending.
func (r *Recorder) Flush() bool {
	r.mu.Lock()
	pending := r.timer != nil
	r.cancelLocked()
	r.mu.Unlock()

	if pending {
		r.commit()
	}
	return pending
}

// Pending reports whether a debounced push is waiting.
func (r *Recorder) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timer != nil
}

// Undo moves the cursor back after flushing any pending push.
//
// Returns the snapshot to restore, or false if there is nothing to undo.
func (r *Recorder) Undo() ([]byte, bool) {
	r.Flush()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index <= 0 {
		return nil, false
	}
	r.index--
	return r.entries[r.index], true
}

// Redo moves the cursor forward.
//
// Returns the snapshot to restore, or false if there is nothing to redo.
func (r *Recorder) Redo() ([]byte, bool) {
	r.Flush()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index >= len(r.entries)-1 {
		return nil, false
	}
	r.index++
	return r.entries[r.index], true
}

// CanUndo reports whether Undo would move the cursor.
func (r *Recorder) CanUndo() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index > 0 || (r.timer != nil && r.index >= 0)
}

// CanRedo reports whether Redo would move the cursor.
func (r *Recorder) CanRedo() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timer == nil && r.index < len(r.entries)-1
}

// Len returns the number of entries.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Index returns the cursor position, -1 when empty.
func (r *Recorder) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index
}

// Reset discards the buffer and starts over from one snapshot.
func (r *Recorder) Reset(snapshot []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelLocked()
	r.entries = [][]byte{bytes.Clone(snapshot)}
	r.index = 0
}

// Close flushes a pending push and stops accepting new ones.
func (r *Recorder) Close() {
	r.Flush()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelLocked()
	r.closed = true
}

func (r *Recorder) cancelLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.gen++
}

func (r *Recorder) fire(gen uint64) {
	r.mu.Lock()
	if gen != r.gen || r.timer == nil {
		r.mu.Unlock()
		return
	}
	r.timer = nil
	r.mu.Unlock()

	r.commit()
}

func (r *Recorder) commit() {
	r.commitMu.Lock()
	defer r.commitMu.Unlock()

	snapshot, err := r.capture()
	if err != nil {
		r.logger.Error("history capture failed", "error", err)
		return
	}

	r.mu.Lock()
	if r.index >= 0 && bytes.Equal(r.entries[r.index], snapshot) {
		r.mu.Unlock()
		return
	}

	r.entries = append(r.entries[:r.index+1], snapshot)
	if over := len(r.entries) - r.maxLen; over > 0 {
		r.entries = append([][]byte(nil), r.entries[over:]...)
	}
	r.index = len(r.entries) - 1
	hook := r.onCommit
	length := len(r.entries)
	r.mu.Unlock()

	r.logger.Debug("history entry recorded", "length", length, "bytes", len(snapshot))
	if hook != nil {
		hook(snapshot)
	}
}
