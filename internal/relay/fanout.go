package relay

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/screener-core/internal/manager"
)

var _ manager.Notifier = (*Fanout)(nil)

// DefaultQueueSize is the per-sink event buffer used when NewFanout gets size <= 0.
const DefaultQueueSize = 1024

// Logger defines the logging interface used by relay components.
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

// Sink consumes events. Handle is called from a goroutine owned by the sink,
// in notification order, and may block without delaying other sinks.
type Sink interface {
	Handle(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev Event)

// Handle calls f(ev).
func (f SinkFunc) Handle(ev Event) { f(ev) }

// losslessSink is implemented by sinks whose queue must never drop.
type losslessSink interface {
	Sink
	lossless()
}

type losslessFunc struct{ Sink }

func (losslessFunc) lossless() {}

// Lossless marks s so its queue grows instead of dropping events.
func Lossless(s Sink) Sink {
	return losslessFunc{s}
}

// Fanout implements manager.Notifier by queueing every notification once per
// sink. Each sink drains its own queue from its own goroutine.
//
// Notification methods never block. A full queue drops the event for that
// sink only and counts it; lossless sinks (the WebSocket hub) are unbounded.
type Fanout struct {
	lanes  []*lane
	logger Logger
	now    func() time.Time
}

// lane is the queue and delivery state of one sink.
type lane struct {
	sink     Sink
	limit    int
	lossless bool

	mu      sync.Mutex
	pending []Event
	wake    chan struct{}
	dropped atomic.Uint64
}

// NewFanout creates a fanout with one queue per sink.
//
// Parameters:
//   - size: per-sink queue capacity; <= 0 selects DefaultQueueSize.
//     Ignored for lossless sinks.
//   - logger: may be nil
//   - sinks: receivers
func NewFanout(size int, logger Logger, sinks ...Sink) *Fanout {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = noopLogger{}
	}
	f := &Fanout{logger: logger, now: time.Now}
	for _, s := range sinks {
		_, lossless := s.(losslessSink)
		f.lanes = append(f.lanes, &lane{
			sink:     s,
			limit:    size,
			lossless: lossless,
			wake:     make(chan struct{}, 1),
		})
	}
	return f
}

// Run delivers queued events until ctx is cancelled, then drains whatever is
// still queued and returns.
func (f *Fanout) Run(ctx context.Context) error {
	var g errgroup.Group
	for _, l := range f.lanes {
		g.Go(func() error {
			f.runLane(ctx, l)
			return nil
		})
	}
	return g.Wait()
}

// Dropped returns how many events were discarded across all sinks because a
// queue was full.
func (f *Fanout) Dropped() uint64 {
	var n uint64
	for _, l := range f.lanes {
		n += l.dropped.Load()
	}
	return n
}

func (f *Fanout) runLane(ctx context.Context, l *lane) {
	for {
		select {
		case <-l.wake:
			f.deliver(l)
		case <-ctx.Done():
			f.deliver(l)
			return
		}
	}
}

// deliver hands every pending event of l to its sink.
func (f *Fanout) deliver(l *lane) {
	for {
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, ev := range batch {
			f.handle(l.sink, ev)
		}
	}
}

func (f *Fanout) handle(s Sink, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("relay sink panic recovered", "channel", ev.Channel, "id", ev.ID, "panic", r)
		}
	}()
	s.Handle(ev)
}

func (f *Fanout) enqueue(ev Event) {
	ev.At = f.now()
	for _, l := range f.lanes {
		l.mu.Lock()
		if !l.lossless && len(l.pending) >= l.limit {
			l.mu.Unlock()
			l.dropped.Add(1)
			f.logger.Warn("relay queue full, event dropped", "channel", ev.Channel, "id", ev.ID)
			continue
		}
		l.pending = append(l.pending, ev)
		l.mu.Unlock()

		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
}

// ─── manager.Notifier ───────────────────────────────────────────────

// SliceUpdated queues a slice change.
func (f *Fanout) SliceUpdated(id string, data json.RawMessage) {
	f.enqueue(Event{Channel: ChannelSlice, ID: id, Data: data})
}

// ComponentUpdated queues a component change.
func (f *Fanout) ComponentUpdated(id string, data json.RawMessage) {
	f.enqueue(Event{Channel: ChannelComponent, ID: id, Data: data})
}

// SceneUpdated queues a scene change.
func (f *Fanout) SceneUpdated(id string, data json.RawMessage) {
	f.enqueue(Event{Channel: ChannelScene, ID: id, Data: data})
}

// ActiveSceneUpdated queues an active scene change.
func (f *Fanout) ActiveSceneUpdated(id string) {
	f.enqueue(Event{Channel: ChannelActiveScene, ID: id})
}

// PlaybackUpdated queues a playback change.
func (f *Fanout) PlaybackUpdated(id string, data json.RawMessage) {
	f.enqueue(Event{Channel: ChannelPlayback, ID: id, Data: data})
}

// ActivePlaybackUpdated queues an active playback change.
func (f *Fanout) ActivePlaybackUpdated(id string) {
	f.enqueue(Event{Channel: ChannelActivePlayback, ID: id})
}

// ComponentActionInvoked queues an action invocation.
func (f *Fanout) ComponentActionInvoked(id, action string, args []any) {
	f.enqueue(Event{Channel: ChannelComponentAction, ID: id, Action: action, Args: append([]any(nil), args...)})
}
