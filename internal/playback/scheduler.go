package playback

import (
	"sync"
	"time"

	"github.com/nerrad567/screener-core/internal/clock"
)

// Action names the scheduler invokes.
const (
	ActionPlay  = "play"
	ActionPause = "pause"
)

// InvokeFunc calls an action on a component.
type InvokeFunc func(componentID, action string, args ...any)

// Scheduler runs one timeline at a time.
//
// All methods are safe for concurrent use. Actions are invoked without the
// scheduler's lock held, so an InvokeFunc may call back into the scheduler
// unless a locker is set.
type Scheduler struct {
	clock  clock.Clock
	locker sync.Locker

	mu     sync.Mutex
	run    uint64
	seq    int
	timers map[int]clock.Timer
}

// NewScheduler creates a scheduler. A nil clock selects the real clock.
func NewScheduler(clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.Real()
	}
	return &Scheduler{clock: clk, timers: make(map[int]clock.Timer)}
}

// SetLocker makes every invocation hold l while it checks that its run is
// still current and calls the action. A run cancelled before l is acquired
// invokes nothing, so actions of two runs never interleave.
//
// Start takes l to play zero-offset tracks, and invoke runs with l held, so
// an InvokeFunc must not call Start. Call SetLocker before the first Start.
func (s *Scheduler) SetLocker(l sync.Locker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locker = l
}

// Start cancels the previous run and schedules the given tracks. Tracks with
// a zero offset play before Start returns, in track order.
//
// Returns the number of timers left pending.
func (s *Scheduler) Start(tracks []Track, invoke InvokeFunc) int {
	s.mu.Lock()
	s.cancelLocked()
	run := s.run

	var immediate []Track
	for _, tr := range tracks {
		if tr.Component == "" {
			continue
		}
		offset := max(tr.Range.Offset, 0)
		if offset == 0 {
			immediate = append(immediate, tr)
		} else {
			s.scheduleLocked(run, seconds(offset), tr.Component, ActionPlay, invoke, tr.Range.Start)
		}
		if d := tr.Range.Duration; d != nil && *d >= 0 {
			s.scheduleLocked(run, seconds(offset+*d), tr.Component, ActionPause, invoke)
		}
	}
	pending := len(s.timers)
	s.mu.Unlock()

	for _, tr := range immediate {
		s.fire(run, tr.Component, ActionPlay, invoke, tr.Range.Start)
	}
	return pending
}

// Stop cancels every pending timer of the current run.
//
// Returns the number of timers cancelled.
func (s *Scheduler) Stop() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.timers)
	s.cancelLocked()
	return n
}

// Pending returns the number of timers that have not fired yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Scheduler) cancelLocked() {
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.run++
}

func (s *Scheduler) scheduleLocked(run uint64, d time.Duration, componentID, action string, invoke InvokeFunc, args ...any) {
	s.seq++
	id := s.seq
	s.timers[id] = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if s.run != run {
			// Cancelled after the timer had already started firing.
			s.mu.Unlock()
			return
		}
		delete(s.timers, id)
		s.mu.Unlock()

		s.fire(run, componentID, action, invoke, args...)
	})
}

// fire invokes the action if run is still current.
func (s *Scheduler) fire(run uint64, componentID, action string, invoke InvokeFunc, args ...any) {
	s.mu.Lock()
	locker := s.locker
	s.mu.Unlock()
	if locker != nil {
		locker.Lock()
		defer locker.Unlock()
	}

	s.mu.Lock()
	current := s.run == run
	s.mu.Unlock()
	if current {
		invoke(componentID, action, args...)
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
