package manager

import (
	"fmt"
	"slices"

	"github.com/nerrad567/screener-core/internal/playback"
)

// Playbacks are not part of snapshots, so their mutations record no history.

// Playbacks returns copies of all playbacks in order.
func (m *Manager) Playbacks() []*playback.Playback {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*playback.Playback, len(m.playbacks))
	for i, p := range m.playbacks {
		out[i] = p.Clone()
	}
	return out
}

// Playback returns a copy of a playback, or nil if it does not exist.
func (m *Manager) Playback(id string) *playback.Playback {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p := m.playbackLocked(id); p != nil {
		return p.Clone()
	}
	return nil
}

// ActivePlayback returns a copy of the active playback, or nil.
func (m *Manager) ActivePlayback() *playback.Playback {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activePlayback == nil {
		return nil
	}
	return m.activePlayback.Clone()
}

// AddPlayback takes ownership of a playback.
func (m *Manager) AddPlayback(p *playback.Playback) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.playbackLocked(p.ID) != nil {
		m.logger.Warn("playback already exists", "playback_id", p.ID)
		return
	}
	m.playbacks = append(m.playbacks, p)
	m.notifier.PlaybackUpdated(p.ID, m.encode(p))
}

// CreatePlayback adds a new empty playback.
func (m *Manager) CreatePlayback(name string) *playback.Playback {
	p := playback.New(name)
	m.AddPlayback(p)
	return p.Clone()
}

// RemovePlayback deletes a playback. Removing the active playback clears the
// active pointer and cancels its pending timers; actions that already fired
// are left as they are.
func (m *Manager) RemovePlayback(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.playbacks, func(p *playback.Playback) bool { return p.ID == id })
	if i < 0 {
		m.logger.Warn("playback not found", "playback_id", id)
		return
	}
	removed := m.playbacks[i]
	m.playbacks = slices.Delete(m.playbacks, i, i+1)
	m.notifier.PlaybackUpdated(id, nil)

	if removed == m.activePlayback {
		m.scheduler.Stop()
		m.activePlayback = nil
		m.notifier.ActivePlaybackUpdated("")
	}
}

// UpdatePlaybackWithJSON merges a partial playback payload, creating the
// playback if its id is unknown. Tracks are reconciled by component.
//
// Returns ErrMissingID if the payload has no id, or a decode error.
func (m *Manager) UpdatePlaybackWithJSON(data []byte) error {
	id, err := payloadID(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.playbackLocked(id)
	if p == nil {
		if p, err = playback.Parse(data); err != nil {
			return err
		}
		m.playbacks = append(m.playbacks, p)
	} else if err := p.Merge(data); err != nil {
		return err
	}

	m.notifier.PlaybackUpdated(p.ID, m.encode(p))
	return nil
}

// SetActivePlayback activates the live playback with the same id as p.
// A nil playback clears the active pointer.
func (m *Manager) SetActivePlayback(p *playback.Playback) {
	if p == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.activePlayback != nil {
			m.activePlayback = nil
			m.notifier.ActivePlaybackUpdated("")
		}
		return
	}
	m.SetActivePlaybackFromID(p.ID)
}

// SetActivePlaybackFromID activates a playback. Unknown ids are ignored.
func (m *Manager) SetActivePlaybackFromID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.playbackLocked(id)
	if p == nil {
		m.logger.Warn("playback not found", "playback_id", id)
		return
	}
	m.activePlayback = p
	m.notifier.ActivePlaybackUpdated(p.ID)
}

// StartPlayback runs the active playback from time zero, cancelling any
// previous run. Tracks with a zero offset play before StartPlayback returns.
//
// Returns ErrNoActivePlayback if no playback is active.
func (m *Manager) StartPlayback() error {
	m.mu.Lock()
	p := m.activePlayback
	if p == nil {
		m.mu.Unlock()
		return ErrNoActivePlayback
	}
	tracks := m.beginRunLocked(p)
	m.mu.Unlock()

	m.logger.Info("playback started", "playback_id", p.ID, "tracks", len(tracks))
	m.scheduler.Start(tracks, m.invokeScheduled)
	return nil
}

// StartPlaybackFromID activates a playback and starts it.
//
// Returns ErrPlaybackNotFound if the playback does not exist.
func (m *Manager) StartPlaybackFromID(id string) error {
	m.mu.Lock()
	p := m.playbackLocked(id)
	if p == nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrPlaybackNotFound, id)
	}
	if p != m.activePlayback {
		m.activePlayback = p
		m.notifier.ActivePlaybackUpdated(p.ID)
	}
	m.mu.Unlock()

	return m.StartPlayback()
}

// StopPlayback cancels the pending timers of the current run.
func (m *Manager) StopPlayback() {
	cancelled := m.scheduler.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.activePlayback; p != nil && p.StartTime != nil {
		p.StartTime = nil
		p.Time = 0
		m.notifier.PlaybackUpdated(p.ID, m.encode(p))
	}
	m.logger.Info("playback stopped", "cancelled_timers", cancelled)
}

// beginRunLocked stamps the run start on p and returns its tracks.
func (m *Manager) beginRunLocked(p *playback.Playback) []playback.Track {
	now := m.clock.Now().UnixMilli()
	p.StartTime = &now
	p.Time = 0
	m.notifier.PlaybackUpdated(p.ID, m.encode(p))

	tracks := make([]playback.Track, len(p.Timeline.Tracks))
	for i, tr := range p.Timeline.Tracks {
		tracks[i] = *tr
	}
	return tracks
}

// invokeScheduled runs a timeline action. The scheduler calls it with m.mu
// held.
func (m *Manager) invokeScheduled(componentID, action string, args ...any) {
	if err := m.invokeComponentActionLocked(componentID, action, args...); err != nil {
		m.logger.Warn("scheduled action failed", "component_id", componentID, "action", action, "error", err)
	}
}

func (m *Manager) playbackLocked(id string) *playback.Playback {
	for _, p := range m.playbacks {
		if p.ID == id {
			return p
		}
	}
	return nil
}
