package manager

import (
	"slices"

	"github.com/nerrad567/screener-core/internal/geometry"
	"github.com/nerrad567/screener-core/internal/history"
	"github.com/nerrad567/screener-core/internal/scene"
)

// Slices returns copies of all slices in order.
func (m *Manager) Slices() []*scene.Slice {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*scene.Slice, len(m.slices))
	for i, s := range m.slices {
		out[i] = s.Clone()
	}
	return out
}

// Slice returns a copy of a slice, or nil if it does not exist.
func (m *Manager) Slice(id string) *scene.Slice {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.sliceLocked(id); s != nil {
		return s.Clone()
	}
	return nil
}

// SetSlice replaces the slice with the same id, or appends it.
func (m *Manager) SetSlice(s *scene.Slice, opts ...MutationOption) {
	changed := true
	defer m.commit(history.FlushImmediate, applyOptions(opts), &changed)
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := slices.IndexFunc(m.slices, func(o *scene.Slice) bool { return o.ID == s.ID }); i >= 0 {
		m.slices[i] = s
		m.notifier.SliceUpdated(s.ID, m.encode(s))
		return
	}
	m.addSliceLocked(s)
}

// AddSlice appends a slice. Every scene gains an empty viewport for it.
func (m *Manager) AddSlice(s *scene.Slice, opts ...MutationOption) {
	changed := false
	defer m.commit(history.FlushImmediate, applyOptions(opts), &changed)
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sliceLocked(s.ID) != nil {
		m.logger.Warn("slice already exists", "slice_id", s.ID)
		return
	}
	m.addSliceLocked(s)
	changed = true
}

// CreateSlice appends a new slice.
func (m *Manager) CreateSlice(name string, rect geometry.Rect, opts ...MutationOption) *scene.Slice {
	s := scene.NewSlice(name, rect)
	m.AddSlice(s, opts...)
	return s.Clone()
}

// RemoveSlice deletes a slice and its viewport in every scene.
func (m *Manager) RemoveSlice(id string, opts ...MutationOption) {
	changed := false
	defer m.commit(history.FlushImmediate, applyOptions(opts), &changed)
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.slices, func(s *scene.Slice) bool { return s.ID == id })
	if i < 0 {
		m.logger.Warn("slice not found", "slice_id", id)
		return
	}
	m.slices = slices.Delete(m.slices, i, i+1)
	m.notifier.SliceUpdated(id, nil)
	m.reconcileScenesLocked()
	m.notifier.ActiveSceneUpdated(m.activeScene.ID)
	changed = true
}

// UpdateSliceWithJSON merges a partial slice payload, creating the slice if
// its id is unknown.
//
// Returns ErrMissingID if the payload has no id, or a decode error.
func (m *Manager) UpdateSliceWithJSON(data []byte, opts ...MutationOption) error {
	id, err := payloadID(data)
	if err != nil {
		return err
	}

	changed := false
	defer m.commit(history.FlushDebounced, applyOptions(opts), &changed)
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.sliceLocked(id); s != nil {
		if err := s.Merge(data); err != nil {
			return err
		}
		m.notifier.SliceUpdated(s.ID, m.encode(s))
		changed = true
		return nil
	}

	s, err := scene.ParseSlice(data)
	if err != nil {
		return err
	}
	m.addSliceLocked(s)
	changed = true
	return nil
}

func (m *Manager) sliceLocked(id string) *scene.Slice {
	for _, s := range m.slices {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (m *Manager) addSliceLocked(s *scene.Slice) {
	m.slices = append(m.slices, s)
	m.notifier.SliceUpdated(s.ID, m.encode(s))
	m.reconcileScenesLocked()
	m.notifier.ActiveSceneUpdated(m.activeScene.ID)
}
