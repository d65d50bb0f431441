package manager

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/nerrad567/screener-core/internal/component"
	"github.com/nerrad567/screener-core/internal/history"
	"github.com/nerrad567/screener-core/internal/scene"
)

// Snapshot is the persisted and undoable state. Playbacks are not part of it.
type Snapshot struct {
	Scenes      []*scene.Scene        `json:"scenes"`
	ActiveScene string                `json:"activeScene"`
	Slices      []*scene.Slice        `json:"slices"`
	Components  []component.Component `json:"components"`
}

// ToJSON serialises the full state.
func (m *Manager) ToJSON() ([]byte, error) {
	return m.snapshot()
}

func (m *Manager) snapshot() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() ([]byte, error) {
	snap := Snapshot{
		Scenes:     m.scenes,
		Slices:     m.slices,
		Components: m.components,
	}
	if snap.Slices == nil {
		snap.Slices = []*scene.Slice{}
	}
	if snap.Components == nil {
		snap.Components = []component.Component{}
	}
	if m.activeScene != nil {
		snap.ActiveScene = m.activeScene.ID
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

type snapshotIn struct {
	Scenes      *[]json.RawMessage `json:"scenes"`
	ActiveScene *string            `json:"activeScene"`
	Slices      *[]json.RawMessage `json:"slices"`
	Components  *[]json.RawMessage `json:"components"`
}

// FromJSON reconciles the live state against a snapshot. Entities present in
// both keep their identity and are merged; entities only in the payload are
// created; live entities absent from a present list are removed. Lists absent
// from the payload are left untouched. Only entities whose serialised form
// changed are notified.
//
// The payload is validated before anything changes. Returns an error for
// malformed JSON, unregistered component types or slots without a component.
func (m *Manager) FromJSON(data []byte, opts ...MutationOption) error {
	var in snapshotIn
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	changed := false
	defer m.commit(history.FlushImmediate, applyOptions(opts), &changed)
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validateLocked(in); err != nil {
		return err
	}

	before := m.encodeAllLocked()
	prevOrder := m.sceneOrderLocked()
	prevActive := m.activeScene

	if in.Slices != nil && m.reconcileSlicesLocked(*in.Slices) {
		changed = true
	}
	if in.Components != nil && m.reconcileComponentsLocked(*in.Components) {
		changed = true
	}
	if in.Scenes != nil && m.reconcileSceneListLocked(*in.Scenes) {
		changed = true
	}

	ids := m.sliceIDsLocked()
	for _, sc := range m.scenes {
		sc.ReconcileSlices(ids)
	}
	if in.ActiveScene != nil {
		if sc := m.sceneLocked(*in.ActiveScene); sc != nil {
			m.activeScene = sc
		} else {
			m.logger.Warn("snapshot active scene not found", "scene_id", *in.ActiveScene)
		}
	}
	m.ensureActiveLocked()

	for _, sc := range m.scenes {
		if data := m.encode(sc); !bytes.Equal(before[sc.ID], data) {
			m.notifier.SceneUpdated(sc.ID, data)
			changed = true
		}
	}
	if m.activeScene != prevActive {
		m.notifier.ActiveSceneUpdated(m.activeScene.ID)
		changed = true
	}
	if !slices.Equal(prevOrder, m.sceneOrderLocked()) {
		changed = true
	}
	return nil
}

// validateLocked parses every new entity of a snapshot without applying it.
func (m *Manager) validateLocked(in snapshotIn) error {
	if in.Slices != nil {
		for _, raw := range *in.Slices {
			if _, err := scene.ParseSlice(raw); err != nil {
				return err
			}
		}
	}
	if in.Components != nil {
		for _, raw := range *in.Components {
			if _, err := m.registry.FromJSON(raw); err != nil {
				return err
			}
		}
	}
	if in.Scenes != nil {
		for _, raw := range *in.Scenes {
			if _, err := scene.Parse(raw); err != nil {
				return err
			}
		}
	}
	return nil
}

// encodeAllLocked returns the serialised form of every scene by id.
func (m *Manager) encodeAllLocked() map[string][]byte {
	out := make(map[string][]byte, len(m.scenes))
	for _, sc := range m.scenes {
		out[sc.ID] = m.encode(sc)
	}
	return out
}

func (m *Manager) sceneOrderLocked() []string {
	ids := make([]string, len(m.scenes))
	for i, sc := range m.scenes {
		ids[i] = sc.ID
	}
	return ids
}

// reconcileSlicesLocked returns true if any slice was added, changed or removed.
func (m *Manager) reconcileSlicesLocked(raws []json.RawMessage) bool {
	changed := false
	next := make([]*scene.Slice, 0, len(raws))
	seen := make(map[string]bool, len(raws))

	for _, raw := range raws {
		parsed, err := scene.ParseSlice(raw)
		if err != nil || seen[parsed.ID] {
			continue
		}
		seen[parsed.ID] = true

		live := m.sliceLocked(parsed.ID)
		if live == nil {
			next = append(next, parsed)
			m.notifier.SliceUpdated(parsed.ID, m.encode(parsed))
			changed = true
			continue
		}
		prev := m.encode(live)
		if err := live.Merge(raw); err != nil {
			m.logger.Warn("merging slice failed", "slice_id", live.ID, "error", err)
		}
		next = append(next, live)
		if data := m.encode(live); !bytes.Equal(prev, data) {
			m.notifier.SliceUpdated(live.ID, data)
			changed = true
		}
	}

	for _, s := range m.slices {
		if !seen[s.ID] {
			m.notifier.SliceUpdated(s.ID, nil)
			changed = true
		}
	}
	if !changed && !slices.EqualFunc(m.slices, next, func(a, b *scene.Slice) bool { return a == b }) {
		changed = true
	}
	m.slices = next
	return changed
}

// reconcileComponentsLocked returns true if any component was added, changed
// or removed.
func (m *Manager) reconcileComponentsLocked(raws []json.RawMessage) bool {
	changed := false
	next := make([]component.Component, 0, len(raws))
	seen := make(map[string]bool, len(raws))

	for _, raw := range raws {
		parsed, err := m.registry.FromJSON(raw)
		if err != nil || seen[parsed.Meta().ID] {
			continue
		}
		id := parsed.Meta().ID
		seen[id] = true

		live := m.componentLocked(id)
		if live == nil || live.Meta().Type != parsed.Meta().Type {
			next = append(next, parsed)
			m.notifier.ComponentUpdated(id, m.encode(parsed))
			changed = true
			continue
		}
		prev := m.encode(live)
		if err := m.registry.Merge(live, raw); err != nil {
			m.logger.Warn("merging component failed", "component_id", id, "error", err)
		}
		next = append(next, live)
		if data := m.encode(live); !bytes.Equal(prev, data) {
			m.notifier.ComponentUpdated(id, data)
			changed = true
		}
	}

	for _, c := range m.components {
		id := c.Meta().ID
		if !seen[id] {
			m.notifier.ComponentUpdated(id, nil)
			m.ReleaseMedia(id)
			changed = true
		}
	}
	m.components = next
	return changed
}

// reconcileSceneListLocked merges or creates scenes and removes the rest.
// Scene updates are notified by the caller once slice setups are settled.
//
// Returns true if any scene was removed.
func (m *Manager) reconcileSceneListLocked(raws []json.RawMessage) bool {
	removed := false
	next := make([]*scene.Scene, 0, len(raws))
	seen := make(map[string]bool, len(raws))

	for _, raw := range raws {
		parsed, err := scene.Parse(raw)
		if err != nil || seen[parsed.ID] {
			continue
		}
		seen[parsed.ID] = true

		live := m.sceneLocked(parsed.ID)
		if live == nil {
			next = append(next, parsed)
			continue
		}
		if err := live.Merge(raw); err != nil {
			m.logger.Warn("merging scene failed", "scene_id", live.ID, "error", err)
		}
		next = append(next, live)
	}

	for _, sc := range m.scenes {
		if !seen[sc.ID] {
			m.notifier.SceneUpdated(sc.ID, nil)
			removed = true
		}
	}
	m.scenes = next
	return removed
}
