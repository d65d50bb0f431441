package manager

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/nerrad567/screener-core/internal/geometry"
	"github.com/nerrad567/screener-core/internal/history"
	"github.com/nerrad567/screener-core/internal/scene"
)

// Scenes returns copies of all scenes in order.
func (m *Manager) Scenes() []*scene.Scene {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*scene.Scene, len(m.scenes))
	for i, sc := range m.scenes {
		out[i] = sc.Clone()
	}
	return out
}

// Scene returns a copy of a scene, or nil if it does not exist.
func (m *Manager) Scene(id string) *scene.Scene {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sc := m.sceneLocked(id); sc != nil {
		return sc.Clone()
	}
	return nil
}

// ActiveScene returns a copy of the active scene.
func (m *Manager) ActiveScene() *scene.Scene {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeScene.Clone()
}

// CreateScene adds a new empty scene and activates it.
func (m *Manager) CreateScene(name string, opts ...MutationOption) *scene.Scene {
	changed := true
	defer m.commit(history.FlushImmediate, applyOptions(opts), &changed)
	m.mu.Lock()
	defer m.mu.Unlock()

	sc := m.newSceneLocked(name)
	m.addSceneLocked(sc)
	return sc.Clone()
}

// AddScene takes ownership of a scene and activates it. Its sliceSetup is
// reconciled against the live slices.
func (m *Manager) AddScene(sc *scene.Scene, opts ...MutationOption) {
	changed := false
	defer m.commit(history.FlushImmediate, applyOptions(opts), &changed)
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sceneLocked(sc.ID) != nil {
		m.logger.Warn("scene already exists", "scene_id", sc.ID)
		return
	}
	sc.ReconcileSlices(m.sliceIDsLocked())
	m.addSceneLocked(sc)
	changed = true
}

// RemoveScene deletes a scene. The last remaining scene cannot be removed.
// If the active scene is removed its previous neighbour, else its next one,
// becomes active.
func (m *Manager) RemoveScene(id string, opts ...MutationOption) {
	changed := false
	defer m.commit(history.FlushImmediate, applyOptions(opts), &changed)
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := slices.IndexFunc(m.scenes, func(sc *scene.Scene) bool { return sc.ID == id })
	if idx < 0 {
		m.logger.Warn("scene not found", "scene_id", id)
		return
	}
	if len(m.scenes) == 1 {
		m.logger.Warn("refusing to remove the last scene", "scene_id", id)
		return
	}

	removed := m.scenes[idx]
	m.scenes = slices.Delete(m.scenes, idx, idx+1)
	m.notifier.SceneUpdated(id, nil)

	if removed == m.activeScene {
		next := m.scenes[max(idx-1, 0)]
		m.activeScene = next
		m.notifier.ActiveSceneUpdated(next.ID)
	}
	changed = true
}

// SetActiveScene activates the live scene with the same id as sc.
func (m *Manager) SetActiveScene(sc *scene.Scene, opts ...MutationOption) {
	if sc == nil {
		m.logger.Warn("set active scene called with nil scene")
		return
	}
	m.SetActiveSceneFromID(sc.ID, opts...)
}

// SetActiveSceneFromID activates a scene. Unknown ids are ignored.
func (m *Manager) SetActiveSceneFromID(id string, opts ...MutationOption) {
	changed := false
	defer m.commit(history.FlushDebounced, applyOptions(opts), &changed)
	m.mu.Lock()
	defer m.mu.Unlock()

	sc := m.sceneLocked(id)
	if sc == nil {
		m.logger.Warn("scene not found", "scene_id", id)
		return
	}
	m.activeScene = sc
	m.notifier.ActiveSceneUpdated(sc.ID)
	changed = true
}

// UpdateSceneWithJSON merges a partial scene payload. An unknown id creates
// the scene without activating it.
//
// Returns ErrMissingID if the payload has no id, or a decode error.
func (m *Manager) UpdateSceneWithJSON(data []byte, opts ...MutationOption) error {
	id, err := payloadID(data)
	if err != nil {
		return err
	}

	changed := false
	defer m.commit(history.FlushDebounced, applyOptions(opts), &changed)
	m.mu.Lock()
	defer m.mu.Unlock()

	sc := m.sceneLocked(id)
	if sc == nil {
		if sc, err = scene.Parse(data); err != nil {
			return err
		}
		m.scenes = append(m.scenes, sc)
		m.logger.Debug("scene added from JSON", "scene_id", id)
	} else if err := sc.Merge(data); err != nil {
		return err
	}

	sc.ReconcileSlices(m.sliceIDsLocked())
	m.notifier.SceneUpdated(sc.ID, m.encode(sc))
	if sc == m.activeScene {
		m.notifier.ActiveSceneUpdated(sc.ID)
	}
	changed = true
	return nil
}

func (m *Manager) sceneLocked(id string) *scene.Scene {
	for _, sc := range m.scenes {
		if sc.ID == id {
			return sc
		}
	}
	return nil
}

// newSceneLocked creates a scene whose sliceSetup has an empty rect for
// every live slice.
func (m *Manager) newSceneLocked(name string) *scene.Scene {
	sc := scene.New(name)
	for _, s := range m.slices {
		sc.SliceSetup[s.ID] = geometry.Rect{}
	}
	return sc
}

func (m *Manager) addSceneLocked(sc *scene.Scene) {
	m.scenes = append(m.scenes, sc)
	m.activeScene = sc
	m.notifier.ActiveSceneUpdated(sc.ID)
	m.notifier.SceneUpdated(sc.ID, m.encode(sc))
}

// payloadID extracts the id of a JSON update.
func payloadID(data []byte) (string, error) {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if head.ID == "" {
		return "", ErrMissingID
	}
	return head.ID, nil
}
