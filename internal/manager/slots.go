package manager

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/screener-core/internal/geometry"
	"github.com/nerrad567/screener-core/internal/history"
	"github.com/nerrad567/screener-core/internal/scene"
)

// AddSlot places a component in a scene on top of existing slots.
//
// Returns ErrSceneNotFound if the scene does not exist.
func (m *Manager) AddSlot(sceneID, componentID string, rect geometry.Rect, opts ...MutationOption) (*scene.Slot, error) {
	changed := false
	defer m.commit(history.FlushImmediate, applyOptions(opts), &changed)
	m.mu.Lock()
	defer m.mu.Unlock()

	sc := m.sceneLocked(sceneID)
	if sc == nil {
		return nil, fmt.Errorf("%w: %q", ErrSceneNotFound, sceneID)
	}
	if m.componentLocked(componentID) == nil {
		m.logger.Warn("slot references unknown component", "scene_id", sceneID, "component_id", componentID)
	}

	slot := scene.NewSlot(componentID, rect)
	sc.AddSlot(slot)
	m.notifier.SceneUpdated(sc.ID, m.encode(sc))
	changed = true
	return slot.Clone(), nil
}

// UpdateSlotWithJSON creates the slot if its id is new to the scene and
// merges the payload otherwise.
//
// Returns ErrSceneNotFound if the scene does not exist, or a decode error.
func (m *Manager) UpdateSlotWithJSON(sceneID string, data []byte, opts ...MutationOption) error {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	changed := false
	defer m.commit(history.FlushDebounced, applyOptions(opts), &changed)
	m.mu.Lock()
	defer m.mu.Unlock()

	sc := m.sceneLocked(sceneID)
	if sc == nil {
		return fmt.Errorf("%w: %q", ErrSceneNotFound, sceneID)
	}

	if slot := sc.Slot(head.ID); head.ID != "" && slot != nil {
		if err := slot.Merge(data); err != nil {
			return err
		}
	} else {
		slot, err := scene.ParseSlot(data)
		if err != nil {
			return err
		}
		sc.AddSlot(slot)
	}

	m.notifier.SceneUpdated(sc.ID, m.encode(sc))
	changed = true
	return nil
}

// SetSlot updates a slot from JSON, or removes it when data is nil.
//
// Returns ErrSceneNotFound if the scene does not exist.
func (m *Manager) SetSlot(sceneID, slotID string, data []byte, opts ...MutationOption) error {
	if data == nil || string(data) == "null" {
		return m.RemoveSlot(sceneID, slotID, opts...)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	fields["id"], _ = json.Marshal(slotID) //nolint:errcheck // string encoding cannot fail
	merged, _ := json.Marshal(fields)     //nolint:errcheck // re-encoding decoded JSON
	return m.UpdateSlotWithJSON(sceneID, merged, opts...)
}

// RemoveSlot deletes a slot from a scene. An unknown slot id is ignored.
//
// Returns ErrSceneNotFound if the scene does not exist.
func (m *Manager) RemoveSlot(sceneID, slotID string, opts ...MutationOption) error {
	changed := false
	defer m.commit(history.FlushImmediate, applyOptions(opts), &changed)
	m.mu.Lock()
	defer m.mu.Unlock()

	sc := m.sceneLocked(sceneID)
	if sc == nil {
		return fmt.Errorf("%w: %q", ErrSceneNotFound, sceneID)
	}
	if !sc.RemoveSlot(slotID) {
		m.logger.Warn("slot not found", "scene_id", sceneID, "slot_id", slotID)
		return nil
	}

	m.notifier.SceneUpdated(sc.ID, m.encode(sc))
	changed = true
	return nil
}
