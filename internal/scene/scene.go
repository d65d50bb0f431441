package scene

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/nerrad567/screener-core/internal/geometry"
)

// Scene is an ordered set of slots plus the viewport each slice shows.
//
// A Scene is not safe for concurrent use; the manager serialises access.
type Scene struct {
	ID         string
	Name       string
	Slots      []*Slot
	SliceSetup map[string]geometry.Rect

	// rendered maps slot id to the component id it last rendered.
	rendered map[string]string
}

type sceneJSON struct {
	ID         string                   `json:"id"`
	Name       string                   `json:"name"`
	Slots      []*Slot                  `json:"slots"`
	SliceSetup map[string]geometry.Rect `json:"sliceSetup"`
}

// New creates an empty scene. An empty name selects the default.
func New(name string) *Scene {
	if name == "" {
		name = DefaultSceneName
	}
	return &Scene{
		ID:         uuid.NewString(),
		Name:       name,
		Slots:      []*Slot{},
		SliceSetup: map[string]geometry.Rect{},
	}
}

// Parse decodes a scene, defaulting missing fields.
func Parse(data []byte) (*Scene, error) {
	var raw struct {
		ID         string                   `json:"id"`
		Name       string                   `json:"name"`
		Slots      []json.RawMessage        `json:"slots"`
		SliceSetup map[string]geometry.Rect `json:"sliceSetup"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: scene: %w", ErrInvalidJSON, err)
	}

	s := New(raw.Name)
	if raw.ID != "" {
		s.ID = raw.ID
	}
	for _, rs := range raw.Slots {
		slot, err := ParseSlot(rs)
		if err != nil {
			return nil, err
		}
		s.Slots = append(s.Slots, slot)
	}
	if raw.SliceSetup != nil {
		s.SliceSetup = raw.SliceSetup
	}
	return s, nil
}

// MarshalJSON implements json.Marshaler.
func (s *Scene) MarshalJSON() ([]byte, error) {
	out := sceneJSON{ID: s.ID, Name: s.Name, Slots: s.Slots, SliceSetup: s.SliceSetup}
	if out.Slots == nil {
		out.Slots = []*Slot{}
	}
	if out.SliceSetup == nil {
		out.SliceSetup = map[string]geometry.Rect{}
	}
	return json.Marshal(out)
}

// Merge applies a partial payload. Present keys replace their field; the
// slot list is reconciled by slot id so surviving slots keep their identity.
// The id is preserved. Nothing changes unless the whole payload decodes.
func (s *Scene) Merge(data []byte) error {
	var raw struct {
		Name       *string                   `json:"name"`
		Slots      *[]json.RawMessage        `json:"slots"`
		SliceSetup *map[string]geometry.Rect `json:"sliceSetup"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: scene: %w", ErrInvalidJSON, err)
	}

	type update struct {
		live, next *Slot
	}
	var slots []update
	if raw.Slots != nil {
		slots = make([]update, 0, len(*raw.Slots))
		for _, rs := range *raw.Slots {
			var head struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(rs, &head); err != nil {
				return fmt.Errorf("%w: slot: %w", ErrInvalidJSON, err)
			}
			if existing := s.Slot(head.ID); head.ID != "" && existing != nil {
				next, err := existing.merged(rs)
				if err != nil {
					return err
				}
				slots = append(slots, update{live: existing, next: next})
				continue
			}
			slot, err := ParseSlot(rs)
			if err != nil {
				return err
			}
			slots = append(slots, update{next: slot})
		}
	}

	if raw.Slots != nil {
		list := make([]*Slot, 0, len(slots))
		for _, u := range slots {
			if u.live != nil {
				*u.live = *u.next
				list = append(list, u.live)
				continue
			}
			list = append(list, u.next)
		}
		s.Slots = list
	}
	if raw.Name != nil && *raw.Name != "" {
		s.Name = *raw.Name
	}
	if raw.SliceSetup != nil {
		s.SliceSetup = maps.Clone(*raw.SliceSetup)
		if s.SliceSetup == nil {
			s.SliceSetup = map[string]geometry.Rect{}
		}
	}
	return nil
}

// Clone returns a deep copy without render state.
func (s *Scene) Clone() *Scene {
	c := &Scene{
		ID:         s.ID,
		Name:       s.Name,
		Slots:      make([]*Slot, len(s.Slots)),
		SliceSetup: maps.Clone(s.SliceSetup),
	}
	for i, slot := range s.Slots {
		c.Slots[i] = slot.Clone()
	}
	if c.SliceSetup == nil {
		c.SliceSetup = map[string]geometry.Rect{}
	}
	return c
}

// AddSlot appends a slot on top of the stack.
func (s *Scene) AddSlot(slot *Slot) {
	s.Slots = append(s.Slots, slot)
}

// Slot returns the slot with the given id, or nil.
func (s *Scene) Slot(id string) *Slot {
	for _, slot := range s.Slots {
		if slot.ID == id {
			return slot
		}
	}
	return nil
}

// RemoveSlot removes a slot by id and reports whether it existed.
func (s *Scene) RemoveSlot(id string) bool {
	i := slices.IndexFunc(s.Slots, func(slot *Slot) bool { return slot.ID == id })
	if i < 0 {
		return false
	}
	s.Slots = slices.Delete(s.Slots, i, i+1)
	return true
}

// ReconcileSlices makes the slice setup cover exactly sliceIDs: missing
// entries get an empty rect, entries for unknown slices are dropped.
//
// Returns true if the setup changed.
func (s *Scene) ReconcileSlices(sliceIDs []string) bool {
	if s.SliceSetup == nil {
		s.SliceSetup = map[string]geometry.Rect{}
	}

	changed := false
	for _, id := range sliceIDs {
		if _, ok := s.SliceSetup[id]; !ok {
			s.SliceSetup[id] = geometry.Rect{}
			changed = true
		}
	}
	for id := range s.SliceSetup {
		if !slices.Contains(sliceIDs, id) {
			delete(s.SliceSetup, id)
			changed = true
		}
	}
	return changed
}

// Viewport returns the region of the scene shown on a slice.
func (s *Scene) Viewport(sliceID string) (geometry.Rect, bool) {
	r, ok := s.SliceSetup[sliceID]
	return r, ok
}

// UnmarshalJSON implements json.Unmarshaler with the defaults of Parse.
func (s *Scene) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}
