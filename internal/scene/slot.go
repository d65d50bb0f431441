package scene

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nerrad567/screener-core/internal/geometry"
)

// Slot places one component inside a scene.
type Slot struct {
	ID          string                   `json:"id"`
	Rect        geometry.Rect            `json:"rect"`
	Crop        geometry.Margin          `json:"crop"`
	ComponentID string                   `json:"component"`
	Transform   geometry.TransformMatrix `json:"transformMatrix"`
	Visible     bool                     `json:"visible"`
}

// NewSlot creates a visible, untransformed, uncropped slot.
func NewSlot(componentID string, rect geometry.Rect) *Slot {
	return &Slot{
		ID:          uuid.NewString(),
		Rect:        rect,
		ComponentID: componentID,
		Transform:   geometry.Identity(),
		Visible:     true,
	}
}

// ParseSlot decodes a slot. Missing fields take their defaults; the
// component id is required.
func ParseSlot(data []byte) (*Slot, error) {
	s := &Slot{Transform: geometry.Identity(), Visible: true}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: slot: %w", ErrInvalidJSON, err)
	}
	if s.ComponentID == "" {
		return nil, ErrMissingComponent
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return s, nil
}

// Merge applies a partial payload. The id is preserved. On error s is
// unchanged.
func (s *Slot) Merge(data []byte) error {
	next, err := s.merged(data)
	if err != nil {
		return err
	}
	*s = *next
	return nil
}

// merged returns a copy of s with the payload applied.
func (s *Slot) merged(data []byte) (*Slot, error) {
	next := s.Clone()
	if err := json.Unmarshal(data, next); err != nil {
		return nil, fmt.Errorf("%w: slot: %w", ErrInvalidJSON, err)
	}
	next.ID = s.ID
	return next, nil
}

// Clone returns a copy of the slot.
func (s *Slot) Clone() *Slot {
	c := *s
	return &c
}
