package scene

import (
	"github.com/nerrad567/screener-core/internal/component"
	"github.com/nerrad567/screener-core/internal/geometry"
)

// RenderContext is passed to Scene.Render.
type RenderContext struct {
	component.RenderContext

	// Lookup resolves a slot's component id. It returns nil for ids that no
	// longer exist.
	Lookup func(id string) component.Component
}

// Placement is the composed output of one slot.
type Placement struct {
	SlotID      string `json:"slotId"`
	ComponentID string `json:"componentId"`

	// Z is the stacking index; higher values paint above lower ones.
	Z int `json:"z"`

	// Outer is the clip box in scene coordinates.
	Outer geometry.Rect `json:"outer"`

	// Inner is the uncropped content box relative to Outer.
	Inner geometry.Rect `json:"inner"`

	// Transform applies to Inner only.
	Transform geometry.TransformMatrix `json:"transform"`
	CSS       string                   `json:"css"`

	Visible bool               `json:"visible"`
	Content *component.Content `json:"content,omitempty"`
}

// Render composes every slot in stacking order. Invisible slots still render
// so that toggling visibility keeps component state warm. Render state kept
// for slots that left the scene is released on the components that held it.
func (s *Scene) Render(rc RenderContext) []Placement {
	if s.rendered == nil {
		s.rendered = make(map[string]string)
	}

	live := make(map[string]struct{}, len(s.Slots))
	out := make([]Placement, 0, len(s.Slots))

	for i, slot := range s.Slots {
		live[slot.ID] = struct{}{}

		if prev, ok := s.rendered[slot.ID]; ok && prev != slot.ComponentID {
			s.forget(rc, prev, slot.ID)
		}
		s.rendered[slot.ID] = slot.ComponentID

		p := Placement{
			SlotID:      slot.ID,
			ComponentID: slot.ComponentID,
			Z:           i,
			Outer:       slot.Rect.Inset(slot.Crop),
			Inner:       geometry.Rect{X: -slot.Crop.Left, Y: -slot.Crop.Top, Width: slot.Rect.Width, Height: slot.Rect.Height},
			Transform:   slot.Transform,
			CSS:         slot.Transform.String(),
			Visible:     slot.Visible,
		}
		if rc.Lookup != nil {
			if c := rc.Lookup(slot.ComponentID); c != nil {
				content := c.Render(slot.ID, rc.RenderContext)
				p.Content = &content
			}
		}
		out = append(out, p)
	}

	for slotID, componentID := range s.rendered {
		if _, ok := live[slotID]; !ok {
			s.forget(rc, componentID, slotID)
			delete(s.rendered, slotID)
		}
	}
	return out
}

func (s *Scene) forget(rc RenderContext, componentID, slotID string) {
	if rc.Lookup == nil {
		return
	}
	if c := rc.Lookup(componentID); c != nil {
		c.ForgetSlot(slotID)
	}
}
