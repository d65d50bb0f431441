package component

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Component is a renderable, actionable element. Implementations embed Base.
type Component interface {
	// Meta exposes the identity fields shared by every component type.
	Meta() *Base

	// Properties lists the editable fields with their current values.
	Properties() []Property

	// Actions returns the callable action table.
	Actions() map[string]Action

	// Render produces the output for one slot. It must not block.
	Render(slotID string, rc RenderContext) Content

	// ForgetSlot drops render state kept for a slot that no longer exists.
	ForgetSlot(slotID string)
}

// Base holds the fields every component serialises.
type Base struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Meta returns the receiver so embedding types satisfy Component.
func (b *Base) Meta() *Base { return b }

// Properties returns the name property shared by all component types.
func (b *Base) Properties() []Property {
	return []Property{
		{ID: "name", Label: "Name", Kind: KindText, Value: b.Name, UpdateOnBlur: true},
	}
}

// ForgetSlot is a no-op for components without per-slot state.
func (b *Base) ForgetSlot(string) {}

// GenerateID returns a new unique component id.
func GenerateID() string {
	return uuid.New().String()
}

// Action is one entry in a component's action table.
type Action func(ctx ActionContext, args ...any) error

// ActionContext describes where an action is being invoked.
type ActionContext struct {
	// Editor is true when the action runs on behalf of an editing surface.
	Editor bool

	// Now is the invocation time; actions use it instead of time.Now.
	Now time.Time
}

// Call looks up and invokes an action.
//
// Returns ErrUnknownAction if the component does not define it.
func Call(c Component, ctx ActionContext, name string, args ...any) error {
	action, ok := c.Actions()[name]
	if !ok {
		return fmt.Errorf("%w: %q on %s %q", ErrUnknownAction, name, c.Meta().Type, c.Meta().ID)
	}
	if ctx.Now.IsZero() {
		ctx.Now = time.Now()
	}
	return action(ctx, args...)
}

// MediaRequester resolves a media source to a local reference.
// It returns ok=false when resolution failed.
type MediaRequester interface {
	RequestMedia(ctx context.Context, componentID, src string, noCache bool) (string, bool)
}

// RenderContext is passed to Render.
type RenderContext struct {
	// Editor is true for the editing surface, false for output surfaces.
	Editor bool

	// Media resolves sources referenced by the component. May be nil.
	Media MediaRequester

	// Now is the render time.
	Now time.Time
}

// MediaStatus is the load state of a media-backed render.
type MediaStatus string

const (
	MediaNone    MediaStatus = ""
	MediaLoading MediaStatus = "loading"
	MediaReady   MediaStatus = "ready"
	MediaFailed  MediaStatus = "failed"
)

// Content is what a component produced for one slot.
type Content struct {
	ComponentID string      `json:"componentId"`
	Type        string      `json:"type"`
	Status      MediaStatus `json:"status,omitempty"`
	Source      string      `json:"source,omitempty"`
	Data        any         `json:"data,omitempty"`
}

// argFloat reads a numeric action argument, accepting the types JSON and Go
// callers produce.
func argFloat(args []any, i int) (float64, bool) {
	if i >= len(args) {
		return 0, false
	}
	switch v := args[i].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
