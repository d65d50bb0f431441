package manager

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/nerrad567/screener-core/internal/component"
	"github.com/nerrad567/screener-core/internal/history"
)

// Components returns copies of all components in order.
func (m *Manager) Components() []component.Component {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]component.Component, 0, len(m.components))
	for _, c := range m.components {
		if clone, err := m.registry.Clone(c); err == nil {
			out = append(out, clone)
		}
	}
	return out
}

// Component returns a copy of a component, or nil if it does not exist.
func (m *Manager) Component(id string) component.Component {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.componentLocked(id)
	if c == nil {
		return nil
	}
	clone, err := m.registry.Clone(c)
	if err != nil {
		m.logger.Error("cloning component failed", "component_id", id, "error", err)
		return nil
	}
	return clone
}

// ComponentJSON returns the serialised form of a component.
func (m *Manager) ComponentJSON(id string) (json.RawMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.componentLocked(id)
	if c == nil {
		return nil, false
	}
	return m.encode(c), true
}

// ComponentProperties returns the editable properties of a component.
func (m *Manager) ComponentProperties(id string) ([]component.Property, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.componentLocked(id)
	if c == nil {
		return nil, false
	}
	return c.Properties(), true
}

// AddComponent takes ownership of a component.
func (m *Manager) AddComponent(c component.Component, opts ...MutationOption) {
	changed := false
	defer m.commit(history.FlushImmediate, applyOptions(opts), &changed)
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.componentLocked(c.Meta().ID) != nil {
		m.logger.Warn("component already exists", "component_id", c.Meta().ID)
		return
	}
	m.components = append(m.components, c)
	m.notifier.ComponentUpdated(c.Meta().ID, m.encode(c))
	changed = true
}

// CreateComponent builds a component of a registered type, applies an
// optional partial payload and adds it.
//
// Returns component.ErrUnknownType for an unregistered type.
func (m *Manager) CreateComponent(typ string, data []byte, opts ...MutationOption) (component.Component, error) {
	c, err := m.registry.New(typ)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := m.registry.Merge(c, data); err != nil {
			return nil, err
		}
	}
	m.AddComponent(c, opts...)
	return m.Component(c.Meta().ID), nil
}

// RemoveComponent deletes a component and releases its media. Slots that
// reference it are left in place.
func (m *Manager) RemoveComponent(id string, opts ...MutationOption) {
	changed := false
	defer m.commit(history.FlushImmediate, applyOptions(opts), &changed)
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.components, func(c component.Component) bool { return c.Meta().ID == id })
	if i < 0 {
		m.logger.Warn("component not found", "component_id", id)
		return
	}
	m.components = slices.Delete(m.components, i, i+1)
	m.notifier.ComponentUpdated(id, nil)
	m.ReleaseMedia(id)
	changed = true
}

// UpdateComponentWithJSON merges a partial component payload. Only keys in
// the payload change. An unknown id creates the component from the payload,
// which must then carry a registered type.
//
// Returns ErrMissingID, component.ErrUnknownType or a decode error.
func (m *Manager) UpdateComponentWithJSON(data []byte, opts ...MutationOption) error {
	id, err := payloadID(data)
	if err != nil {
		return err
	}

	changed := false
	defer m.commit(history.FlushDebounced, applyOptions(opts), &changed)
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.componentLocked(id)
	if c == nil {
		if c, err = m.registry.FromJSON(data); err != nil {
			return err
		}
		m.components = append(m.components, c)
	} else if err := m.registry.Merge(c, data); err != nil {
		return err
	}

	m.notifier.ComponentUpdated(id, m.encode(c))
	changed = true
	return nil
}

// InvokeComponentAction notifies observers of the action and runs it on the
// component.
//
// Returns ErrComponentNotFound, component.ErrUnknownAction, or the action's
// own error.
func (m *Manager) InvokeComponentAction(id, action string, args ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invokeComponentActionLocked(id, action, args...)
}

func (m *Manager) invokeComponentActionLocked(id, action string, args ...any) error {
	c := m.componentLocked(id)
	if c == nil {
		return fmt.Errorf("%w: %q", ErrComponentNotFound, id)
	}
	if _, ok := c.Actions()[action]; !ok {
		return fmt.Errorf("%w: %q on %s %q", component.ErrUnknownAction, action, c.Meta().Type, id)
	}

	if args == nil {
		args = []any{}
	}
	m.notifier.ComponentActionInvoked(id, action, args)
	if err := component.Call(c, component.ActionContext{Now: m.clock.Now()}, action, args...); err != nil {
		return fmt.Errorf("invoking %s on %q: %w", action, id, err)
	}
	m.notifier.ComponentUpdated(id, m.encode(c))
	return nil
}

func (m *Manager) componentLocked(id string) component.Component {
	for _, c := range m.components {
		if c.Meta().ID == id {
			return c
		}
	}
	return nil
}
