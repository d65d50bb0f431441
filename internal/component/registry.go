package component

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Factory returns a new instance carrying type defaults. The registry assigns
// the id and type afterwards.
type Factory func() Component

// Definition binds a type tag to its factory.
type Definition struct {
	Type  string
	Label string
	New   Factory
}

// Plugin is a named set of component definitions.
type Plugin struct {
	Name       string
	Components []Definition
}

// normalizer is implemented by components that clamp or default fields after
// a JSON decode.
type normalizer interface {
	normalize()
}

// Registry maps type tags to factories.
//
// All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	defs    map[string]Definition
	plugins []string
}

// NewRegistry creates a registry with the given plugins registered.
func NewRegistry(plugins ...Plugin) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition)}
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds every definition of a plugin. Registration is all or nothing.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range p.Components {
		if _, exists := r.defs[d.Type]; exists {
			return fmt.Errorf("%w: %q (plugin %s)", ErrDuplicateType, d.Type, p.Name)
		}
	}
	for _, d := range p.Components {
		r.defs[d.Type] = d
	}
	r.plugins = append(r.plugins, p.Name)
	return nil
}

// Types returns the registered definitions sorted by type tag.
func (r *Registry) Types() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Type < defs[j].Type })
	return defs
}

// New creates a component of the given type with a fresh id.
func (r *Registry) New(typ string) (Component, error) {
	r.mu.RLock()
	d, ok := r.defs[typ]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}

	c := d.New()
	b := c.Meta()
	b.ID = GenerateID()
	b.Type = d.Type
	if b.Name == "" {
		b.Name = d.Label
	}
	return c, nil
}

// FromJSON builds a component from its serialised form. Fields absent from
// the payload keep their type defaults; a missing id is generated.
func (r *Registry) FromJSON(data []byte) (Component, error) {
	var head struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	c, err := r.New(head.Type)
	if err != nil {
		return nil, err
	}
	if err := r.merge(c, data); err != nil {
		return nil, err
	}
	if head.ID != "" {
		c.Meta().ID = head.ID
	}
	return c, nil
}

// Merge applies a partial payload to a live component. Only keys present in
// the payload change. The id and type are preserved.
//
// The payload is decoded into a copy first, so a payload that fails to
// decode leaves c untouched.
func (r *Registry) Merge(c Component, data []byte) error {
	trial, err := r.Clone(c)
	if err != nil {
		return err
	}
	if err := r.merge(trial, data); err != nil {
		return err
	}
	return r.merge(c, data)
}

func (r *Registry) merge(c Component, data []byte) error {
	b := c.Meta()
	id, typ := b.ID, b.Type

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	b.ID, b.Type = id, typ
	if n, ok := c.(normalizer); ok {
		n.normalize()
	}
	return nil
}

// Clone returns an independent copy with the same id and no render state.
func (r *Registry) Clone(c Component) (Component, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshalling component %q: %w", c.Meta().ID, err)
	}
	return r.FromJSON(data)
}
