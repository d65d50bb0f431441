package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// componentType describes a registered component type.
type componentType struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

// actionRequest is the optional body of POST /components/{id}/actions/{action}.
type actionRequest struct {
	Args []any `json:"args"`
}

// handleListComponents returns every component in order.
func (s *Server) handleListComponents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"components": s.manager.Components()})
}

// handleListComponentTypes returns the registered component types.
func (s *Server) handleListComponentTypes(w http.ResponseWriter, _ *http.Request) {
	defs := s.manager.Registry().Types()
	types := make([]componentType, 0, len(defs))
	for _, d := range defs {
		types = append(types, componentType{Type: d.Type, Label: d.Label})
	}
	writeJSON(w, http.StatusOK, map[string]any{"types": types})
}

// handleCreateComponent builds a component from {type, ...fields}. A body
// with an id is an upsert.
func (s *Server) handleCreateComponent(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r, false)
	if !ok {
		return
	}

	var head struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		writeBadRequest(w, "invalid component payload")
		return
	}

	if head.ID != "" {
		if err := s.manager.UpdateComponentWithJSON(data); err != nil {
			s.writeManagerError(w, err)
			return
		}
		s.writeComponent(w, http.StatusCreated, head.ID)
		return
	}

	if head.Type == "" {
		writeBadRequest(w, "type is required")
		return
	}
	c, err := s.manager.CreateComponent(head.Type, data)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleGetComponent returns one component.
func (s *Server) handleGetComponent(w http.ResponseWriter, r *http.Request) {
	s.writeComponent(w, http.StatusOK, chi.URLParam(r, "id"))
}

// handleUpdateComponent merges a partial component payload. Only keys in
// the body change.
func (s *Server) handleUpdateComponent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, ok := readBody(w, r, false)
	if !ok {
		return
	}
	data, err := withID(data, id)
	if err != nil {
		writeBadRequest(w, "component payload must be an object")
		return
	}
	if err := s.manager.UpdateComponentWithJSON(data); err != nil {
		s.writeManagerError(w, err)
		return
	}
	s.writeComponent(w, http.StatusOK, id)
}

// handleDeleteComponent removes a component and releases its media.
func (s *Server) handleDeleteComponent(w http.ResponseWriter, r *http.Request) {
	s.manager.RemoveComponent(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// handleGetComponentProperties returns the editable property descriptors.
func (s *Server) handleGetComponentProperties(w http.ResponseWriter, r *http.Request) {
	props, ok := s.manager.ComponentProperties(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "component not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"properties": props})
}

// handleInvokeComponentAction runs a named action with optional {args}.
func (s *Server) handleInvokeComponentAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	action := chi.URLParam(r, "action")

	data, ok := readBody(w, r, true)
	if !ok {
		return
	}
	var req actionRequest
	if data != nil {
		if err := json.Unmarshal(data, &req); err != nil {
			writeBadRequest(w, "invalid action payload")
			return
		}
	}

	if err := s.manager.InvokeComponentAction(id, action, req.Args...); err != nil {
		s.writeManagerError(w, err)
		return
	}
	s.writeComponent(w, http.StatusOK, id)
}

// writeComponent writes the current JSON of a component, or 404.
func (s *Server) writeComponent(w http.ResponseWriter, status int, id string) {
	data, ok := s.manager.ComponentJSON(id)
	if !ok {
		writeNotFound(w, "component not found")
		return
	}
	writeRawJSON(w, status, data)
}
