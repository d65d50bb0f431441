package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/screener-core/internal/geometry"
)

// createSliceRequest is the body of POST /slices without an id.
type createSliceRequest struct {
	Name string        `json:"name"`
	Rect geometry.Rect `json:"rect"`
}

// handleListSlices returns every output slice in order.
func (s *Server) handleListSlices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"slices": s.manager.Slices()})
}

// handleCreateSlice adds a slice. A body with an id is an upsert.
func (s *Server) handleCreateSlice(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r, false)
	if !ok {
		return
	}

	if hasID(data) {
		if err := s.manager.UpdateSliceWithJSON(data); err != nil {
			s.writeManagerError(w, err)
			return
		}
		var head idRequest
		json.Unmarshal(data, &head) //nolint:errcheck // hasID already decoded it
		writeJSON(w, http.StatusCreated, s.manager.Slice(head.ID))
		return
	}

	var req createSliceRequest
	if err := json.Unmarshal(data, &req); err != nil {
		writeBadRequest(w, "invalid slice payload")
		return
	}
	if req.Rect.Width < 0 || req.Rect.Height < 0 {
		writeBadRequest(w, "slice size must not be negative")
		return
	}
	slice := s.manager.CreateSlice(req.Name, req.Rect)
	writeJSON(w, http.StatusCreated, slice)
}

// handleGetSlice returns one slice.
func (s *Server) handleGetSlice(w http.ResponseWriter, r *http.Request) {
	slice := s.manager.Slice(chi.URLParam(r, "id"))
	if slice == nil {
		writeNotFound(w, "slice not found")
		return
	}
	writeJSON(w, http.StatusOK, slice)
}

// handleUpdateSlice merges a partial slice payload.
func (s *Server) handleUpdateSlice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, ok := readBody(w, r, false)
	if !ok {
		return
	}
	data, err := withID(data, id)
	if err != nil {
		writeBadRequest(w, "slice payload must be an object")
		return
	}
	if err := s.manager.UpdateSliceWithJSON(data); err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Slice(id))
}

// handleDeleteSlice removes a slice and its entry in every scene.
func (s *Server) handleDeleteSlice(w http.ResponseWriter, r *http.Request) {
	s.manager.RemoveSlice(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
