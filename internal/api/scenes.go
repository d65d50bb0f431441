package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/screener-core/internal/geometry"
)

// createSceneRequest is the body of POST /scenes without an id.
type createSceneRequest struct {
	Name string `json:"name"`
}

// addSlotRequest is the body of POST /scenes/{id}/slots without an id.
type addSlotRequest struct {
	ComponentID string        `json:"component"`
	Rect        geometry.Rect `json:"rect"`
}

// handleListScenes returns every scene in order with the active id.
func (s *Server) handleListScenes(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"scenes": s.manager.Scenes()}
	if sc := s.manager.ActiveScene(); sc != nil {
		resp["active"] = sc.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCreateScene adds a scene and activates it. A body with an id is an
// upsert and does not change the active scene.
func (s *Server) handleCreateScene(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r, true)
	if !ok {
		return
	}

	if data != nil && hasID(data) {
		if err := s.manager.UpdateSceneWithJSON(data); err != nil {
			s.writeManagerError(w, err)
			return
		}
		var head idRequest
		json.Unmarshal(data, &head) //nolint:errcheck // hasID already decoded it
		writeJSON(w, http.StatusCreated, s.manager.Scene(head.ID))
		return
	}

	var req createSceneRequest
	if data != nil {
		if err := json.Unmarshal(data, &req); err != nil {
			writeBadRequest(w, "invalid scene payload")
			return
		}
	}
	writeJSON(w, http.StatusCreated, s.manager.CreateScene(req.Name))
}

// handleGetActiveScene returns the active scene.
func (s *Server) handleGetActiveScene(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.ActiveScene())
}

// handleSetActiveScene activates the scene named by {id}.
func (s *Server) handleSetActiveScene(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeBadRequest(w, "id is required")
		return
	}
	if s.manager.Scene(req.ID) == nil {
		writeNotFound(w, "scene not found")
		return
	}
	s.manager.SetActiveSceneFromID(req.ID)
	writeJSON(w, http.StatusOK, s.manager.ActiveScene())
}

// handleGetScene returns one scene.
func (s *Server) handleGetScene(w http.ResponseWriter, r *http.Request) {
	sc := s.manager.Scene(chi.URLParam(r, "id"))
	if sc == nil {
		writeNotFound(w, "scene not found")
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// handleUpdateScene merges a partial scene payload.
func (s *Server) handleUpdateScene(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, ok := readBody(w, r, false)
	if !ok {
		return
	}
	data, err := withID(data, id)
	if err != nil {
		writeBadRequest(w, "scene payload must be an object")
		return
	}
	if err := s.manager.UpdateSceneWithJSON(data); err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Scene(id))
}

// handleDeleteScene removes a scene. The last remaining scene stays.
func (s *Server) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	s.manager.RemoveScene(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// handleRenderScene returns the scene's placements across every slice.
// ?editor=true renders for the editing surface instead of the live output.
func (s *Server) handleRenderScene(w http.ResponseWriter, r *http.Request) {
	editor, _ := strconv.ParseBool(r.URL.Query().Get("editor")) //nolint:errcheck // absent or malformed means live output
	placements, err := s.manager.RenderScene(chi.URLParam(r, "id"), editor)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"placements": placements})
}

// handleAddSlot places a component in a scene. A body with an id merges
// into an existing slot instead.
func (s *Server) handleAddSlot(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "id")
	data, ok := readBody(w, r, false)
	if !ok {
		return
	}

	if hasID(data) {
		if err := s.manager.UpdateSlotWithJSON(sceneID, data); err != nil {
			s.writeManagerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, s.manager.Scene(sceneID))
		return
	}

	var req addSlotRequest
	if err := json.Unmarshal(data, &req); err != nil {
		writeBadRequest(w, "invalid slot payload")
		return
	}
	if req.ComponentID == "" {
		writeBadRequest(w, "component is required")
		return
	}
	slot, err := s.manager.AddSlot(sceneID, req.ComponentID, req.Rect)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

// handleSetSlot merges a slot payload; a null body removes the slot.
func (s *Server) handleSetSlot(w http.ResponseWriter, r *http.Request) {
	sceneID := chi.URLParam(r, "id")
	data, ok := readBody(w, r, false)
	if !ok {
		return
	}
	if err := s.manager.SetSlot(sceneID, chi.URLParam(r, "slotID"), data); err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Scene(sceneID))
}

// handleDeleteSlot removes a slot from a scene.
func (s *Server) handleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.RemoveSlot(chi.URLParam(r, "id"), chi.URLParam(r, "slotID")); err != nil {
		s.writeManagerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
