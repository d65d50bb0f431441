package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// createPlaybackRequest is the body of POST /playbacks without an id.
type createPlaybackRequest struct {
	Name string `json:"name"`
}

// handleListPlaybacks returns every playback with the active id.
func (s *Server) handleListPlaybacks(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"playbacks": s.manager.Playbacks()}
	if p := s.manager.ActivePlayback(); p != nil {
		resp["active"] = p.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCreatePlayback adds a playback. A body with an id is an upsert.
func (s *Server) handleCreatePlayback(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r, true)
	if !ok {
		return
	}

	if data != nil && hasID(data) {
		if err := s.manager.UpdatePlaybackWithJSON(data); err != nil {
			s.writeManagerError(w, err)
			return
		}
		var head idRequest
		json.Unmarshal(data, &head) //nolint:errcheck // hasID already decoded it
		writeJSON(w, http.StatusCreated, s.manager.Playback(head.ID))
		return
	}

	var req createPlaybackRequest
	if data != nil {
		if err := json.Unmarshal(data, &req); err != nil {
			writeBadRequest(w, "invalid playback payload")
			return
		}
	}
	writeJSON(w, http.StatusCreated, s.manager.CreatePlayback(req.Name))
}

// handleGetActivePlayback returns the active playback, or null.
func (s *Server) handleGetActivePlayback(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.ActivePlayback())
}

// handleSetActivePlayback selects the playback named by {id}; an empty id
// clears the selection.
func (s *Server) handleSetActivePlayback(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ID == "" {
		s.manager.SetActivePlayback(nil)
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if s.manager.Playback(req.ID) == nil {
		writeNotFound(w, "playback not found")
		return
	}
	s.manager.SetActivePlaybackFromID(req.ID)
	writeJSON(w, http.StatusOK, s.manager.ActivePlayback())
}

// handleStartActivePlayback runs the active playback from zero.
func (s *Server) handleStartActivePlayback(w http.ResponseWriter, _ *http.Request) {
	if err := s.manager.StartPlayback(); err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.ActivePlayback())
}

// handleStopPlayback cancels the running playback's pending tracks.
func (s *Server) handleStopPlayback(w http.ResponseWriter, _ *http.Request) {
	s.manager.StopPlayback()
	w.WriteHeader(http.StatusNoContent)
}

// handleGetPlayback returns one playback.
func (s *Server) handleGetPlayback(w http.ResponseWriter, r *http.Request) {
	p := s.manager.Playback(chi.URLParam(r, "id"))
	if p == nil {
		writeNotFound(w, "playback not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleUpdatePlayback merges a partial playback payload. Tracks are
// reconciled by component.
func (s *Server) handleUpdatePlayback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, ok := readBody(w, r, false)
	if !ok {
		return
	}
	data, err := withID(data, id)
	if err != nil {
		writeBadRequest(w, "playback payload must be an object")
		return
	}
	if err := s.manager.UpdatePlaybackWithJSON(data); err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Playback(id))
}

// handleDeletePlayback removes a playback.
func (s *Server) handleDeletePlayback(w http.ResponseWriter, r *http.Request) {
	s.manager.RemovePlayback(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// handleStartPlayback activates and runs the playback named in the path.
func (s *Server) handleStartPlayback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.StartPlaybackFromID(id); err != nil {
		s.writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Playback(id))
}
