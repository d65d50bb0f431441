package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/nerrad567/screener-core/internal/manager"
)

// ─── Request Helpers ────────────────────────────────────────────────────────

// readBody reads and syntax-checks a JSON request body. An empty body is
// accepted only when allowEmpty is set. On failure the error response has
// already been written.
func readBody(w http.ResponseWriter, r *http.Request, allowEmpty bool) ([]byte, bool) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
			return nil, false
		}
		writeBadRequest(w, "failed to read request body")
		return nil, false
	}
	if len(data) == 0 {
		if allowEmpty {
			return nil, true
		}
		writeBadRequest(w, "request body is required")
		return nil, false
	}
	if !json.Valid(data) {
		writeBadRequest(w, "invalid JSON body")
		return nil, false
	}
	return data, true
}

// withID returns the JSON object data with its "id" set to id, so a path
// parameter always wins over the body.
func withID(data []byte, id string) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage, 1)
	}
	fields["id"], _ = json.Marshal(id) //nolint:errcheck // string encoding cannot fail
	return json.Marshal(fields)
}

// hasID reports whether the JSON object data carries a non-empty id.
func hasID(data []byte) bool {
	var head struct {
		ID string `json:"id"`
	}
	return json.Unmarshal(data, &head) == nil && head.ID != ""
}

// idRequest is the body of activation endpoints.
type idRequest struct {
	ID string `json:"id"`
}

// ─── State ──────────────────────────────────────────────────────────────────

// handleGetState returns the whole store as a snapshot.
func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	data, err := s.manager.ToJSON()
	if err != nil {
		s.logger.Error("encoding state snapshot", "error", err)
		writeInternalError(w, "failed to encode state")
		return
	}
	writeRawJSON(w, http.StatusOK, data)
}

// handleSetState replaces the store with a snapshot. The change is one
// history entry.
func (s *Server) handleSetState(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r, false)
	if !ok {
		return
	}
	if err := s.manager.FromJSON(data); err != nil {
		s.writeManagerError(w, err)
		return
	}
	s.logger.Info("state replaced via API")
	w.WriteHeader(http.StatusNoContent)
}

// ─── History ────────────────────────────────────────────────────────────────

// historyResponse reports the outcome of an undo or redo.
type historyResponse struct {
	Applied bool                 `json:"applied"`
	History manager.HistoryState `json:"history"`
}

// handleGetHistory returns the undo buffer position.
func (s *Server) handleGetHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.HistoryState())
}

// handlePushHistory records the current state. ?now=true skips the debounce.
func (s *Server) handlePushHistory(w http.ResponseWriter, r *http.Request) {
	if now, _ := strconv.ParseBool(r.URL.Query().Get("now")); now { //nolint:errcheck // absent or malformed means debounced
		s.manager.PushHistoryNow()
	} else {
		s.manager.PushHistory()
	}
	writeJSON(w, http.StatusAccepted, s.manager.HistoryState())
}

// handleUndo steps the store back one history entry.
func (s *Server) handleUndo(w http.ResponseWriter, _ *http.Request) {
	applied := s.manager.Undo()
	writeJSON(w, http.StatusOK, historyResponse{Applied: applied, History: s.manager.HistoryState()})
}

// handleRedo steps the store forward one history entry.
func (s *Server) handleRedo(w http.ResponseWriter, _ *http.Request) {
	applied := s.manager.Redo()
	writeJSON(w, http.StatusOK, historyResponse{Applied: applied, History: s.manager.HistoryState()})
}

// ─── Media ──────────────────────────────────────────────────────────────────

// mediaRequest is the body of POST /media/resolve.
type mediaRequest struct {
	ComponentID string `json:"componentId"`
	Src         string `json:"src"`
	NoCache     bool   `json:"noCache"`
}

// handleResolveMedia resolves a media source to a local path on behalf of a
// component. It blocks until resolution completes.
func (s *Server) handleResolveMedia(w http.ResponseWriter, r *http.Request) {
	var req mediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Src == "" {
		writeBadRequest(w, "src is required")
		return
	}

	path, ok := s.manager.RequestMedia(r.Context(), req.ComponentID, req.Src, req.NoCache)
	if !ok {
		writeError(w, http.StatusBadGateway, ErrCodeUnprocessable, "media could not be resolved")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"src":  req.Src,
		"path": path,
	})
}
