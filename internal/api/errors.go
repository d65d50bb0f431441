package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/screener-core/internal/component"
	"github.com/nerrad567/screener-core/internal/manager"
	"github.com/nerrad567/screener-core/internal/playback"
	"github.com/nerrad567/screener-core/internal/scene"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeForbidden      = "forbidden"
	ErrCodeConflict       = "conflict"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
	ErrCodeUnprocessable  = "unprocessable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeRawJSON writes pre-encoded JSON.
func writeRawJSON(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // Best-effort write to response; connection may be closed
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeForbidden writes a 403 error response.
func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeManagerError maps a manager or domain error onto the error envelope.
// Missing entities become 404, malformed or rejected payloads 400, and
// anything else (an action's own failure) 422.
func (s *Server) writeManagerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, manager.ErrSceneNotFound),
		errors.Is(err, manager.ErrComponentNotFound),
		errors.Is(err, manager.ErrPlaybackNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, manager.ErrMissingID),
		errors.Is(err, manager.ErrInvalidJSON),
		errors.Is(err, manager.ErrNoActivePlayback),
		errors.Is(err, component.ErrUnknownType),
		errors.Is(err, component.ErrUnknownAction),
		errors.Is(err, component.ErrInvalidJSON),
		errors.Is(err, scene.ErrMissingComponent),
		errors.Is(err, scene.ErrInvalidJSON),
		errors.Is(err, playback.ErrInvalidJSON):
		writeBadRequest(w, err.Error())
	default:
		s.logger.Warn("manager operation failed", "error", err)
		writeError(w, http.StatusUnprocessableEntity, ErrCodeUnprocessable, err.Error())
	}
}
