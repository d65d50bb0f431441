package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/screener-core/internal/audit"
)

// auditTimeout bounds one audit write.
const auditTimeout = 2 * time.Second

// apiPrefix is stripped from route patterns before deriving entity types.
const apiPrefix = "/api/v1/"

// verbSegments name the action of routes ending in a verb.
var verbSegments = map[string]string{
	"start":  "start",
	"stop":   "stop",
	"undo":   "undo",
	"redo":   "redo",
	"push":   "push",
	"active": "activate",
}

// unauditedEntities never produce entries: they change no stage state.
var unauditedEntities = map[string]bool{
	"auth":  true,
	"media": true,
	"audit": true,
}

// auditMiddleware records every successful mutating request. It must run
// after authMiddleware so the caller is known.
func (s *Server) auditMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.audit == nil || r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		if wrapped.status < 200 || wrapped.status >= 300 {
			return
		}

		rctx := chi.RouteContext(r.Context())
		if rctx == nil {
			return
		}
		entry, ok := auditEntry(r.Method, rctx.RoutePattern(), rctx)
		if !ok {
			return
		}
		if id, found := identityFromContext(r.Context()); found {
			entry.Subject = id.Subject
		}
		entry.Details["status"] = wrapped.status

		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), auditTimeout)
		defer cancel()
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.Warn("audit write failed",
				"error", err,
				"action", entry.Action,
				"entity_type", entry.EntityType,
				"request_id", r.Context().Value(ctxKeyRequestID),
			)
		}
	})
}

// auditEntry derives the action and entity of a mutating route.
//
//	POST   /api/v1/scenes                         -> create scenes
//	PATCH  /api/v1/scenes/{id}                    -> update scenes {id}
//	PUT    /api/v1/scenes/active                  -> activate scenes
//	POST   /api/v1/components/{id}/actions/{action} -> invoke components {id}
//	POST   /api/v1/history/undo                   -> undo history
func auditEntry(method, pattern string, rctx *chi.Context) (*audit.Entry, bool) {
	segments := strings.Split(strings.Trim(strings.TrimPrefix(pattern, apiPrefix), "/"), "/")
	if len(segments) == 0 || segments[0] == "" || unauditedEntities[segments[0]] {
		return nil, false
	}

	e := &audit.Entry{
		EntityType: segments[0],
		EntityID:   rctx.URLParam("id"),
		Source:     audit.SourceAPI,
		Details:    map[string]any{"method": method, "route": pattern},
	}
	if slot := rctx.URLParam("slotID"); slot != "" {
		e.Details["slot"] = slot
	}

	last := segments[len(segments)-1]
	switch {
	case rctx.URLParam("action") != "":
		e.Action = "invoke"
		e.Details["componentAction"] = rctx.URLParam("action")
	case verbSegments[last] != "":
		e.Action = verbSegments[last]
	case method == http.MethodPost:
		e.Action = "create"
	case method == http.MethodDelete:
		e.Action = "delete"
	default:
		e.Action = "update"
	}
	return e, true
}

// handleListAudit returns one page of the audit trail, newest first.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeNotFound(w, "audit log not available")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		Subject:    q.Get("subject"),
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeBadRequest(w, name+" must be an integer")
				return
			}
			*dst = n
		}
	}

	res, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing audit entries", "error", err)
		writeInternalError(w, "failed to list audit entries")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
