package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/screener-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Post("/auth/token", s.handleToken)

		// WebSocket (auth via ticket, validated in handler)
		r.Get("/ws", s.handleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Use(s.auditMiddleware)

			r.Post("/auth/ws-ticket", s.handleWSTicket)

			read := s.requirePermission(auth.PermStateRead)
			write := s.requirePermission(auth.PermStateWrite)

			r.With(read).Get("/state", s.handleGetState)
			r.With(write).Put("/state", s.handleSetState)

			r.Route("/slices", func(r chi.Router) {
				r.With(read).Get("/", s.handleListSlices)
				r.With(write).Post("/", s.handleCreateSlice)

				r.Route("/{id}", func(r chi.Router) {
					r.With(read).Get("/", s.handleGetSlice)
					r.With(write).Patch("/", s.handleUpdateSlice)
					r.With(write).Delete("/", s.handleDeleteSlice)
				})
			})

			r.Route("/components", func(r chi.Router) {
				r.With(read).Get("/", s.handleListComponents)
				r.With(write).Post("/", s.handleCreateComponent)
				r.With(read).Get("/types", s.handleListComponentTypes)

				r.Route("/{id}", func(r chi.Router) {
					r.With(read).Get("/", s.handleGetComponent)
					r.With(write).Patch("/", s.handleUpdateComponent)
					r.With(write).Delete("/", s.handleDeleteComponent)
					r.With(read).Get("/properties", s.handleGetComponentProperties)
					r.With(s.requirePermission(auth.PermActionInvoke)).
						Post("/actions/{action}", s.handleInvokeComponentAction)
				})
			})

			r.Route("/scenes", func(r chi.Router) {
				r.With(read).Get("/", s.handleListScenes)
				r.With(write).Post("/", s.handleCreateScene)
				r.With(read).Get("/active", s.handleGetActiveScene)
				r.With(write).Put("/active", s.handleSetActiveScene)

				r.Route("/{id}", func(r chi.Router) {
					r.With(read).Get("/", s.handleGetScene)
					r.With(write).Patch("/", s.handleUpdateScene)
					r.With(write).Delete("/", s.handleDeleteScene)
					r.With(read).Get("/render", s.handleRenderScene)
					r.With(write).Post("/slots", s.handleAddSlot)
					r.With(write).Put("/slots/{slotID}", s.handleSetSlot)
					r.With(write).Delete("/slots/{slotID}", s.handleDeleteSlot)
				})
			})

			r.Route("/playbacks", func(r chi.Router) {
				control := s.requirePermission(auth.PermPlaybackControl)

				r.With(read).Get("/", s.handleListPlaybacks)
				r.With(write).Post("/", s.handleCreatePlayback)
				r.With(read).Get("/active", s.handleGetActivePlayback)
				r.With(control).Put("/active", s.handleSetActivePlayback)
				r.With(control).Post("/active/start", s.handleStartActivePlayback)
				r.With(control).Post("/active/stop", s.handleStopPlayback)

				r.Route("/{id}", func(r chi.Router) {
					r.With(read).Get("/", s.handleGetPlayback)
					r.With(write).Patch("/", s.handleUpdatePlayback)
					r.With(write).Delete("/", s.handleDeletePlayback)
					r.With(control).Post("/start", s.handleStartPlayback)
				})
			})

			r.Route("/history", func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermHistory))
				r.Get("/", s.handleGetHistory)
				r.Post("/push", s.handlePushHistory)
				r.Post("/undo", s.handleUndo)
				r.Post("/redo", s.handleRedo)
			})

			r.With(s.requirePermission(auth.PermMediaResolve)).
				Post("/media/resolve", s.handleResolveMedia)

			r.With(s.requirePermission(auth.PermAuditRead)).
				Get("/audit", s.handleListAudit)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
