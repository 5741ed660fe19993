package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bohrium-dev/bohrium-core/internal/entity"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// Entity routes mirror the registry layout: a collection and a member
// route per top-level kind, plus message sub-resources nested under
// device, publication, and user members. All entity routes sit behind
// the auth middleware; /health and /auth/login do not.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Health check (no auth required)
	r.Get("/health", s.handleHealth)

	// Auth endpoints (no auth required)
	r.Post("/auth/login", s.handleLogin)

	// Protected entity routes
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Route("/device", func(r chi.Router) {
			r.HandleFunc("/", s.handleCollection(entity.DeviceType))
			r.Route("/{id}", func(r chi.Router) {
				r.HandleFunc("/", s.handleMember(entity.DeviceType))
				r.HandleFunc("/message/", s.handleChildCollection(entity.DMessageType))
				r.HandleFunc("/message/{msg_id}/", s.handleChildMember(entity.DMessageType))
			})
		})

		r.Route("/user", func(r chi.Router) {
			r.HandleFunc("/", s.handleCollection(entity.UserType))
			r.Route("/{id}", func(r chi.Router) {
				r.HandleFunc("/", s.handleMember(entity.UserType))
				r.HandleFunc("/message/", s.handleChildCollection(entity.UMessageType))
				r.HandleFunc("/message/{msg_id}/", s.handleChildMember(entity.UMessageType))
			})
		})

		r.Route("/config", func(r chi.Router) {
			r.HandleFunc("/", s.handleCollection(entity.ConfigType))
			r.HandleFunc("/{id}/", s.handleMember(entity.ConfigType))
		})

		r.Route("/publication", func(r chi.Router) {
			r.HandleFunc("/", s.handleCollection(entity.PublicationType))
			r.Route("/{id}", func(r chi.Router) {
				r.HandleFunc("/", s.handleMember(entity.PublicationType))
				r.HandleFunc("/message/", s.handleChildCollection(entity.PMessageType))
				r.HandleFunc("/message/{msg_id}/", s.handleChildMember(entity.PMessageType))
			})
		})

		r.Route("/subscription", func(r chi.Router) {
			r.HandleFunc("/", s.handleCollection(entity.SubscriptionType))
			r.HandleFunc("/{id}/", s.handleMember(entity.SubscriptionType))
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
