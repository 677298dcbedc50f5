package server

import (
	"github.com/go-chi/chi/v5"
)

// registerRoutes mounts the API routes.
func (s *Server) registerRoutes(r chi.Router) {
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/version", s.handleVersion)

	r.Route("/api/transactions", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Post("/bulk", s.handleBulk)
		r.Get("/balance", s.handleBalance)
		r.Put("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
	})
}
