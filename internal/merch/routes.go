package merch

import (
	"github.com/go-chi/chi/v5"

	"github.com/csps/portal/internal/auth"
)

// MountRoutes registers merch routes under /api/merch.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/api/merch", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireRole(auth.RoleStudent, auth.RoleAdmin))
			r.Get("/", h.list)
			r.Get("/{id}", h.get)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireRole(auth.RoleAdmin))
			r.Post("/", h.create)
			r.Put("/update/{merchId}", h.replace)
			r.Patch("/update/{merchId}", h.patch)
			r.Delete("/{id}", h.delete)
		})
	})
}
