package events

import (
	"github.com/go-chi/chi/v5"

	"github.com/csps/portal/internal/auth"
	"github.com/csps/portal/internal/shared"
)

// MountRoutes registers event routes under /api/event.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/api/event", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireRole(auth.RoleStudent, auth.RoleAdmin))
			r.Get("/all", h.listAll)
			r.Get("/", h.listByDate)
			r.Get("/{id}", h.get)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAuthority(shared.AuthorityAdminExecutive))
			r.Post("/add", h.create)
			r.Put("/{id}", h.replace)
			r.Patch("/{id}", h.patch)
			r.Delete("/{id}", h.delete)
		})
	})
}
