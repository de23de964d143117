package ledger

import "github.com/go-chi/chi/v5"

// MountRoutes attaches ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/journals", h.List)
	r.Post("/journals", h.PostManual)
	r.Get("/journals/{id}", h.Get)
	r.Get("/accounts", h.ListAccounts)
}
