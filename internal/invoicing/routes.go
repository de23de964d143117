package invoicing

import "github.com/go-chi/chi/v5"

// MountRoutes attaches the invoicing endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Edit)
			r.Post("/credit-note", h.CreditNote)
			r.Post("/payments", h.RecordPayment)
			r.Get("/audit", h.AuditTrail)
		})
	})
}
