package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the dashboard page and chart routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleIndex)
	r.Post("/predict", h.HandleSubmit)
	r.Post("/reset", h.HandleReset)

	r.Route("/charts/{window}", func(r chi.Router) {
		r.Get("/", h.HandleChartImage)
		r.Get("/download", h.HandleChartDownload)
	})
}

// RegisterAPIRoutes registers the JSON routes; the caller mounts them under /api
func (h *Handler) RegisterAPIRoutes(r chi.Router) {
	r.Get("/state", h.HandleGetState)
	r.Post("/predict", h.HandleAPIPredict)
}
