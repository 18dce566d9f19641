package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"ecomdash/internal/services"
)

// HealthHandler serves liveness and dataset readiness.
type HealthHandler struct {
	service *services.HealthService
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(service *services.HealthService) *HealthHandler {
	return &HealthHandler{service: service}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetHealth)
	return r
}

// GetHealth handles GET /healthz.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	// A degraded dataset still answers 200: the first dashboard request
	// triggers the load.
	render.JSON(w, r, h.service.Check(r.Context()))
}
