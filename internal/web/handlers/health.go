package handlers

import (
	"net/http"

	"github.com/jsvoboda/facegate/internal/config"
	"github.com/jsvoboda/facegate/internal/database"
)

// HealthHandler reports service readiness.
type HealthHandler struct {
	cfg   *config.Config
	store database.PersonReader
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(cfg *config.Config, store database.PersonReader) *HealthHandler {
	return &HealthHandler{cfg: cfg, store: store}
}

// Get reports status, the embedding space in use, and how many
// identities are enrolled. A failing store makes the check fail so
// load balancers stop routing here.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.Count(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"model":    h.cfg.Calibration.Model,
		"dim":      h.cfg.Calibration.Dim,
		"enrolled": count,
	})
}
