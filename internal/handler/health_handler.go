package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Vishal2827/pern-stack/internal/database"

	"github.com/rs/zerolog"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports whether the database is reachable.
type HealthHandler struct {
	db     database.Pinger
	logger zerolog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db database.Pinger, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger.With().Str("handler", "health").Logger(),
	}
}

// ServeHTTP handles GET /health requests.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"}, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"}, h.logger)
}
