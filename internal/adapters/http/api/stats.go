// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats(ctx context.Context) (map[string]any, error)
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_stats"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats, err := h.statsProvider.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
