package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

type HealthResponse struct {
	Status string `json:"status"`
	Tables int    `json:"tables"`
}

// Health pings the database and reports how many tables it holds.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed, CodeInvalidParameter)
		return
	}

	count, err := h.TablesService.Health(r.Context())
	if err != nil {
		zap.L().Warn("health check failed", zap.Error(err))
		writeSuccess(w, HealthResponse{Status: "unavailable", Tables: count}, http.StatusServiceUnavailable)
		return
	}

	writeSuccess(w, HealthResponse{Status: "ok", Tables: count}, http.StatusOK)
}
