package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/gainerscout/pkg/database"
)

// HealthChecker reports database health
type HealthChecker interface {
	HealthCheck(ctx context.Context) *database.HealthStatus
}

// HealthHandler serves /health
type HealthHandler struct {
	db      HealthChecker // nil when the archive is disabled
	service string
}

// NewHealthHandler creates a health handler; db may be nil
func NewHealthHandler(db HealthChecker, service string) *HealthHandler {
	return &HealthHandler{db: db, service: service}
}

// Check returns service health
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"service": h.service,
	}

	if h.db == nil {
		respondJSON(w, http.StatusOK, resp)
		return
	}

	db := h.db.HealthCheck(r.Context())
	resp["database"] = db
	if !db.Healthy {
		resp["status"] = "degraded"
		respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
