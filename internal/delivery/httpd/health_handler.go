package httpd

import (
	"net/http"
	"time"
)

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "content-analysis-service",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	}

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.Error().Err(err).Msg("Database health check failed")
			response["status"] = "unhealthy"
			response["database"] = "down"
			writeJSON(w, http.StatusServiceUnavailable, response)
			return
		}
		response["database"] = "up"
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) GetServiceStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"service": "content-analysis-service",
		"uptime":  time.Now().UTC(),
	}

	if h.stats != nil {
		status["worker"] = h.stats.GetStats()
	}

	writeSuccess(w, status)
}
