package handlers

import (
	"net/http"
	"time"

	"github.com/ecoportal/backend/pkg/mongodb"
)

// HealthResponse is the shape of the /health payload.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Checks  map[string]HealthCheck `json:"checks,omitempty"`
}

// HealthCheck reports one dependency probe.
type HealthCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthHandler reports service liveness and MongoDB reachability.
type HealthHandler struct {
	mongo *mongodb.Client
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(mongo *mongodb.Client) *HealthHandler {
	return &HealthHandler{mongo: mongo}
}

// Get handles GET /health.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Service: "ecoportal-backend-api",
		Version: "1.0.0",
		Checks:  make(map[string]HealthCheck),
	}

	allHealthy := true

	start := time.Now()
	if err := h.mongo.Ping(); err != nil {
		allHealthy = false
		response.Checks["mongodb"] = HealthCheck{
			Status: "unhealthy",
			Error:  err.Error(),
		}
	} else {
		response.Checks["mongodb"] = HealthCheck{
			Status:  "healthy",
			Latency: time.Since(start).String(),
		}
	}

	status := http.StatusOK
	response.Status = "healthy"
	if !allHealthy {
		status = http.StatusServiceUnavailable
		response.Status = "unhealthy"
	}

	respondWithJSON(w, status, response)
}
