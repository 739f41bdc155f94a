package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"umbra-hq/umbra/pkg/shadow"
)

// HealthHandler handles health check requests for liveness probes.
type HealthHandler struct{}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP implements http.Handler for liveness checks.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// ReadyHandler handles readiness check requests. The proxy is ready when
// the shadow engine is running; during startup and draining it reports 503
// so load balancers stop routing new traffic.
type ReadyHandler struct {
	Engine ShadowStatus
}

// NewReadyHandler creates a new readiness check handler.
func NewReadyHandler(engine ShadowStatus) *ReadyHandler {
	return &ReadyHandler{Engine: engine}
}

// ServeHTTP implements http.Handler for readiness checks.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state := h.Engine.State()
	queue := h.Engine.QueueState()

	isReady := state == shadow.EngineRunning

	status := "ready"
	statusCode := http.StatusOK
	if !isReady {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status": status,
		"shadow": map[string]interface{}{
			"state":          string(state),
			"queue_length":   queue.Length,
			"queue_capacity": queue.Capacity,
		},
		"timestamp": time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}
