package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthPinger checks the database connection.
type HealthPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves GET /health.
type HealthHandler struct {
	db      HealthPinger
	version string
}

func NewHealthHandler(db HealthPinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// HealthResponse is the JSON response for /health.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of one dependency.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

// Health pings the database: 200 when reachable, 503 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	latency := time.Since(start)

	resp := HealthResponse{Status: "ok", Version: h.version, Timestamp: time.Now()}
	status := http.StatusOK
	if err != nil {
		resp.Status = "down"
		resp.Components = map[string]CompStatus{"database": {Status: "down"}}
		status = http.StatusServiceUnavailable
	} else {
		resp.Components = map[string]CompStatus{"database": {Status: "ok", Latency: latency.String()}}
	}
	writeJSON(w, status, resp)
}
