package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker tracks liveness signals the bot reports as it runs.
type HealthChecker struct {
	mu        sync.RWMutex
	lastCycle time.Time
	running   bool
	lastErr   string
}

type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Running   bool      `json:"running"`
	LastCycle time.Time `json:"last_cycle"`
	Uptime    string    `json:"uptime"`
	LastError string    `json:"last_error,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

func (h *HealthChecker) NoteCycle() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastCycle = time.Now()
	h.lastErr = ""
}

func (h *HealthChecker) NoteRunning(running bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = running
}

func (h *HealthChecker) NoteError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastErr = err.Error()
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if h.running && !h.lastCycle.IsZero() && time.Since(h.lastCycle) > time.Hour {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	health := HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		Running:   h.running,
		LastCycle: h.lastCycle,
		Uptime:    time.Since(startTime).String(),
		LastError: h.lastErr,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(health)
}
