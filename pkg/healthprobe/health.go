package healthprobe

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthChecker provides health and readiness checks.
//
// Readiness here means two things for a streaming order book engine: the
// application has finished startup (SetReady), and the feed is still
// actively delivering frames. A feed that silently stops sending frames
// (a dead connection the reconnect loop hasn't noticed yet, an exchange
// outage) leaves the engine serving an increasingly stale book, which is
// exactly the condition a load balancer or orchestrator should see as
// not-ready even though the process itself is still healthy.
type HealthChecker struct {
	startTime time.Time
	ready     atomic.Bool

	lastFrameAt atomic.Int64 // unix nanos; 0 means no frame observed yet
	staleAfter  atomic.Int64 // nanos; 0 disables the staleness check
}

// New creates a new HealthChecker. The feed-staleness check starts
// disabled; call SetStaleAfter to enable it once a frame cadence is known.
func New() *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
	}
}

// SetReady marks the application as ready to serve traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// SetStaleAfter configures how long the feed may go without a frame before
// Ready starts reporting not-ready. Zero disables the check.
func (h *HealthChecker) SetStaleAfter(d time.Duration) {
	h.staleAfter.Store(int64(d))
}

// RecordFrame marks that a frame was just received off the feed, resetting
// the staleness clock checked by Ready.
func (h *HealthChecker) RecordFrame() {
	h.lastFrameAt.Store(time.Now().UnixNano())
}

// feedStale reports whether the feed has gone silent for longer than the
// configured staleness window. Disabled (false) until SetStaleAfter is
// called with a positive duration and at least one frame has been recorded.
func (h *HealthChecker) feedStale() bool {
	staleAfter := time.Duration(h.staleAfter.Load())
	if staleAfter <= 0 {
		return false
	}
	last := h.lastFrameAt.Load()
	if last == 0 {
		return false
	}
	return time.Since(time.Unix(0, last)) > staleAfter
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Message string `json:"message,omitempty"`
}

// Health returns an HTTP handler for liveness checks.
// Always returns 200 OK if the application is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := time.Since(h.startTime)
		resp := HealthResponse{
			Status: "healthy",
			Uptime: uptime.String(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// Ready returns an HTTP handler for readiness checks.
// Returns 200 OK if ready, 503 Service Unavailable if not.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.ready.Load() {
			resp := HealthResponse{
				Status:  "not_ready",
				Message: "application is starting",
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(resp)
			return
		}

		if h.feedStale() {
			resp := HealthResponse{
				Status:  "not_ready",
				Message: "feed has not delivered a frame within the staleness window",
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(resp)
			return
		}

		uptime := time.Since(h.startTime)
		resp := HealthResponse{
			Status: "ready",
			Uptime: uptime.String(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
