package api

import (
	"net/http"
	"os"
	"time"

	"github.com/avolpe/searchd/pkg/search"
)

// HealthHandler handles the health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Is the TCP listener accepting connections?
//   - File health: Can the backing data file be read right now?
type HealthHandler struct {
	engine   *search.Engine
	filePath string
	ready    func() bool
}

// NewHealthHandler creates a new health handler.
//
// The ready callback reports whether the TCP search listener is bound.
// It may be nil, in which case readiness always reports unhealthy.
func NewHealthHandler(engine *search.Engine, filePath string, ready func() bool) *HealthHandler {
	return &HealthHandler{
		engine:   engine,
		filePath: filePath,
		ready:    ready,
	}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK as long as the HTTP server is responsive. Designed for
// Kubernetes liveness probes.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, HealthyResponse(map[string]string{
		"service": "searchd",
	}))
}

// Readiness handles GET /health/ready - readiness probe.
//
// Returns 200 OK once the TCP search listener is bound and accepting
// connections, 503 Service Unavailable otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.ready == nil || !h.ready() {
		JSON(w, http.StatusServiceUnavailable, UnhealthyResponse("search listener not ready"))
		return
	}

	JSON(w, http.StatusOK, HealthyResponse(map[string]interface{}{
		"mode":      h.engine.Mode(),
		"populated": h.engine.Populated(),
	}))
}

// FileHealth describes the state of the backing data file.
type FileHealth struct {
	Path    string `json:"path"`
	Status  string `json:"status"`
	Size    int64  `json:"size,omitempty"`
	ModTime string `json:"mod_time,omitempty"`
	Error   string `json:"error,omitempty"`
}

// File handles GET /health/file - backing data file health.
//
// Stats the configured data file and reports its size and modification time.
// Returns 503 Service Unavailable when the file cannot be read. A missing
// file does not make lookups fail (they degrade to not-found verdicts), but
// operators usually want to know about it.
func (h *HealthHandler) File(w http.ResponseWriter, r *http.Request) {
	info, err := os.Stat(h.filePath)
	if err != nil {
		JSON(w, http.StatusServiceUnavailable, UnhealthyResponseWithData(FileHealth{
			Path:   h.filePath,
			Status: "unhealthy",
			Error:  err.Error(),
		}, "data file not readable"))
		return
	}

	JSON(w, http.StatusOK, HealthyResponse(FileHealth{
		Path:    h.filePath,
		Status:  "healthy",
		Size:    info.Size(),
		ModTime: info.ModTime().UTC().Format(time.RFC3339),
	}))
}
