package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/aristath/rebalancer/internal/scheduler"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": Version,
		"service": "rebalancer",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleSystemStatus handles GET /api/system/status
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"uptime_seconds":  int64(time.Since(s.startedAt).Seconds()),
			"go_version":      runtime.Version(),
			"goroutines":      runtime.NumGoroutine(),
			"heap_alloc_mb":   float64(mem.HeapAlloc) / 1024 / 1024,
			"strategies":      s.service.Strategies(),
			"drift_threshold": s.service.DriftThreshold(),
			"drift_check":     s.driftCheck != nil,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleJobs handles GET /api/system/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	jobs := []scheduler.JobStatus{}
	if s.jobs != nil {
		jobs = s.jobs.Status()
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": jobs,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// handleLastDrift handles GET /api/system/drift
func (s *Server) handleLastDrift(w http.ResponseWriter, r *http.Request) {
	if s.driftCheck == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "drift check not configured"})
		return
	}

	result, ok := s.driftCheck.Last()
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "drift check has not run yet"})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
