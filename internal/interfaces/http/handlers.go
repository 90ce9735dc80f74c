package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleLatest serves the cached analysis result, falling back to the
// cross-process mirror. 404 means no fresh run anywhere: the cache entry
// expired or no run completed yet.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	result, ok := s.engine.Latest()
	if !ok && s.mirror != nil {
		mirrored, err := s.mirror.LatestResult(r.Context())
		if err != nil {
			log.Warn().Err(err).Msg("result mirror read failed")
		}
		result, ok = mirrored, mirrored != nil
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no fresh analysis result")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Alerts())
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.registry.Acknowledge(id) {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

func (s *Server) handleListMonitors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Monitors())
}

type addMonitorRequest struct {
	Query     string  `json:"query"`
	Threshold float64 `json:"threshold,omitempty"`
}

func (s *Server) handleAddMonitor(w http.ResponseWriter, r *http.Request) {
	var req addMonitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeError(w, http.StatusBadRequest, "body must carry a non-empty query")
		return
	}
	if req.Threshold < 0 || req.Threshold > 1 {
		writeError(w, http.StatusBadRequest, "threshold must be within [0, 1]")
		return
	}

	m, err := s.registry.Add(r.Context(), req.Query, req.Threshold)
	if err != nil {
		// The monitor exists in memory; persistence is degraded.
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"monitor": m,
			"warning": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleRemoveMonitor(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	removed, err := s.registry.Remove(r.Context(), id)
	if !removed {
		writeError(w, http.StatusNotFound, "monitor not found")
		return
	}
	if err != nil {
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":  "removed",
			"warning": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleDeactivateMonitor(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	deactivated, err := s.registry.Deactivate(r.Context(), id)
	if !deactivated {
		writeError(w, http.StatusNotFound, "monitor not found")
		return
	}
	if err != nil {
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":  "deactivated",
			"warning": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
