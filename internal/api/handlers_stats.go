package api

import (
	"encoding/json"
	"net/http"
)

// handleVisionStats reports OCR call latency over the rolling window.
func (s *Server) handleVisionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"vision":      s.vision.Stats.Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
