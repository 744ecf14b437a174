package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"green-map/internal/engine/actors"
)

// HandleHealth handles health check requests
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := "healthy"

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.Store.Ping(ctx); err != nil {
			status = "degraded"
		}

		// Get the location count from the LocationActor
		locationCount := -1
		future := s.Context.RequestFuture(s.Engine.GetLocationActor(), &actors.GetCountsMsg{}, s.RequestTimeout)
		if result, err := future.Result(); err == nil {
			if count, ok := result.(int); ok {
				locationCount = count
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":         status,
			"location_count": locationCount,
			"server_time":    time.Now(),
		})
	}
}

// HandleStats exposes request counters and operation latencies
func (s *Server) HandleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.Metrics.Snapshot())
	}
}
