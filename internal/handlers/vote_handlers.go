package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"green-map/internal/engine/actors"
	"green-map/internal/middleware"
	"green-map/internal/models"
	"green-map/internal/utils"

	"github.com/google/uuid"
)

// VoteRequest represents a request to vote on a location's legitimacy
type VoteRequest struct {
	LocationID string `json:"locationId"`
	VoteType   string `json:"voteType"` // "igniter" or "imposter"
}

// HandleVote handles casting or changing a trust vote on a location.
// The voter's identity always comes from the JWT, never the request body,
// so one account can hold at most one vote per location.
func (s *Server) HandleVote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required to vote", http.StatusUnauthorized)
			return
		}

		var req VoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		locationID, err := uuid.Parse(req.LocationID)
		if err != nil {
			http.Error(w, "Invalid location ID format", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetVoteSupervisor(), &actors.CastVoteMsg{
			LocationID: locationID,
			UserID:     userID,
			VoteType:   models.VoteType(req.VoteType),
		}, s.RequestTimeout)

		result, err := future.Result()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to process vote: %v", err), http.StatusInternalServerError)
			return
		}

		// Check for application errors
		if appErr, ok := result.(*utils.AppError); ok {
			http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

// HandleMyVote returns the caller's current vote on a location, if any
func (s *Server) HandleMyVote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		id := r.URL.Query().Get("locationId")
		locationID, err := uuid.Parse(id)
		if err != nil {
			http.Error(w, "Invalid location ID format", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetVoteSupervisor(), &actors.GetVoteMsg{
			LocationID: locationID,
			UserID:     userID,
		}, s.RequestTimeout)

		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to get vote", http.StatusInternalServerError)
			return
		}

		if appErr, ok := result.(*utils.AppError); ok {
			http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if vote, ok := result.(*models.Vote); ok && vote == nil {
			// No vote cast yet on this location
			json.NewEncoder(w).Encode(map[string]interface{}{"vote": nil})
			return
		}
		json.NewEncoder(w).Encode(result)
	}
}
