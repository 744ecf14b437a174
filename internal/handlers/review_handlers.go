package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"green-map/internal/engine/actors"
	"green-map/internal/middleware"
	"green-map/internal/utils"

	"github.com/google/uuid"
)

// AddReviewRequest represents a request to review a location
type AddReviewRequest struct {
	LocationID string `json:"locationId"`
	Rating     int    `json:"rating"` // 1 to 5
	Comment    string `json:"comment"`
}

// HandleReviews handles adding a review and listing a location's reviews
func (s *Server) HandleReviews() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			id := r.URL.Query().Get("locationId")
			locationID, err := uuid.Parse(id)
			if err != nil {
				http.Error(w, "Invalid location ID format", http.StatusBadRequest)
				return
			}

			future := s.Context.RequestFuture(s.Engine.GetReviewActor(),
				&actors.GetReviewsMsg{LocationID: locationID},
				s.RequestTimeout)

			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to get reviews", http.StatusInternalServerError)
				return
			}

			if appErr, ok := result.(*utils.AppError); ok {
				http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
				return
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(result)

		case http.MethodPost:
			userID, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Authentication required to review", http.StatusUnauthorized)
				return
			}

			var req AddReviewRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			locationID, err := uuid.Parse(req.LocationID)
			if err != nil {
				http.Error(w, "Invalid location ID format", http.StatusBadRequest)
				return
			}

			future := s.Context.RequestFuture(s.Engine.GetReviewActor(), &actors.AddReviewMsg{
				LocationID: locationID,
				UserID:     userID,
				Rating:     req.Rating,
				Comment:    req.Comment,
			}, s.RequestTimeout)

			result, err := future.Result()
			if err != nil {
				http.Error(w, fmt.Sprintf("Failed to add review: %v", err), http.StatusInternalServerError)
				return
			}

			if appErr, ok := result.(*utils.AppError); ok {
				http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleVisit records that the caller visited a location
func (s *Server) HandleVisit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		var req struct {
			LocationID string `json:"locationId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		locationID, err := uuid.Parse(req.LocationID)
		if err != nil {
			http.Error(w, "Invalid location ID format", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetReviewActor(), &actors.RecordVisitMsg{
			LocationID: locationID,
			UserID:     userID,
		}, s.RequestTimeout)

		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to record visit", http.StatusInternalServerError)
			return
		}

		if appErr, ok := result.(*utils.AppError); ok {
			http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}
