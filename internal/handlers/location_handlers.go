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

// CreateLocationRequest represents a request to add a new location to the map
type CreateLocationRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Address      string  `json:"address"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	ContactPhone string  `json:"contactPhone"`
	ContactEmail string  `json:"contactEmail"`
}

// HandleLocations handles listing all locations and creating new ones
func (s *Server) HandleLocations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			future := s.Context.RequestFuture(s.Engine.GetLocationActor(), &actors.ListLocationsMsg{}, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, "Failed to get locations", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(result)

		case http.MethodPost:
			// Adding a location requires a logged-in creator
			creatorID, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Authentication required to add a location", http.StatusUnauthorized)
				return
			}

			var req CreateLocationRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			if req.Name == "" {
				http.Error(w, "Location name is required", http.StatusBadRequest)
				return
			}

			msg := &actors.CreateLocationMsg{
				Name:         req.Name,
				Description:  req.Description,
				Address:      req.Address,
				Latitude:     req.Latitude,
				Longitude:    req.Longitude,
				ContactPhone: req.ContactPhone,
				ContactEmail: req.ContactEmail,
				CreatorID:    creatorID,
			}

			future := s.Context.RequestFuture(s.Engine.GetLocationActor(), msg, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				http.Error(w, fmt.Sprintf("Failed to create location: %v", err), http.StatusInternalServerError)
				return
			}

			// Check for application errors
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

// HandleLocation handles fetching a single location by ID
func (s *Server) HandleLocation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "Location ID required", http.StatusBadRequest)
			return
		}

		locationID, err := uuid.Parse(id)
		if err != nil {
			http.Error(w, "Invalid location ID format", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetLocationActor(),
			&actors.GetLocationMsg{LocationID: locationID},
			s.RequestTimeout)

		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to get location", http.StatusInternalServerError)
			return
		}

		if appErr, ok := result.(*utils.AppError); ok {
			if utils.IsErrorCode(appErr, utils.ErrLocationNotFound) || utils.IsErrorCode(appErr, utils.ErrNotFound) {
				http.Error(w, "Location not found", http.StatusNotFound)
			} else {
				http.Error(w, appErr.Error(), http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}
