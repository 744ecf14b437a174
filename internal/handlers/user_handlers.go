package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"green-map/internal/engine/actors"
	"green-map/internal/middleware"
	"green-map/internal/types"
	"green-map/internal/utils"

	"github.com/google/uuid"
)

// RegisterUserRequest represents a user registration request
type RegisterUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleUserRegistration handles new user registration
func (s *Server) HandleUserRegistration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req RegisterUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetUserSupervisor(), &actors.RegisterUserMsg{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
		}, s.RequestTimeout)

		result, err := future.Result()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to register user: %v", err), http.StatusInternalServerError)
			return
		}

		if appErr, ok := result.(*utils.AppError); ok {
			http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(result)
	}
}

// HandleUserLogin handles user login and issues a JWT on success
func (s *Server) HandleUserLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetUserSupervisor(), &actors.LoginMsg{
			Email:    req.Email,
			Password: req.Password,
		}, s.RequestTimeout)

		result, err := future.Result()
		if err != nil {
			http.Error(w, fmt.Sprintf("Login failed: %v", err), http.StatusInternalServerError)
			return
		}

		loginResponse, ok := result.(*types.LoginResponse)
		if !ok {
			http.Error(w, "Unexpected response from login", http.StatusInternalServerError)
			return
		}

		if !loginResponse.Success {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(loginResponse)
			return
		}

		userID, err := uuid.Parse(loginResponse.UserID)
		if err != nil {
			http.Error(w, "Invalid user ID in login response", http.StatusInternalServerError)
			return
		}

		token, err := middleware.GenerateToken(userID)
		if err != nil {
			log.Printf("Failed to generate token for user %s: %v", userID, err)
			http.Error(w, "Failed to generate token", http.StatusInternalServerError)
			return
		}
		loginResponse.Token = token

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(loginResponse)
	}
}

// HandleUserProfile returns the logged-in user's profile
func (s *Server) HandleUserProfile() http.HandlerFunc {
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

		future := s.Context.RequestFuture(s.Engine.GetUserSupervisor(),
			&actors.GetUserProfileMsg{UserID: userID},
			s.RequestTimeout)

		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to get profile", http.StatusInternalServerError)
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
