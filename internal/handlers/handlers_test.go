package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"green-map/internal/database"
	"green-map/internal/engine"
	"green-map/internal/middleware"
	"green-map/internal/models"
	"green-map/internal/types"
	"green-map/internal/utils"
	"green-map/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *database.MemoryStore) {
	t.Helper()

	store := database.NewMemoryStore()
	metrics := utils.NewMetricsCollector()
	hub := websocket.NewHub()
	go hub.Run()

	system := actor.NewActorSystem()
	appEngine := engine.NewEngine(system, store, metrics, hub)

	return NewServer(system, system.Root, appEngine, metrics, store, hub), store
}

// withUser attaches an authenticated user to the request the same way the
// JWT middleware does after validating a token.
func withUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(middleware.SetUserIDInContext(req.Context(), userID))
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestRegisterLoginAndVoteFlow(t *testing.T) {
	server, store := newTestServer(t)

	// Step 1: Register a user
	req := httptest.NewRequest("POST", "/user/register", jsonBody(t, RegisterUserRequest{
		Username: "voter",
		Email:    "voter@example.com",
		Password: "password123",
	}))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.HandleUserRegistration().ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var registered models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	t.Logf("User created with ID: %s", registered.ID)

	// Step 2: Login and receive a token
	req = httptest.NewRequest("POST", "/user/login", jsonBody(t, LoginRequest{
		Email:    "voter@example.com",
		Password: "password123",
	}))
	w = httptest.NewRecorder()
	server.HandleUserLogin().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login types.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.True(t, login.Success)
	assert.NotEmpty(t, login.Token)

	// Step 3: Create a location
	req = withUser(httptest.NewRequest("POST", "/locations", jsonBody(t, CreateLocationRequest{
		Name:      "Corner Dispensary",
		Address:   "42 Main Street",
		Latitude:  40.7,
		Longitude: -74.0,
	})), registered.ID)
	w = httptest.NewRecorder()
	server.HandleLocations().ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var location models.Location
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &location))
	assert.Equal(t, 100, location.TrustScore)
	assert.Equal(t, 0, location.TotalVotes)

	// Step 4: Cast a vote through the full JWT middleware stack
	voteBody := jsonBody(t, VoteRequest{LocationID: location.ID.String(), VoteType: "igniter"})
	req = httptest.NewRequest("POST", "/vote", voteBody)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w = httptest.NewRecorder()
	middleware.AuthMiddleware(server.HandleVote()).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Location
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, 1, updated.IgniterVotes)
	assert.Equal(t, 1, updated.TotalVotes)
	assert.Equal(t, 100, updated.TrustScore)

	// Step 5: The caller can read back their own vote
	req = withUser(httptest.NewRequest("GET",
		fmt.Sprintf("/vote/mine?locationId=%s", location.ID), nil), registered.ID)
	w = httptest.NewRecorder()
	server.HandleMyVote().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var vote models.Vote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vote))
	assert.Equal(t, models.VoteIgniter, vote.VoteType)

	// The projection in the store matches what the handler returned
	stored, err := store.GetLocation(context.Background(), location.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.TrustScore, stored.TrustScore)
}

func TestVoteWithoutAuthRejected(t *testing.T) {
	server, store := newTestServer(t)

	creator := uuid.New()
	req := withUser(httptest.NewRequest("POST", "/locations", jsonBody(t, CreateLocationRequest{
		Name: "Open Spot",
	})), creator)
	w := httptest.NewRecorder()
	server.HandleLocations().ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	var location models.Location
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &location))

	// No user in the request context: the vote must be rejected before
	// anything touches the store
	req = httptest.NewRequest("POST", "/vote", jsonBody(t, VoteRequest{
		LocationID: location.ID.String(),
		VoteType:   "igniter",
	}))
	w = httptest.NewRecorder()
	server.HandleVote().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	votes, err := store.ListVotesForLocation(context.Background(), location.ID)
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestVoteMissingTokenThroughMiddleware(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/vote", jsonBody(t, VoteRequest{
		LocationID: uuid.New().String(),
		VoteType:   "igniter",
	}))
	w := httptest.NewRecorder()
	middleware.AuthMiddleware(server.HandleVote()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	server.HandleHealth().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
}

func TestGetUnknownLocation(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest("GET", fmt.Sprintf("/location?id=%s", uuid.New()), nil)
	w := httptest.NewRecorder()
	server.HandleLocation().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
