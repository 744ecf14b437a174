package actors

import (
	"testing"
	"time"

	"green-map/internal/database"
	"green-map/internal/models"
	"green-map/internal/types"
	"green-map/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRegistrationAndLogin(t *testing.T) {
	system := actor.NewActorSystem()
	store := database.NewMemoryStore()

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewUserSupervisor(store)
	})
	pid := system.Root.Spawn(props)

	// Step 1: Register a new user
	regFuture := system.Root.RequestFuture(pid, &RegisterUserMsg{
		Username: "testuser",
		Email:    "test@example.com",
		Password: "password123",
	}, 5*time.Second)

	regResult, err := regFuture.Result()
	if err != nil {
		t.Fatalf("Registration failed: %v", err)
	}

	user, ok := regResult.(*models.User)
	if !ok {
		t.Fatalf("Failed to get user from registration, got %T", regResult)
	}
	assert.Equal(t, "testuser", user.Username)
	assert.NotEqual(t, "password123", user.HashedPassword)

	// Step 2: Try logging in
	loginFuture := system.Root.RequestFuture(pid, &LoginMsg{
		Email:    "test@example.com",
		Password: "password123",
	}, 5*time.Second)

	loginResult, err := loginFuture.Result()
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	loginResponse, ok := loginResult.(*types.LoginResponse)
	if !ok {
		t.Fatal("Failed to get login response")
	}
	assert.True(t, loginResponse.Success)
	assert.Equal(t, user.ID.String(), loginResponse.UserID)

	// Step 3: Test invalid login
	badLoginFuture := system.Root.RequestFuture(pid, &LoginMsg{
		Email:    "test@example.com",
		Password: "wrongpassword",
	}, 5*time.Second)

	badLoginResult, err := badLoginFuture.Result()
	require.NoError(t, err)

	badLoginResponse, ok := badLoginResult.(*types.LoginResponse)
	require.True(t, ok)
	assert.False(t, badLoginResponse.Success)
	assert.Equal(t, "Invalid credentials", badLoginResponse.Error)
}

func TestDuplicateEmailRejected(t *testing.T) {
	system := actor.NewActorSystem()
	store := database.NewMemoryStore()

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewUserSupervisor(store)
	})
	pid := system.Root.Spawn(props)

	first := system.Root.RequestFuture(pid, &RegisterUserMsg{
		Username: "original",
		Email:    "taken@example.com",
		Password: "password123",
	}, 5*time.Second)
	result, err := first.Result()
	require.NoError(t, err)
	_, ok := result.(*models.User)
	require.True(t, ok)

	second := system.Root.RequestFuture(pid, &RegisterUserMsg{
		Username: "impostor",
		Email:    "taken@example.com",
		Password: "hunter2hunter2",
	}, 5*time.Second)
	result, err = second.Result()
	require.NoError(t, err)

	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected an application error, got %T", result)
	assert.True(t, utils.IsErrorCode(appErr, utils.ErrUserAlreadyExists))
}

func TestGetProfile(t *testing.T) {
	system := actor.NewActorSystem()
	store := database.NewMemoryStore()

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewUserSupervisor(store)
	})
	pid := system.Root.Spawn(props)

	regFuture := system.Root.RequestFuture(pid, &RegisterUserMsg{
		Username: "profileuser",
		Email:    "profile@example.com",
		Password: "password123",
	}, 5*time.Second)
	regResult, err := regFuture.Result()
	require.NoError(t, err)
	registered := regResult.(*models.User)

	profileFuture := system.Root.RequestFuture(pid, &GetUserProfileMsg{
		UserID: registered.ID,
	}, 5*time.Second)
	profileResult, err := profileFuture.Result()
	require.NoError(t, err)

	profile, ok := profileResult.(*models.User)
	require.True(t, ok)
	assert.Equal(t, "profileuser", profile.Username)
	assert.Equal(t, registered.ID, profile.ID)
}
