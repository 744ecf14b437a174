package actors

import (
	stdctx "context"
	"log"
	"time"

	"green-map/internal/database"
	"green-map/internal/models"
	"green-map/internal/types"
	"green-map/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Message types for user operations
type (
	RegisterUserMsg struct {
		Username string
		Email    string
		Password string
	}

	LoginMsg struct {
		Email    string
		Password string
	}

	GetUserProfileMsg struct {
		UserID uuid.UUID
	}
)

// UserSupervisor handles registration, login, and profile reads.
type UserSupervisor struct {
	store database.Store
}

func NewUserSupervisor(store database.Store) actor.Actor {
	return &UserSupervisor{store: store}
}

func (s *UserSupervisor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("UserSupervisor started")
	case *RegisterUserMsg:
		s.handleRegister(context, msg)
	case *LoginMsg:
		s.handleLogin(context, msg)
	case *GetUserProfileMsg:
		s.handleGetProfile(context, msg)
	}
}

func (s *UserSupervisor) handleRegister(context actor.Context, msg *RegisterUserMsg) {
	ctx := stdctx.Background()

	if msg.Username == "" || msg.Email == "" || msg.Password == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "username, email and password are required", nil))
		return
	}

	if existing, _ := s.store.GetUserByEmail(ctx, msg.Email); existing != nil {
		log.Printf("UserSupervisor: email already registered: %s", msg.Email)
		context.Respond(utils.NewAppError(utils.ErrUserAlreadyExists, "Email already registered", nil))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(msg.Password), bcrypt.DefaultCost)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "failed to hash password", err))
		return
	}

	now := time.Now()
	user := &models.User{
		ID:             uuid.New(),
		Username:       msg.Username,
		Email:          msg.Email,
		HashedPassword: string(hashed),
		CreatedAt:      now,
		UpdatedAt:      now,
		LastActive:     now,
	}

	if err := s.store.SaveUser(ctx, user); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "failed to save user", err))
		return
	}

	context.Respond(user)
}

func (s *UserSupervisor) handleLogin(context actor.Context, msg *LoginMsg) {
	ctx := stdctx.Background()

	user, err := s.store.GetUserByEmail(ctx, msg.Email)
	if err != nil {
		context.Respond(&types.LoginResponse{
			Success: false,
			Error:   "Invalid credentials",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.Password)); err != nil {
		context.Respond(&types.LoginResponse{
			Success: false,
			Error:   "Invalid credentials",
		})
		return
	}

	user.LastActive = time.Now()
	if err := s.store.SaveUser(ctx, user); err != nil {
		log.Printf("UserSupervisor: failed to update last active for %s: %v", user.ID, err)
	}

	context.Respond(&types.LoginResponse{
		Success: true,
		UserID:  user.ID.String(),
	})
}

func (s *UserSupervisor) handleGetProfile(context actor.Context, msg *GetUserProfileMsg) {
	user, err := s.store.GetUser(stdctx.Background(), msg.UserID)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrUserNotFound, "User not found", err))
		return
	}
	context.Respond(user)
}
