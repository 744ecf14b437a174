// internal/database/memory.go
package database

import (
	"context"
	"sync"
	"time"

	"green-map/internal/models"
	"green-map/internal/utils"

	"github.com/google/uuid"
)

type voteKey struct {
	userID     uuid.UUID
	locationID uuid.UUID
}

// MemoryStore is an in-process Store used for tests and the "memory"
// database backend. All maps are guarded by a single mutex, which gives the
// same atomic-upsert guarantee the SQL unique key provides.
type MemoryStore struct {
	mu        sync.Mutex
	votes     map[voteKey]*models.Vote
	locations map[uuid.UUID]*models.Location
	reviews   map[uuid.UUID][]*models.Review
	visits    []*models.Visit
	users     map[uuid.UUID]*models.User

	// Failure injection for retry-path tests. Each counter fails that many
	// upcoming calls with a transient error before letting calls through.
	failUpserts         int
	failAggregateWrites int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		votes:     make(map[voteKey]*models.Vote),
		locations: make(map[uuid.UUID]*models.Location),
		reviews:   make(map[uuid.UUID][]*models.Review),
		users:     make(map[uuid.UUID]*models.User),
	}
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }
func (s *MemoryStore) Ping(ctx context.Context) error  { return nil }

// FailNextUpserts makes the next n UpsertVote calls fail transiently.
func (s *MemoryStore) FailNextUpserts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpserts = n
}

// FailNextAggregateWrites makes the next n UpdateTrustAggregate calls fail
// transiently.
func (s *MemoryStore) FailNextAggregateWrites(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAggregateWrites = n
}

func (s *MemoryStore) FindVote(ctx context.Context, userID, locationID uuid.UUID) (*models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vote, exists := s.votes[voteKey{userID, locationID}]
	if !exists {
		return nil, nil
	}
	copied := *vote
	return &copied, nil
}

func (s *MemoryStore) UpsertVote(ctx context.Context, userID, locationID uuid.UUID, voteType models.VoteType) (*models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failUpserts > 0 {
		s.failUpserts--
		return nil, utils.NewAppError(utils.ErrTransientStore, "injected upsert failure", nil)
	}

	now := time.Now()
	key := voteKey{userID, locationID}
	if existing, exists := s.votes[key]; exists {
		existing.VoteType = voteType
		existing.UpdatedAt = now
		copied := *existing
		return &copied, nil
	}

	vote := &models.Vote{
		ID:         uuid.New(),
		LocationID: locationID,
		UserID:     userID,
		VoteType:   voteType,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.votes[key] = vote
	copied := *vote
	return &copied, nil
}

func (s *MemoryStore) ListVotesForLocation(ctx context.Context, locationID uuid.UUID) ([]*models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var votes []*models.Vote
	for _, vote := range s.votes {
		if vote.LocationID == locationID {
			copied := *vote
			votes = append(votes, &copied)
		}
	}
	return votes, nil
}

func (s *MemoryStore) SaveLocation(ctx context.Context, location *models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *location
	s.locations[location.ID] = &copied
	return nil
}

func (s *MemoryStore) GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	location, exists := s.locations[id]
	if !exists {
		return nil, utils.NewLocationNotFoundError(id.String())
	}
	copied := *location
	return &copied, nil
}

func (s *MemoryStore) ListLocations(ctx context.Context) ([]*models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	locations := make([]*models.Location, 0, len(s.locations))
	for _, location := range s.locations {
		copied := *location
		locations = append(locations, &copied)
	}
	return locations, nil
}

func (s *MemoryStore) UpdateTrustAggregate(ctx context.Context, locationID uuid.UUID, agg models.TrustAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAggregateWrites > 0 {
		s.failAggregateWrites--
		return utils.NewAppError(utils.ErrTransientStore, "injected aggregate write failure", nil)
	}

	location, exists := s.locations[locationID]
	if !exists {
		return utils.NewLocationNotFoundError(locationID.String())
	}
	location.TrustAggregate = agg
	location.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) UpdateReviewStats(ctx context.Context, locationID uuid.UUID, averageRating float64, reviewCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	location, exists := s.locations[locationID]
	if !exists {
		return utils.NewLocationNotFoundError(locationID.String())
	}
	location.AverageRating = averageRating
	location.ReviewCount = reviewCount
	location.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) CountLocations(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locations), nil
}

func (s *MemoryStore) SaveReview(ctx context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *review
	s.reviews[review.LocationID] = append(s.reviews[review.LocationID], &copied)
	return nil
}

func (s *MemoryStore) GetLocationReviews(ctx context.Context, locationID uuid.UUID) ([]*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reviews := make([]*models.Review, 0, len(s.reviews[locationID]))
	for _, review := range s.reviews[locationID] {
		copied := *review
		reviews = append(reviews, &copied)
	}
	return reviews, nil
}

func (s *MemoryStore) SaveVisit(ctx context.Context, visit *models.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *visit
	s.visits = append(s.visits, &copied)
	return nil
}

func (s *MemoryStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email && existing.ID != user.ID {
			return utils.NewAppError(utils.ErrDuplicate, "Email already registered", nil)
		}
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[id]
	if !exists {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found: "+id.String(), nil)
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, utils.NewAppError(utils.ErrUserNotFound, "User not found: "+email, nil)
}
