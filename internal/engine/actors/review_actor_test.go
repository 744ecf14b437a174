package actors

import (
	"context"
	"testing"
	"time"

	"green-map/internal/database"
	"green-map/internal/models"
	"green-map/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReviewTestEnv(t *testing.T) (*actor.ActorSystem, *actor.PID, *database.MemoryStore, uuid.UUID) {
	t.Helper()

	system := actor.NewActorSystem()
	store := database.NewMemoryStore()

	location := &models.Location{
		ID:             uuid.New(),
		Name:           "Test Dispensary",
		CreatorID:      uuid.New(),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
		TrustAggregate: models.NewLocationAggregate(),
	}
	require.NoError(t, store.SaveLocation(context.Background(), location))

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewReviewActor(store, utils.NewMetricsCollector())
	})
	pid := system.Root.Spawn(props)

	return system, pid, store, location.ID
}

func TestAddReviewUpdatesAverage(t *testing.T) {
	system, pid, store, locationID := newReviewTestEnv(t)

	ratings := []int{5, 4, 4}
	for _, rating := range ratings {
		future := system.Root.RequestFuture(pid, &AddReviewMsg{
			LocationID: locationID,
			UserID:     uuid.New(),
			Rating:     rating,
			Comment:    "solid spot",
		}, 5*time.Second)
		result, err := future.Result()
		require.NoError(t, err)
		_, ok := result.(*models.Review)
		require.True(t, ok, "expected a review back, got %T", result)
	}

	location, err := store.GetLocation(context.Background(), locationID)
	require.NoError(t, err)
	assert.Equal(t, 3, location.ReviewCount)
	assert.InDelta(t, 4.3, location.AverageRating, 0.001)
}

func TestAddReviewRejectsBadRating(t *testing.T) {
	system, pid, store, locationID := newReviewTestEnv(t)

	for _, rating := range []int{0, 6, -3} {
		future := system.Root.RequestFuture(pid, &AddReviewMsg{
			LocationID: locationID,
			UserID:     uuid.New(),
			Rating:     rating,
		}, 5*time.Second)
		result, err := future.Result()
		require.NoError(t, err)

		appErr, ok := result.(*utils.AppError)
		require.True(t, ok, "rating %d should be rejected", rating)
		assert.True(t, utils.IsErrorCode(appErr, utils.ErrInvalidInput))
	}

	reviews, err := store.GetLocationReviews(context.Background(), locationID)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestAddReviewUnauthenticated(t *testing.T) {
	system, pid, store, locationID := newReviewTestEnv(t)

	future := system.Root.RequestFuture(pid, &AddReviewMsg{
		LocationID: locationID,
		UserID:     uuid.Nil,
		Rating:     5,
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.True(t, utils.IsErrorCode(appErr, utils.ErrUnauthenticated))

	reviews, err := store.GetLocationReviews(context.Background(), locationID)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestRecordVisit(t *testing.T) {
	system, pid, _, locationID := newReviewTestEnv(t)

	future := system.Root.RequestFuture(pid, &RecordVisitMsg{
		LocationID: locationID,
		UserID:     uuid.New(),
	}, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)

	visit, ok := result.(*models.Visit)
	require.True(t, ok, "expected a visit back, got %T", result)
	assert.Equal(t, locationID, visit.LocationID)
	assert.False(t, visit.VisitedAt.IsZero())
}
