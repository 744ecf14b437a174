package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"green-map/internal/models"
	"green-map/internal/utils"
)

func seedLocation(t *testing.T, store *MemoryStore) uuid.UUID {
	t.Helper()

	location := &models.Location{
		ID:             uuid.New(),
		Name:           "Test Spot",
		Latitude:       43.65,
		Longitude:      -79.38,
		CreatorID:      uuid.New(),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
		TrustAggregate: models.NewLocationAggregate(),
	}
	require.NoError(t, store.SaveLocation(context.Background(), location))
	return location.ID
}

func TestFindVoteAbsent(t *testing.T) {
	store := NewMemoryStore()
	locationID := seedLocation(t, store)

	vote, err := store.FindVote(context.Background(), uuid.New(), locationID)
	require.NoError(t, err)
	assert.Nil(t, vote)
}

func TestUpsertVoteInsertThenFlip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	locationID := seedLocation(t, store)
	userID := uuid.New()

	first, err := store.UpsertVote(ctx, userID, locationID, models.VoteIgniter)
	require.NoError(t, err)
	assert.Equal(t, models.VoteIgniter, first.VoteType)

	second, err := store.UpsertVote(ctx, userID, locationID, models.VoteImposter)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "flipping must update the row in place")
	assert.Equal(t, models.VoteImposter, second.VoteType)

	votes, err := store.ListVotesForLocation(ctx, locationID)
	require.NoError(t, err)
	assert.Len(t, votes, 1)
}

func TestConcurrentUpsertsSameUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	locationID := seedLocation(t, store)
	userID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			voteType := models.VoteIgniter
			if n%2 == 0 {
				voteType = models.VoteImposter
			}
			if _, err := store.UpsertVote(ctx, userID, locationID, voteType); err != nil {
				t.Errorf("upsert failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// Racing upserts on the same key must collapse to one row.
	votes, err := store.ListVotesForLocation(ctx, locationID)
	require.NoError(t, err)
	assert.Len(t, votes, 1)
}

func TestUpdateTrustAggregateUnknownLocation(t *testing.T) {
	store := NewMemoryStore()

	err := store.UpdateTrustAggregate(context.Background(), uuid.New(), models.TrustAggregate{})
	assert.True(t, utils.IsErrorCode(err, utils.ErrLocationNotFound))
}

func TestFailureInjectionIsTransient(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	locationID := seedLocation(t, store)

	store.FailNextUpserts(1)
	_, err := store.UpsertVote(ctx, uuid.New(), locationID, models.VoteIgniter)
	assert.True(t, utils.IsTransient(err))

	// The next call goes through.
	_, err = store.UpsertVote(ctx, uuid.New(), locationID, models.VoteIgniter)
	assert.NoError(t, err)
}

func TestSaveUserRejectsDuplicateEmail(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := &models.User{ID: uuid.New(), Username: "a", Email: "dup@example.com"}
	require.NoError(t, store.SaveUser(ctx, first))

	second := &models.User{ID: uuid.New(), Username: "b", Email: "dup@example.com"}
	err := store.SaveUser(ctx, second)
	assert.True(t, utils.IsErrorCode(err, utils.ErrDuplicate))
}
