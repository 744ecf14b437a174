package actors

import (
	stdctx "context"
	"sync"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"green-map/internal/database"
	"green-map/internal/models"
	"green-map/internal/utils"
)

func newVoteTestEnv(t *testing.T) (*actor.ActorSystem, *actor.PID, *database.MemoryStore, uuid.UUID) {
	t.Helper()

	system := actor.NewActorSystem()
	store := database.NewMemoryStore()
	metrics := utils.NewMetricsCollector()

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewVoteSupervisor(store, metrics, nil)
	})
	pid := system.Root.Spawn(props)

	location := &models.Location{
		ID:             uuid.New(),
		Name:           "Green Leaf Dispensary",
		Latitude:       45.5017,
		Longitude:      -73.5673,
		CreatorID:      uuid.New(),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
		TrustAggregate: models.NewLocationAggregate(),
	}
	if err := store.SaveLocation(stdctx.Background(), location); err != nil {
		t.Fatalf("failed to seed location: %v", err)
	}

	return system, pid, store, location.ID
}

func castVote(t *testing.T, system *actor.ActorSystem, pid *actor.PID, locationID, userID uuid.UUID, voteType models.VoteType) interface{} {
	t.Helper()

	future := system.Root.RequestFuture(pid, &CastVoteMsg{
		LocationID: locationID,
		UserID:     userID,
		VoteType:   voteType,
	}, 5*time.Second)

	result, err := future.Result()
	if err != nil {
		t.Fatalf("cast vote request failed: %v", err)
	}
	return result
}

func mustCastVote(t *testing.T, system *actor.ActorSystem, pid *actor.PID, locationID, userID uuid.UUID, voteType models.VoteType) *models.Location {
	t.Helper()

	result := castVote(t, system, pid, locationID, userID, voteType)
	location, ok := result.(*models.Location)
	if !ok {
		t.Fatalf("expected updated location, got %T: %v", result, result)
	}
	return location
}

func TestCastVoteKeepsOneRowPerUser(t *testing.T) {
	system, pid, store, locationID := newVoteTestEnv(t)
	userID := uuid.New()

	mustCastVote(t, system, pid, locationID, userID, models.VoteIgniter)
	mustCastVote(t, system, pid, locationID, userID, models.VoteIgniter)
	mustCastVote(t, system, pid, locationID, userID, models.VoteImposter)

	votes, err := store.ListVotesForLocation(stdctx.Background(), locationID)
	require.NoError(t, err)
	require.Len(t, votes, 1, "repeated casts by the same user must never create extra rows")
	assert.Equal(t, models.VoteImposter, votes[0].VoteType, "the row must carry the most recent cast")
}

func TestCastVoteUpdatesProjection(t *testing.T) {
	system, pid, store, locationID := newVoteTestEnv(t)

	for i := 0; i < 3; i++ {
		mustCastVote(t, system, pid, locationID, uuid.New(), models.VoteIgniter)
	}
	updated := mustCastVote(t, system, pid, locationID, uuid.New(), models.VoteImposter)

	assert.Equal(t, 3, updated.IgniterVotes)
	assert.Equal(t, 1, updated.ImposterVotes)
	assert.Equal(t, 4, updated.TotalVotes)
	assert.Equal(t, 75, updated.TrustScore)

	// The projection in the store must match what the caller saw.
	stored, err := store.GetLocation(stdctx.Background(), locationID)
	require.NoError(t, err)
	assert.Equal(t, updated.TrustAggregate, stored.TrustAggregate)
}

func TestCastVoteTieScoresFifty(t *testing.T) {
	system, pid, _, locationID := newVoteTestEnv(t)

	mustCastVote(t, system, pid, locationID, uuid.New(), models.VoteIgniter)
	updated := mustCastVote(t, system, pid, locationID, uuid.New(), models.VoteImposter)

	assert.Equal(t, 2, updated.TotalVotes)
	assert.Equal(t, 50, updated.TrustScore)
}

func TestVoteFlipRecomputesFromScratch(t *testing.T) {
	system, pid, _, locationID := newVoteTestEnv(t)
	flipper := uuid.New()

	mustCastVote(t, system, pid, locationID, flipper, models.VoteIgniter)
	updated := mustCastVote(t, system, pid, locationID, uuid.New(), models.VoteIgniter)
	assert.Equal(t, 2, updated.IgniterVotes)
	assert.Equal(t, 100, updated.TrustScore)

	// Flipping must move the vote between tallies, not double-count it.
	updated = mustCastVote(t, system, pid, locationID, flipper, models.VoteImposter)
	assert.Equal(t, 1, updated.IgniterVotes)
	assert.Equal(t, 1, updated.ImposterVotes)
	assert.Equal(t, 2, updated.TotalVotes)
	assert.Equal(t, 50, updated.TrustScore)
}

func TestCastVoteIdempotent(t *testing.T) {
	system, pid, store, locationID := newVoteTestEnv(t)
	userID := uuid.New()

	first := mustCastVote(t, system, pid, locationID, userID, models.VoteIgniter)
	second := mustCastVote(t, system, pid, locationID, userID, models.VoteIgniter)

	assert.Equal(t, first.TrustAggregate, second.TrustAggregate)

	votes, err := store.ListVotesForLocation(stdctx.Background(), locationID)
	require.NoError(t, err)
	assert.Len(t, votes, 1)
}

func TestConcurrentFirstTimeVoters(t *testing.T) {
	system, pid, store, locationID := newVoteTestEnv(t)

	const numVoters = 24
	const numImposters = 6 // every fourth voter

	var wg sync.WaitGroup
	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			voteType := models.VoteIgniter
			if n%4 == 0 {
				voteType = models.VoteImposter
			}
			future := system.Root.RequestFuture(pid, &CastVoteMsg{
				LocationID: locationID,
				UserID:     uuid.New(),
				VoteType:   voteType,
			}, 10*time.Second)
			if _, err := future.Result(); err != nil {
				t.Errorf("concurrent vote failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	votes, err := store.ListVotesForLocation(stdctx.Background(), locationID)
	require.NoError(t, err)
	assert.Len(t, votes, numVoters, "no votes may be lost or duplicated under concurrency")

	// Once no further votes arrive, the projection must have settled on the
	// value derived from the full vote set.
	location, err := store.GetLocation(stdctx.Background(), locationID)
	require.NoError(t, err)
	assert.Equal(t, numVoters-numImposters, location.IgniterVotes)
	assert.Equal(t, numImposters, location.ImposterVotes)
	assert.Equal(t, numVoters, location.TotalVotes)
	assert.Equal(t, 75, location.TrustScore)
}

func TestUnauthenticatedVoteRejected(t *testing.T) {
	system, pid, store, locationID := newVoteTestEnv(t)

	result := castVote(t, system, pid, locationID, uuid.Nil, models.VoteIgniter)
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected an application error, got %T", result)
	assert.Equal(t, utils.ErrUnauthenticated, appErr.Code)

	votes, err := store.ListVotesForLocation(stdctx.Background(), locationID)
	require.NoError(t, err)
	assert.Empty(t, votes, "an unauthenticated attempt must not create a vote row")
}

func TestInvalidVoteTypeRejected(t *testing.T) {
	system, pid, store, locationID := newVoteTestEnv(t)

	result := castVote(t, system, pid, locationID, uuid.New(), models.VoteType("sideways"))
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected an application error, got %T", result)
	assert.Equal(t, utils.ErrInvalidVote, appErr.Code)

	votes, err := store.ListVotesForLocation(stdctx.Background(), locationID)
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestVoteOnUnknownLocationRejected(t *testing.T) {
	system, pid, _, _ := newVoteTestEnv(t)

	result := castVote(t, system, pid, uuid.New(), uuid.New(), models.VoteIgniter)
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected an application error, got %T", result)
	assert.Equal(t, utils.ErrLocationNotFound, appErr.Code)
}

func TestTransientUpsertFailureRetried(t *testing.T) {
	system, pid, store, locationID := newVoteTestEnv(t)

	// Two failures still fit inside the three-attempt budget.
	store.FailNextUpserts(2)
	updated := mustCastVote(t, system, pid, locationID, uuid.New(), models.VoteIgniter)
	assert.Equal(t, 1, updated.TotalVotes)
}

func TestUpsertRetriesExhausted(t *testing.T) {
	system, pid, store, locationID := newVoteTestEnv(t)

	store.FailNextUpserts(3)
	result := castVote(t, system, pid, locationID, uuid.New(), models.VoteIgniter)
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected an application error, got %T", result)
	assert.Equal(t, utils.ErrTransientStore, appErr.Code)

	// Nothing was committed, so the caller may simply retry.
	votes, err := store.ListVotesForLocation(stdctx.Background(), locationID)
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestAggregateWriteExhaustionReportsDivergence(t *testing.T) {
	system, pid, store, locationID := newVoteTestEnv(t)
	userID := uuid.New()

	store.FailNextAggregateWrites(3)
	result := castVote(t, system, pid, locationID, userID, models.VoteIgniter)
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected an application error, got %T", result)
	assert.Equal(t, utils.ErrAggregationFailed, appErr.Code)

	// The upsert is committed even though the projection write failed.
	vote, err := store.FindVote(stdctx.Background(), userID, locationID)
	require.NoError(t, err)
	require.NotNil(t, vote)

	// A later successful cast converges the projection onto the full set.
	updated := mustCastVote(t, system, pid, locationID, uuid.New(), models.VoteIgniter)
	assert.Equal(t, 2, updated.TotalVotes)
	assert.Equal(t, 100, updated.TrustScore)
}

func TestAggregateWriteLeavesOtherFieldsAlone(t *testing.T) {
	system, pid, store, locationID := newVoteTestEnv(t)

	before, err := store.GetLocation(stdctx.Background(), locationID)
	require.NoError(t, err)

	mustCastVote(t, system, pid, locationID, uuid.New(), models.VoteImposter)

	after, err := store.GetLocation(stdctx.Background(), locationID)
	require.NoError(t, err)
	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, before.Latitude, after.Latitude)
	assert.Equal(t, before.Longitude, after.Longitude)
	assert.Equal(t, before.AverageRating, after.AverageRating)
	assert.Equal(t, before.ReviewCount, after.ReviewCount)
	assert.NotEqual(t, before.TrustAggregate, after.TrustAggregate)
}

func TestGetVoteAbsentIsTyped(t *testing.T) {
	system, pid, _, locationID := newVoteTestEnv(t)

	future := system.Root.RequestFuture(pid, &GetVoteMsg{
		LocationID: locationID,
		UserID:     uuid.New(),
	}, 5*time.Second)

	result, err := future.Result()
	require.NoError(t, err)

	vote, ok := result.(*models.Vote)
	require.True(t, ok, "expected a vote result, got %T", result)
	assert.Nil(t, vote, "a missing vote is a nil result, not an error")
}
