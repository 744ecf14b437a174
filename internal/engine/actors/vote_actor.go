package actors

import (
	stdctx "context"
	"log"
	"time"

	"green-map/internal/database"
	"green-map/internal/models"
	"green-map/internal/trust"
	"green-map/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for vote operations
type (
	CastVoteMsg struct {
		LocationID uuid.UUID
		UserID     uuid.UUID
		VoteType   models.VoteType
	}

	GetVoteMsg struct {
		LocationID uuid.UUID
		UserID     uuid.UUID
	}
)

// AggregateNotifier receives the fresh aggregate after every successful
// projection write. The websocket hub implements it.
type AggregateNotifier interface {
	NotifyAggregate(locationID uuid.UUID, agg models.TrustAggregate)
}

const (
	storeRetryAttempts = 3
	storeRetryBackoff  = 50 * time.Millisecond
)

// retryTransient runs op up to attempts times, backing off linearly between
// tries. Non-transient errors are returned immediately.
func retryTransient(attempts int, op func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = op(); err == nil || !utils.IsTransient(err) {
			return err
		}
		time.Sleep(storeRetryBackoff * time.Duration(i+1))
	}
	return err
}

// VoteSupervisor routes vote messages to a per-location child actor,
// spawning children on demand. One child per location means the
// recompute-and-write of a trust aggregate is never concurrent with itself:
// the mailbox is the per-key write queue.
type VoteSupervisor struct {
	store    database.Store
	metrics  *utils.MetricsCollector
	notifier AggregateNotifier
	children map[uuid.UUID]*actor.PID
}

func NewVoteSupervisor(store database.Store, metrics *utils.MetricsCollector, notifier AggregateNotifier) actor.Actor {
	return &VoteSupervisor{
		store:    store,
		metrics:  metrics,
		notifier: notifier,
		children: make(map[uuid.UUID]*actor.PID),
	}
}

func (s *VoteSupervisor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("VoteSupervisor started")
	case *CastVoteMsg:
		context.Forward(s.childFor(context, msg.LocationID))
	case *GetVoteMsg:
		context.Forward(s.childFor(context, msg.LocationID))
	}
}

func (s *VoteSupervisor) childFor(context actor.Context, locationID uuid.UUID) *actor.PID {
	if pid, exists := s.children[locationID]; exists {
		return pid
	}

	props := actor.PropsFromProducer(func() actor.Actor {
		return newLocationVoteActor(locationID, s.store, s.metrics, s.notifier)
	})
	pid := context.Spawn(props)
	s.children[locationID] = pid
	return pid
}

// locationVoteActor owns all vote mutations for a single location.
type locationVoteActor struct {
	locationID uuid.UUID
	store      database.Store
	metrics    *utils.MetricsCollector
	notifier   AggregateNotifier
}

func newLocationVoteActor(locationID uuid.UUID, store database.Store, metrics *utils.MetricsCollector, notifier AggregateNotifier) actor.Actor {
	return &locationVoteActor{
		locationID: locationID,
		store:      store,
		metrics:    metrics,
		notifier:   notifier,
	}
}

func (a *locationVoteActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *CastVoteMsg:
		a.handleCastVote(context, msg)
	case *GetVoteMsg:
		a.handleGetVote(context, msg)
	}
}

func (a *locationVoteActor) handleGetVote(context actor.Context, msg *GetVoteMsg) {
	vote, err := a.store.FindVote(stdctx.Background(), msg.UserID, msg.LocationID)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "failed to look up vote", err))
		return
	}
	// vote is nil when the user has not voted; respond with the typed
	// absent value rather than an error.
	context.Respond(vote)
}

// handleCastVote is the single mutation path for votes and trust
// aggregates: upsert the vote, recompute the aggregate from the full vote
// set, write it back onto the location projection.
func (a *locationVoteActor) handleCastVote(context actor.Context, msg *CastVoteMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewUnauthenticatedError("a signed-in user is required to vote"))
		return
	}
	if !msg.VoteType.IsValid() {
		context.Respond(utils.NewInvalidVoteError(string(msg.VoteType)))
		return
	}

	location, err := a.store.GetLocation(ctx, msg.LocationID)
	if err != nil {
		context.Respond(utils.NewLocationNotFoundError(msg.LocationID.String()))
		return
	}

	// Step 1: atomic conditional upsert on the (user, location) key. If the
	// retries exhaust nothing has been committed, so the caller can simply
	// try again.
	err = retryTransient(storeRetryAttempts, func() error {
		_, upsertErr := a.store.UpsertVote(ctx, msg.UserID, msg.LocationID, msg.VoteType)
		return upsertErr
	})
	if err != nil {
		log.Printf("VoteActor[%s]: vote upsert failed for user %s: %v", a.locationID, msg.UserID, err)
		a.metrics.IncrementErrors()
		context.Respond(utils.NewAppError(utils.ErrTransientStore, "vote could not be stored, try again", err))
		return
	}

	// Step 2: recompute-and-write, retried as one unit so each attempt
	// re-reads the authoritative vote set. The committed upsert is never
	// retried. If this exhausts, a durable vote exists with a stale
	// projection; log the divergence so a reconciliation pass can repair it.
	var agg models.TrustAggregate
	err = retryTransient(storeRetryAttempts, func() error {
		votes, listErr := a.store.ListVotesForLocation(ctx, msg.LocationID)
		if listErr != nil {
			return listErr
		}
		agg = trust.Compute(votes)
		return a.store.UpdateTrustAggregate(ctx, msg.LocationID, agg)
	})
	if err != nil {
		log.Printf("VoteActor[%s]: DIVERGENCE: vote committed but aggregate write failed: %v", a.locationID, err)
		a.metrics.IncrementErrors()
		context.Respond(utils.NewAppError(utils.ErrAggregationFailed, "vote recorded but trust score update failed", err))
		return
	}

	location.TrustAggregate = agg
	location.UpdatedAt = time.Now()

	if a.notifier != nil {
		a.notifier.NotifyAggregate(msg.LocationID, agg)
	}

	a.metrics.AddOperationLatency("cast_vote", time.Since(startTime))
	context.Respond(location)
}
