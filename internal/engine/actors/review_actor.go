package actors

import (
	stdctx "context"
	"log"
	"math"
	"time"

	"green-map/internal/database"
	"green-map/internal/models"
	"green-map/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for review and visit operations
type (
	AddReviewMsg struct {
		LocationID uuid.UUID
		UserID     uuid.UUID
		Rating     int
		Comment    string
	}

	GetReviewsMsg struct {
		LocationID uuid.UUID
	}

	RecordVisitMsg struct {
		LocationID uuid.UUID
		UserID     uuid.UUID
	}
)

// ReviewActor owns reviews and visits. Review stats on the location follow
// the same discipline as the trust aggregate: scan the authoritative review
// set and write the derived average back, serialized through this mailbox.
type ReviewActor struct {
	store   database.Store
	metrics *utils.MetricsCollector
}

func NewReviewActor(store database.Store, metrics *utils.MetricsCollector) actor.Actor {
	return &ReviewActor{
		store:   store,
		metrics: metrics,
	}
}

func (a *ReviewActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("ReviewActor started")
	case *AddReviewMsg:
		a.handleAddReview(context, msg)
	case *GetReviewsMsg:
		a.handleGetReviews(context, msg)
	case *RecordVisitMsg:
		a.handleRecordVisit(context, msg)
	}
}

func (a *ReviewActor) handleAddReview(context actor.Context, msg *AddReviewMsg) {
	startTime := time.Now()
	ctx := stdctx.Background()

	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewUnauthenticatedError("a signed-in user is required to review"))
		return
	}
	if msg.Rating < 1 || msg.Rating > 5 {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "rating must be between 1 and 5", nil))
		return
	}
	if _, err := a.store.GetLocation(ctx, msg.LocationID); err != nil {
		context.Respond(utils.NewLocationNotFoundError(msg.LocationID.String()))
		return
	}

	review := &models.Review{
		ID:          uuid.New(),
		LocationID:  msg.LocationID,
		UserID:      msg.UserID,
		Rating:      msg.Rating,
		Comment:     msg.Comment,
		CreatedAt:   time.Now(),
		IsModerated: false,
	}

	if err := a.store.SaveReview(ctx, review); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "failed to save review", err))
		return
	}

	// Recompute stats from the full review set rather than nudging counters.
	reviews, err := a.store.GetLocationReviews(ctx, msg.LocationID)
	if err != nil {
		log.Printf("ReviewActor: review saved but stats recompute failed for %s: %v", msg.LocationID, err)
		context.Respond(utils.NewAppError(utils.ErrAggregationFailed, "review recorded but rating update failed", err))
		return
	}

	var total int
	for _, r := range reviews {
		total += r.Rating
	}
	average := 0.0
	if len(reviews) > 0 {
		average = math.Round(float64(total)/float64(len(reviews))*10) / 10
	}

	if err := a.store.UpdateReviewStats(ctx, msg.LocationID, average, len(reviews)); err != nil {
		log.Printf("ReviewActor: review saved but stats write failed for %s: %v", msg.LocationID, err)
		context.Respond(utils.NewAppError(utils.ErrAggregationFailed, "review recorded but rating update failed", err))
		return
	}

	a.metrics.AddOperationLatency("add_review", time.Since(startTime))
	context.Respond(review)
}

func (a *ReviewActor) handleGetReviews(context actor.Context, msg *GetReviewsMsg) {
	reviews, err := a.store.GetLocationReviews(stdctx.Background(), msg.LocationID)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "failed to list reviews", err))
		return
	}
	context.Respond(reviews)
}

func (a *ReviewActor) handleRecordVisit(context actor.Context, msg *RecordVisitMsg) {
	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewUnauthenticatedError("a signed-in user is required to record a visit"))
		return
	}

	visit := &models.Visit{
		ID:         uuid.New(),
		LocationID: msg.LocationID,
		UserID:     msg.UserID,
		VisitedAt:  time.Now(),
	}

	if err := a.store.SaveVisit(stdctx.Background(), visit); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "failed to save visit", err))
		return
	}
	context.Respond(visit)
}
