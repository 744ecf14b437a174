package actors

import (
	stdctx "context"
	"log"
	"time"

	"green-map/internal/database"
	"green-map/internal/models"
	"green-map/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for location operations
type (
	CreateLocationMsg struct {
		Name         string
		Description  string
		Address      string
		Latitude     float64
		Longitude    float64
		ContactPhone string
		ContactEmail string
		CreatorID    uuid.UUID
	}

	GetLocationMsg struct {
		LocationID uuid.UUID
	}

	ListLocationsMsg struct{}

	GetCountsMsg struct{}
)

// LocationActor owns the location directory: creation and reads. The trust
// aggregate fields it writes at creation are the unvoted defaults; after
// that only the vote engine touches them.
type LocationActor struct {
	store   database.Store
	metrics *utils.MetricsCollector
}

func NewLocationActor(store database.Store, metrics *utils.MetricsCollector) actor.Actor {
	return &LocationActor{
		store:   store,
		metrics: metrics,
	}
}

func (a *LocationActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("LocationActor started")
	case *CreateLocationMsg:
		a.handleCreateLocation(context, msg)
	case *GetLocationMsg:
		a.handleGetLocation(context, msg)
	case *ListLocationsMsg:
		a.handleListLocations(context)
	case *GetCountsMsg:
		count, err := a.store.CountLocations(stdctx.Background())
		if err != nil {
			context.Respond(utils.NewAppError(utils.ErrDatabase, "failed to count locations", err))
			return
		}
		context.Respond(count)
	}
}

func (a *LocationActor) handleCreateLocation(context actor.Context, msg *CreateLocationMsg) {
	startTime := time.Now()

	if msg.Latitude < -90 || msg.Latitude > 90 || msg.Longitude < -180 || msg.Longitude > 180 {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "coordinates out of range", nil))
		return
	}

	now := time.Now()
	newLocation := &models.Location{
		ID:             uuid.New(),
		Name:           msg.Name,
		Description:    msg.Description,
		Address:        msg.Address,
		Latitude:       msg.Latitude,
		Longitude:      msg.Longitude,
		ContactPhone:   msg.ContactPhone,
		ContactEmail:   msg.ContactEmail,
		CreatorID:      msg.CreatorID,
		CreatedAt:      now,
		UpdatedAt:      now,
		IsVerified:     false,
		TrustAggregate: models.NewLocationAggregate(),
	}

	log.Printf("LocationActor: Creating location %s (%q)", newLocation.ID, newLocation.Name)

	if err := a.store.SaveLocation(stdctx.Background(), newLocation); err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "failed to save location", err))
		return
	}

	a.metrics.AddOperationLatency("create_location", time.Since(startTime))
	context.Respond(newLocation)
}

func (a *LocationActor) handleGetLocation(context actor.Context, msg *GetLocationMsg) {
	location, err := a.store.GetLocation(stdctx.Background(), msg.LocationID)
	if err != nil {
		if appErr, ok := err.(*utils.AppError); ok {
			context.Respond(appErr)
			return
		}
		context.Respond(utils.NewAppError(utils.ErrDatabase, "failed to get location", err))
		return
	}
	context.Respond(location)
}

func (a *LocationActor) handleListLocations(context actor.Context) {
	startTime := time.Now()

	locations, err := a.store.ListLocations(stdctx.Background())
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrDatabase, "failed to list locations", err))
		return
	}

	a.metrics.AddOperationLatency("list_locations", time.Since(startTime))
	context.Respond(locations)
}
