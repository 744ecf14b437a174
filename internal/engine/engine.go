package engine

import (
	"green-map/internal/database"
	"green-map/internal/engine/actors"
	"green-map/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine wires up the actor hierarchy. The vote supervisor owns a child
// actor per location so that every recompute-and-write of a trust aggregate
// is serialized through that location's mailbox.
type Engine struct {
	system         *actor.ActorSystem
	voteSupervisor *actor.PID
	locationActor  *actor.PID
	reviewActor    *actor.PID
	userSupervisor *actor.PID
}

// NewEngine spawns the root actors. notifier may be nil when no live update
// fan-out is wanted (tests, simulator runs).
func NewEngine(system *actor.ActorSystem, store database.Store, metrics *utils.MetricsCollector, notifier actors.AggregateNotifier) *Engine {
	voteProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewVoteSupervisor(store, metrics, notifier)
	})
	locationProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewLocationActor(store, metrics)
	})
	reviewProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewReviewActor(store, metrics)
	})
	userProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewUserSupervisor(store)
	})

	return &Engine{
		system:         system,
		voteSupervisor: system.Root.Spawn(voteProps),
		locationActor:  system.Root.Spawn(locationProps),
		reviewActor:    system.Root.Spawn(reviewProps),
		userSupervisor: system.Root.Spawn(userProps),
	}
}

func (e *Engine) GetVoteSupervisor() *actor.PID { return e.voteSupervisor }
func (e *Engine) GetLocationActor() *actor.PID  { return e.locationActor }
func (e *Engine) GetReviewActor() *actor.PID    { return e.reviewActor }
func (e *Engine) GetUserSupervisor() *actor.PID { return e.userSupervisor }
