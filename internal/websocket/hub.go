package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"green-map/internal/models"
)

// AggregateUpdate is the payload pushed to clients watching a location.
type AggregateUpdate struct {
	LocationID uuid.UUID `json:"locationId"`
	Aggregate  models.TrustAggregate
}

// MarshalJSON flattens the aggregate so clients receive a single object.
func (u AggregateUpdate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type          string    `json:"type"`
		LocationID    uuid.UUID `json:"locationId"`
		IgniterVotes  int       `json:"igniterVotes"`
		ImposterVotes int       `json:"imposterVotes"`
		TotalVotes    int       `json:"totalVotes"`
		TrustScore    int       `json:"trustScore"`
	}{
		Type:          "trust_update",
		LocationID:    u.LocationID,
		IgniterVotes:  u.Aggregate.IgniterVotes,
		ImposterVotes: u.Aggregate.ImposterVotes,
		TotalVotes:    u.Aggregate.TotalVotes,
		TrustScore:    u.Aggregate.TrustScore,
	})
}

// publish routes an aggregate update to every client subscribed to its location.
type publish struct {
	LocationID uuid.UUID
	Payload    []byte
}

// subscription pairs a client with a location it wants updates for.
type subscription struct {
	Client     *Client
	LocationID uuid.UUID
}

// Hub maintains the set of active clients and routes trust-score updates
// to the clients watching each location.
type Hub struct {
	// Registered clients. Maps location ID to the set of watching clients.
	Watchers map[uuid.UUID]map[*Client]bool

	// Channel for publishing aggregate updates to watchers.
	Publish chan *publish

	// Subscribe and Unsubscribe requests from clients.
	Subscribe   chan *subscription
	Unsubscribe chan *subscription

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Mutex to protect concurrent access to the watcher map.
	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Publish:     make(chan *publish, 64),
		Subscribe:   make(chan *subscription),
		Unsubscribe: make(chan *subscription),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		Watchers:    make(map[uuid.UUID]map[*Client]bool),
	}
}

// Run starts the hub's processing loop.
func (h *Hub) Run() {
	log.Println("WebSocket Hub started.")
	for {
		select {
		case client := <-h.Register:
			log.Printf("WebSocket client connected: %p", client)

		case client := <-h.Unregister:
			h.mu.Lock()
			for locationID, watchers := range h.Watchers {
				if _, ok := watchers[client]; ok {
					delete(watchers, client)
					if len(watchers) == 0 {
						delete(h.Watchers, locationID)
					}
				}
			}
			h.mu.Unlock()
			close(client.Send)
			log.Printf("WebSocket client disconnected: %p", client)

		case sub := <-h.Subscribe:
			h.mu.Lock()
			if _, ok := h.Watchers[sub.LocationID]; !ok {
				h.Watchers[sub.LocationID] = make(map[*Client]bool)
			}
			h.Watchers[sub.LocationID][sub.Client] = true
			log.Printf("Client subscribed to location %s. Watchers: %d", sub.LocationID, len(h.Watchers[sub.LocationID]))
			h.mu.Unlock()

		case sub := <-h.Unsubscribe:
			h.mu.Lock()
			if watchers, ok := h.Watchers[sub.LocationID]; ok {
				delete(watchers, sub.Client)
				if len(watchers) == 0 {
					delete(h.Watchers, sub.LocationID)
				}
			}
			h.mu.Unlock()

		case update := <-h.Publish:
			h.mu.RLock()
			for client := range h.Watchers[update.LocationID] {
				select {
				case client.Send <- update.Payload:
				default:
					log.Printf("Send buffer full for a watcher of location %s. Update dropped for this client.", update.LocationID)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// NotifyAggregate pushes a fresh trust aggregate to every client watching
// the location. Called by the engine after each projection write.
func (h *Hub) NotifyAggregate(locationID uuid.UUID, agg models.TrustAggregate) {
	payload, err := json.Marshal(AggregateUpdate{LocationID: locationID, Aggregate: agg})
	if err != nil {
		log.Printf("Failed to marshal aggregate update for location %s: %v", locationID, err)
		return
	}
	select {
	case h.Publish <- &publish{LocationID: locationID, Payload: payload}:
	case <-time.After(1 * time.Second):
		log.Printf("Timeout queuing aggregate update for location %s. Hub might be busy or blocked.", locationID)
	}
}
