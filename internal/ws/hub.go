package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tbayconnect/api/internal/model"
)

const redisChannel = "tbayconnect:live"

// Hub manages all WebSocket subscribers for the live views: the event
// feed, creator location refreshes and device alerts. Subscribers get the
// full current state on every change; there is no diffing. Redis Pub/Sub
// fans events out across instances.
type Hub struct {
	// Map of userID -> set of client connections (one user can have multiple tabs/devices)
	clients map[uuid.UUID]map[*Client]bool
	mu      sync.RWMutex

	// Channels for registering/unregistering clients
	register   chan *Client
	unregister chan *Client

	// Redis client for Pub/Sub (horizontal scaling). Nil in in-memory
	// mode; events are then delivered to local clients directly.
	rdb *redis.Client
}

// NewHub creates a new WebSocket Hub
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
	}
}

// Run starts the Hub's main event loop
func (h *Hub) Run(ctx context.Context) {
	// Start Redis subscriber in a goroutine
	if h.rdb != nil {
		go h.subscribeRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// Register queues a client for registration with the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// addClient registers a new client connection
func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.UserID]; !ok {
		h.clients[client.UserID] = make(map[*Client]bool)
	}
	h.clients[client.UserID][client] = true
	log.Printf("✅ Client connected: %s (total connections: %d)", client.UserID, len(h.clients[client.UserID]))
}

// removeClient unregisters a client connection
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.UserID]; ok {
		// The send channel may already be closed by a full-buffer drop;
		// only close it if this client is still in the set.
		if _, open := clients[client]; open {
			delete(clients, client)
			close(client.send)
		}

		if len(clients) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	log.Printf("❌ Client disconnected: %s", client.UserID)
}

// BroadcastFeed pushes the full active-event snapshot to every subscriber
func (h *Hub) BroadcastFeed(events []model.Event) {
	h.publishToRedis(&TargetedEvent{
		Event: &model.WSEvent{
			Type:    model.WSEventFeedSnapshot,
			Payload: model.FeedSnapshotEvent{Events: events},
		},
	})
}

// BroadcastCreatorLocation pushes a creator-location refresh to everyone
func (h *Hub) BroadcastCreatorLocation(payload model.CreatorLocationEvent) {
	h.publishToRedis(&TargetedEvent{
		Event: &model.WSEvent{
			Type:    model.WSEventCreatorLocation,
			Payload: payload,
		},
	})
}

// SendToUser sends an event to a specific user (all their connections)
func (h *Hub) SendToUser(userID uuid.UUID, event *model.WSEvent) {
	// Publish to Redis so all instances can deliver
	h.publishToRedis(&TargetedEvent{
		TargetUserID: userID,
		Event:        event,
	})
}

// sendToLocalUser sends an event to a user on this instance only
func (h *Hub) sendToLocalUser(userID uuid.UUID, event *model.WSEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.clients[userID]; ok {
		data, err := json.Marshal(event)
		if err != nil {
			log.Printf("Error marshaling event: %v", err)
			return
		}
		for client := range clients {
			select {
			case client.send <- data:
			default:
				// Client's send buffer is full, close connection
				close(client.send)
				delete(clients, client)
			}
		}
	}
}

// broadcastToLocal sends an event to all connected local clients
func (h *Hub) broadcastToLocal(event *model.WSEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling broadcast event: %v", err)
		return
	}

	for _, clients := range h.clients {
		for client := range clients {
			select {
			case client.send <- data:
			default:
				close(client.send)
				delete(clients, client)
			}
		}
	}
}

// IsUserOnline checks if a user has any active connections on this instance
func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// ========== Redis Pub/Sub for Horizontal Scaling ==========

// TargetedEvent wraps an event with a target user ID for Redis Pub/Sub.
// A nil target means broadcast.
type TargetedEvent struct {
	TargetUserID uuid.UUID      `json:"target_user_id,omitempty"`
	Event        *model.WSEvent `json:"event"`
}

// publishToRedis publishes an event to Redis for cross-instance
// communication. Without Redis the event is delivered locally, which is
// correct for a single instance.
func (h *Hub) publishToRedis(targeted *TargetedEvent) {
	if h.rdb == nil {
		h.deliverLocal(targeted)
		return
	}

	jsonData, err := json.Marshal(targeted)
	if err != nil {
		log.Printf("Error marshaling for Redis: %v", err)
		return
	}

	if err := h.rdb.Publish(context.Background(), redisChannel, jsonData).Err(); err != nil {
		log.Printf("Error publishing to Redis: %v", err)
	}
}

// deliverLocal routes a targeted or broadcast event to this instance's clients
func (h *Hub) deliverLocal(targeted *TargetedEvent) {
	if targeted.TargetUserID != uuid.Nil {
		h.sendToLocalUser(targeted.TargetUserID, targeted.Event)
	} else if targeted.Event != nil {
		h.broadcastToLocal(targeted.Event)
	}
}

// subscribeRedis subscribes to Redis and delivers events to local clients
func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	log.Println("📡 Redis Pub/Sub subscriber started")

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch:
			var targeted TargetedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &targeted); err != nil {
				log.Printf("Error unmarshaling Redis message: %v", err)
				continue
			}

			h.deliverLocal(&targeted)
		}
	}
}
