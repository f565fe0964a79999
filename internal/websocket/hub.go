package websocket

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/modwarden/backend/internal/cache"
	"github.com/modwarden/backend/internal/models"
	"github.com/rs/zerolog/log"
)

// Hub maintains the set of connected dashboard clients and fans moderation
// events out to them. Events arrive over the Redis channel so every server
// instance sees the bot's activity regardless of which instance runs it.
type Hub struct {
	// Registered clients
	clients map[uuid.UUID]*Client

	// Outbound events to all clients
	broadcast chan []byte

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Redis client for pub/sub
	redis *cache.RedisClient

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// NewHub creates a new Hub
func NewHub(redis *cache.RedisClient) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		redis:      redis,
	}
}

// Run starts the hub
func (h *Hub) Run() {
	go h.subscribeToRedis()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.operatorID] = client
			h.mu.Unlock()

			log.Info().Str("operator_id", client.operatorID.String()).Msg("dashboard client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.operatorID]; ok {
				delete(h.clients, client.operatorID)
				close(client.send)
			}
			h.mu.Unlock()

			log.Info().Str("operator_id", client.operatorID.String()).Msg("dashboard client disconnected")

		case message := <-h.broadcast:
			// Full lock: slow clients get dropped from the map here.
			h.mu.Lock()
			for _, client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client.operatorID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// subscribeToRedis forwards published moderation events to connected clients
func (h *Hub) subscribeToRedis() {
	pubsub := h.redis.SubscribeModEvents()
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var event models.ModEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Warn().Err(err).Msg("dropping malformed mod event")
			continue
		}

		data, err := json.Marshal(models.WSMessage{
			Event:   models.WSEventModEvent,
			Payload: event,
		})
		if err != nil {
			continue
		}
		h.broadcast <- data
	}
}

// SendToOperator sends a message to a specific connected operator
func (h *Hub) SendToOperator(operatorID uuid.UUID, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mu.RLock()
	client, ok := h.clients[operatorID]
	h.mu.RUnlock()

	if ok {
		select {
		case client.send <- data:
		default:
			// Client's send channel is full, skip
		}
	}

	return nil
}

// Broadcast sends a message to every connected operator
func (h *Hub) Broadcast(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Client's send channel is full, skip
		}
	}

	return nil
}

// ConnectedOperators returns the list of connected operator IDs
func (h *Hub) ConnectedOperators() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	operatorIDs := make([]uuid.UUID, 0, len(h.clients))
	for operatorID := range h.clients {
		operatorIDs = append(operatorIDs, operatorID)
	}

	return operatorIDs
}
