// internal/ws/hub.go
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is pushed to a contract owner's open sockets when analysis
// state changes server-side.
type Event struct {
	Type       string    `json:"type"`
	ContractID uuid.UUID `json:"contract_id"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

const (
	EventAnalysisStarted   = "analysis.started"
	EventAnalysisCompleted = "analysis.completed"
	EventAnalysisFailed    = "analysis.failed"
)

// Hub fans analysis events out to the owning user's connections.
// Delivery is best-effort; a user with no open socket misses nothing
// they cannot re-read over HTTP.
type Hub struct {
	clients map[uuid.UUID]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	events     chan targetedEvent
	done       chan struct{}

	logger *zap.Logger
}

type targetedEvent struct {
	userID uuid.UUID
	event  Event
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan targetedEvent, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case te := <-h.events:
			h.deliver(te)
		}
	}
}

// NotifyAnalysis queues an analysis status event for a user. Never
// blocks the caller; the event is dropped if the hub is saturated.
func (h *Hub) NotifyAnalysis(userID, contractID uuid.UUID, eventType, status string) {
	te := targetedEvent{
		userID: userID,
		event: Event{
			Type:       eventType,
			ContractID: contractID,
			Status:     status,
			Timestamp:  time.Now().UTC(),
		},
	}
	select {
	case h.events <- te:
	default:
		h.logger.Warn("event queue full, dropping analysis event",
			zap.String("user_id", userID.String()),
			zap.String("type", eventType))
	}
}

func (h *Hub) ConnectedClients(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.logger.Debug("websocket client connected",
		zap.String("user_id", client.userID.String()))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()
			if len(clients) == 0 {
				delete(h.clients, client.userID)
			}
		}
	}
}

func (h *Hub) deliver(te targetedEvent) {
	data, err := json.Marshal(te.event)
	if err != nil {
		h.logger.Error("failed to marshal event", zap.Error(err))
		return
	}

	h.mu.RLock()
	var slow []*Client
	for client := range h.clients[te.userID] {
		if !client.send(data) {
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	// Laggards are removed here, in the hub goroutine. Sending them
	// back through unregister would block its only receiver: this loop.
	for _, client := range slow {
		h.logger.Warn("dropping slow websocket consumer",
			zap.String("user_id", client.userID.String()))
		h.removeClient(client)
	}
}

// drop hands a client to the hub goroutine for removal. Returns
// immediately once the hub has shut down.
func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
	}
	h.clients = make(map[uuid.UUID]map[*Client]bool)
}
