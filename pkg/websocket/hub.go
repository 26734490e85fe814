package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"raddiwala/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hub tracks the open connections of every party. A party may hold several
// connections at once (phone and browser).
type Hub struct {
	parties    map[primitive.ObjectID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

type Message struct {
	Type      string            `json:"type"`
	PartyID   string            `json:"party_id,omitempty"`
	Timestamp int64             `json:"timestamp"`
	Data      map[string]string `json:"data,omitempty"`
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		parties:    make(map[primitive.ObjectID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Run owns registration until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	clients := h.parties[client.PartyID]
	if clients == nil {
		clients = make(map[*Client]bool)
		h.parties[client.PartyID] = clients
	}
	clients[client] = true
	client.enqueue(h.encode(&Message{
		Type:    "welcome",
		PartyID: client.PartyID.Hex(),
		Data:    map[string]string{"message": "Connected successfully"},
	}))
	h.mutex.Unlock()

	h.logger.WithPartyID(client.PartyID).WithField("role", client.Role).Debug("Live client connected")
}

func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	clients, ok := h.parties[client.PartyID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.parties, client.PartyID)
	}
	close(client.send)
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for partyID, clients := range h.parties {
		for client := range clients {
			close(client.send)
		}
		delete(h.parties, partyID)
	}
}

// SendToParty queues the message on every open connection of the party and
// reports how many connections took it. Connections with a full buffer are
// dropped.
func (h *Hub) SendToParty(partyID primitive.ObjectID, message *Message) int {
	data := h.encode(message)
	if data == nil {
		return 0
	}

	h.mutex.RLock()
	var delivered int
	var slow []*Client
	for client := range h.parties[partyID] {
		if client.enqueue(data) {
			delivered++
		} else {
			slow = append(slow, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range slow {
		h.unregisterClient(client)
	}
	return delivered
}

// Publish sends a typed event to the party's open connections.
func (h *Hub) Publish(partyID primitive.ObjectID, event string, data map[string]string) int {
	return h.SendToParty(partyID, &Message{Type: event, PartyID: partyID.Hex(), Data: data})
}

// Connected reports whether the party has at least one open connection.
func (h *Hub) Connected(partyID primitive.ObjectID) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.parties[partyID]) > 0
}

func (h *Hub) encode(message *Message) []byte {
	if message.Timestamp == 0 {
		message.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to encode live message")
		return nil
	}
	return data
}
