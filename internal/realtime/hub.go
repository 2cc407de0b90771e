package realtime

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var ErrHubClosed = errors.New("hub closed")

// Hub tracks connected clients and the task rooms they joined.
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	closed  bool

	// fanout serializes broadcasts so every member of a room sees events in
	// the order they were published.
	fanout sync.Mutex
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Hub{
		logger:  logger.Named("hub"),
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}

	h.clients[c] = struct{}{}

	return nil
}

func (h *Hub) Join(c *Client, taskID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	members, ok := h.rooms[taskID]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[taskID] = members
	}

	members[c] = struct{}{}
	c.rooms[taskID] = struct{}{}
	h.clients[c] = struct{}{}

	h.logger.Debug("client joined room", zap.String("client", c.ID), zap.String("user", c.UserID), zap.String("task", taskID))
}

func (h *Hub) LeaveRoom(c *Client, taskID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoom(c, taskID)
}

// Leave removes c from every room and forgets it.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for taskID := range c.rooms {
		h.removeFromRoom(c, taskID)
	}

	delete(h.clients, c)
}

func (h *Hub) removeFromRoom(c *Client, taskID string) {
	if members, ok := h.rooms[taskID]; ok {
		delete(members, c)

		if len(members) == 0 {
			delete(h.rooms, taskID)
		}
	}

	if _, ok := c.rooms[taskID]; ok {
		delete(c.rooms, taskID)
		h.logger.Debug("client left room", zap.String("client", c.ID), zap.String("task", taskID))
	}
}

// Broadcast sends event to every current member of the task's room. Members
// that cannot keep up are dropped and disconnected.
func (h *Hub) Broadcast(taskID, event string, data interface{}) {
	payload, err := json.Marshal(Event{Event: event, Data: data})

	if err != nil {
		h.logger.Error("failed to encode broadcast", zap.String("event", event), zap.Error(err))
		return
	}

	h.fanout.Lock()
	defer h.fanout.Unlock()

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[taskID]))
	for c := range h.rooms[taskID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		if c.enqueue(payload) {
			continue
		}

		h.logger.Warn("dropping slow client", zap.String("client", c.ID), zap.String("task", taskID))
		h.Leave(c)
		c.Close()
	}
}

func (h *Hub) RoomSize(taskID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[taskID])
}

// Close disconnects every client. Later Register calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
		c.rooms = make(map[string]struct{})
	}

	h.clients = make(map[*Client]struct{})
	h.rooms = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}

	h.logger.Info("hub closed", zap.Int("clients", len(clients)))
}
