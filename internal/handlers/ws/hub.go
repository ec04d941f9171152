package ws

import (
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/jp973/groupnotify-backend/internal/service"
)

// ClientConnection wraps a WebSocket connection with metadata
type ClientConnection struct {
	Conn       *websocket.Conn
	UserID     uint
	LastPong   time.Time
	PingTicker *time.Ticker
	CloseChan  chan struct{}
}

// Notification is the envelope pushed to connected clients.
type Notification struct {
	Type    string                      `json:"type"`
	Message string                      `json:"message"`
	Payload service.NotificationPayload `json:"payload"`
	Kind    string                      `json:"kind"`
}

// Hub manages all active WebSocket connections and group rooms. Delivery is
// fire-and-forget: an address without an attached connection is silently
// dropped, and write failures tear the connection down without surfacing an
// error to the sender.
type Hub struct {
	clients      map[uint]*ClientConnection
	rooms        map[string]map[uint]struct{} // room address -> member user IDs
	mu           sync.RWMutex
	pingInterval time.Duration
	pongTimeout  time.Duration
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	hub := &Hub{
		clients:      make(map[uint]*ClientConnection),
		rooms:        make(map[string]map[uint]struct{}),
		pingInterval: 30 * time.Second,
		pongTimeout:  90 * time.Second,
	}

	go hub.connectionHealthChecker()

	return hub
}

// Register adds a client connection with health monitoring
func (h *Hub) Register(userID uint, conn *websocket.Conn) {
	clientConn := &ClientConnection{
		Conn:       conn,
		UserID:     userID,
		LastPong:   time.Now(),
		PingTicker: time.NewTicker(h.pingInterval),
		CloseChan:  make(chan struct{}),
	}

	conn.SetPongHandler(func(appData string) error {
		h.mu.Lock()
		if client, exists := h.clients[userID]; exists {
			client.LastPong = time.Now()
		}
		h.mu.Unlock()
		conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
		return nil
	})
	conn.SetReadDeadline(time.Now().Add(h.pongTimeout))

	h.mu.Lock()
	h.clients[userID] = clientConn
	count := len(h.clients)
	h.mu.Unlock()

	go h.pingRoutine(clientConn)

	log.Printf("User %d connected to hub (total: %d)", userID, count)
}

// Unregister removes a client connection and its room memberships
func (h *Hub) Unregister(userID uint) {
	h.mu.Lock()
	if client, exists := h.clients[userID]; exists {
		if client.PingTicker != nil {
			client.PingTicker.Stop()
		}
		close(client.CloseChan)
	}
	delete(h.clients, userID)
	for room, members := range h.rooms {
		delete(members, userID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	count := len(h.clients)
	h.mu.Unlock()
	log.Printf("User %d disconnected from hub (total: %d)", userID, count)
}

// JoinRoom subscribes a connected user to a group-room address.
func (h *Hub) JoinRoom(room string, userID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, connected := h.clients[userID]; !connected {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[uint]struct{})
	}
	h.rooms[room][userID] = struct{}{}
}

// LeaveRoom unsubscribes a user from a room.
func (h *Hub) LeaveRoom(room string, userID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// IsOnline checks if a user is connected
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.clients[userID]
	return exists
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendNotification pushes an event to a logical address. For kind "user" the
// address is the decimal user id; for kind "group" it is the group-room
// address and every joined connection receives the event. No acknowledgment,
// no per-recipient delivery status.
func (h *Hub) SendNotification(address string, message string, payload service.NotificationPayload, kind string) {
	data, err := json.Marshal(Notification{
		Type:    "notification",
		Message: message,
		Payload: payload,
		Kind:    kind,
	})
	if err != nil {
		log.Printf("Error marshaling notification for %s: %v", address, err)
		return
	}

	switch kind {
	case service.AddressKindGroup:
		h.sendToRoom(address, data)
	default:
		userID, err := strconv.ParseUint(address, 10, 32)
		if err != nil {
			log.Printf("Invalid user address %q: %v", address, err)
			return
		}
		h.sendToUser(uint(userID), data)
	}
}

func (h *Hub) sendToUser(userID uint, data []byte) {
	h.mu.RLock()
	clientConn, exists := h.clients[userID]
	h.mu.RUnlock()

	if !exists {
		// Recipient not connected; notification dropped.
		return
	}

	if err := clientConn.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("Error sending notification to user %d: %v", userID, err)
		h.Unregister(userID)
	}
}

func (h *Hub) sendToRoom(room string, data []byte) {
	h.mu.RLock()
	memberIDs := make([]uint, 0, len(h.rooms[room]))
	for id := range h.rooms[room] {
		memberIDs = append(memberIDs, id)
	}
	conns := make(map[uint]*ClientConnection, len(memberIDs))
	for _, id := range memberIDs {
		if c, ok := h.clients[id]; ok {
			conns[id] = c
		}
	}
	h.mu.RUnlock()

	for userID, clientConn := range conns {
		if err := clientConn.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("Error sending to room %s member %d: %v", room, userID, err)
			h.Unregister(userID)
		}
	}
}

// pingRoutine sends periodic ping messages to keep connection alive
func (h *Hub) pingRoutine(client *ClientConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Ping routine recovered from panic for user %d: %v", client.UserID, r)
		}
	}()

	for {
		select {
		case <-client.CloseChan:
			return
		case <-client.PingTicker.C:
			h.mu.RLock()
			_, exists := h.clients[client.UserID]
			h.mu.RUnlock()
			if !exists {
				return
			}

			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				log.Printf("Ping failed for user %d: %v", client.UserID, err)
				h.Unregister(client.UserID)
				return
			}
		}
	}
}

// connectionHealthChecker monitors connection health and removes dead connections
func (h *Hub) connectionHealthChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.RLock()
		deadConnections := make([]uint, 0)
		now := time.Now()
		for userID, client := range h.clients {
			if now.Sub(client.LastPong) > h.pongTimeout {
				deadConnections = append(deadConnections, userID)
			}
		}
		h.mu.RUnlock()

		for _, userID := range deadConnections {
			log.Printf("Removing dead connection for user %d (no pong received)", userID)
			h.Unregister(userID)
		}
	}
}
