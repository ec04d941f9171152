package handlers

import (
	"log"

	"github.com/gofiber/websocket/v2"
	"github.com/jp973/groupnotify-backend/internal/handlers/ws"
	"github.com/jp973/groupnotify-backend/internal/service"
)

type WebSocketHandler struct {
	groupService *service.GroupService
	hub          *ws.Hub
}

func NewWebSocketHandler(groupService *service.GroupService, hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		groupService: groupService,
		hub:          hub,
	}
}

// GetHub returns the hub instance (useful for sending notifications from other handlers)
func (h *WebSocketHandler) GetHub() *ws.Hub {
	return h.hub
}

// HandleWebSocket registers the connection under the caller's user address
// and joins the group rooms of every approved group, then blocks reading
// until the client goes away. Clients send nothing meaningful today; the
// read loop exists to detect disconnects and answer pings.
func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID := c.Locals("userID").(uint)

	h.hub.Register(userID, c)
	defer h.hub.Unregister(userID)

	groupIDs, err := h.groupService.ApprovedGroupIDs(userID)
	if err != nil {
		log.Printf("Failed to load groups for user %d: %v", userID, err)
	} else {
		for _, id := range groupIDs {
			h.hub.JoinRoom(service.GroupRoomAddress(id), userID)
		}
	}

	log.Printf("User %d connected via WebSocket", userID)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			log.Printf("Error reading message from user %d: %v", userID, err)
			break
		}
	}

	log.Printf("User %d disconnected from WebSocket", userID)
}
