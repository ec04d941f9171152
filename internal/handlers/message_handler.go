package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jp973/groupnotify-backend/internal/httpx"
	"github.com/jp973/groupnotify-backend/internal/service"
	"github.com/jp973/groupnotify-backend/internal/validation"
)

type MessageHandler struct {
	messageService *service.MessageService
	groupService   *service.GroupService
}

func NewMessageHandler(messageService *service.MessageService, groupService *service.GroupService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		groupService:   groupService,
	}
}

// SendMessage handles POST /user/messages: a direct user-to-user send.
func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input service.SendDirectInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	input.Message = validation.TrimAndLimit(input.Message, validation.MaxMessageLength())
	if input.ReceiverID == 0 || input.Message == "" {
		return httpx.BadRequest(c, "missing_fields", "receiver_id and message are required")
	}

	message, err := h.messageService.SendDirect(userID, input)
	if err != nil {
		return httpx.BadRequest(c, "send_message_failed", err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Message sent successfully",
		"data":    message.ToResponse(),
	})
}

// GetChatHistory handles GET /user/messages, optionally filtered to one peer.
func (h *MessageHandler) GetChatHistory(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var peerID *uint
	if s := c.Query("user_id"); s != "" {
		v, err := queryUint(s)
		if err != nil {
			return httpx.BadRequest(c, "invalid_user_id", "Invalid user_id")
		}
		peerID = &v
	}

	conversations, err := h.messageService.ChatHistory(userID, peerID)
	if err != nil {
		return httpx.Internal(c, "fetch_history_failed")
	}

	message := "Chat history grouped by user"
	if peerID != nil {
		message = "Chat history with user " + strconv.FormatUint(uint64(*peerID), 10)
	}
	return c.JSON(fiber.Map{"success": true, "message": message, "data": conversations})
}

// GetGroupFeed handles GET /user/groups/messages: admin broadcasts for the
// caller's approved groups. Scheduled messages stay hidden until due.
func (h *MessageHandler) GetGroupFeed(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	approvedIDs, err := h.groupService.ApprovedGroupIDs(userID)
	if err != nil {
		return httpx.Internal(c, "fetch_groups_failed")
	}

	targetIDs := approvedIDs
	if s := c.Query("group_id"); s != "" {
		requested, err := queryUint(s)
		if err != nil {
			return httpx.BadRequest(c, "invalid_group_id", "Invalid group_id")
		}
		if !containsID(approvedIDs, requested) {
			return httpx.Forbidden(c, "not_a_member", "You are not a member of this group or group not approved.")
		}
		targetIDs = []uint{requested}
	}

	views, err := h.messageService.GroupFeed(targetIDs, time.Now())
	if err != nil {
		return httpx.Internal(c, "fetch_messages_failed")
	}

	message := "Messages for your groups fetched successfully"
	if len(views) == 0 {
		message = "No messages found"
	}
	return c.JSON(fiber.Map{"success": true, "message": message, "data": views})
}

func queryUint(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
