package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jp973/groupnotify-backend/internal/httpx"
	"github.com/jp973/groupnotify-backend/internal/service"
	"github.com/jp973/groupnotify-backend/internal/validation"
)

// NotificationHandler exposes the admin broadcast endpoints: notify every
// owned group, notify one group (immediately or at a scheduled time) and list
// sent notifications.
type NotificationHandler struct {
	dispatch *service.NotificationService
}

func NewNotificationHandler(dispatch *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{dispatch: dispatch}
}

type broadcastRequest struct {
	Message       string `json:"message"`
	FileName      string `json:"fileName"`
	ScheduledTime string `json:"scheduledTime"`
}

func (r *broadcastRequest) toInput() (service.BroadcastInput, error) {
	scheduled, err := validation.ParseScheduledTime(r.ScheduledTime)
	if err != nil {
		return service.BroadcastInput{}, fmt.Errorf("invalid scheduledTime: %w", err)
	}
	return service.BroadcastInput{
		Message:       validation.TrimAndLimit(r.Message, validation.MaxMessageLength()),
		FileName:      r.FileName,
		ScheduledTime: scheduled,
	}, nil
}

// NotifyAllGroups handles POST /admin/groups/notify. Always immediate.
func (h *NotificationHandler) NotifyAllGroups(c *fiber.Ctx) error {
	adminID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var req broadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if req.Message == "" && req.FileName == "" {
		return httpx.BadRequest(c, "missing_content", "Message or fileName is required.")
	}

	input, err := req.toInput()
	if err != nil {
		return httpx.BadRequest(c, "invalid_scheduled_time", err.Error())
	}
	input.ScheduledTime = nil // broadcast-to-all has no scheduling

	notified, err := h.dispatch.NotifyAllGroups(adminID, input)
	if err != nil {
		return httpx.BadRequest(c, "notify_failed", err.Error())
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Socket notification sent to %d approved users.", notified),
	})
}

// NotifyGroup handles POST /admin/groups/:id/notify. A scheduledTime in the
// request defers delivery to the scheduler; the response then only confirms
// acceptance, not delivery.
func (h *NotificationHandler) NotifyGroup(c *fiber.Ctx) error {
	adminID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}

	var req broadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if req.Message == "" && req.FileName == "" {
		return httpx.BadRequest(c, "missing_content", "Message or fileName is required.")
	}

	input, err := req.toInput()
	if err != nil {
		return httpx.BadRequest(c, "invalid_scheduled_time", err.Error())
	}

	msg, err := h.dispatch.NotifyGroup(adminID, groupID, input)
	if err != nil {
		return httpx.BadRequest(c, "notify_failed", err.Error())
	}

	if msg.ScheduledTime != nil {
		return c.JSON(fiber.Map{
			"success": true,
			"message": fmt.Sprintf("Notification scheduled for %s.", msg.ScheduledTime.Format(time.RFC3339)),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Notification sent to group %s.", msg.GroupName),
	})
}

// GetGroupNotifications handles GET /admin/groups/notifications.
func (h *NotificationHandler) GetGroupNotifications(c *fiber.Ctx) error {
	adminID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var groupID *uint
	if s := c.Query("group_id"); s != "" {
		v, err := queryUint(s)
		if err != nil {
			return httpx.BadRequest(c, "invalid_group_id", "Invalid group_id")
		}
		groupID = &v
	}

	views, total, err := h.dispatch.ListGroupNotifications(adminID, groupID)
	if err != nil {
		return httpx.Internal(c, "fetch_notifications_failed")
	}

	message := "Group notifications fetched."
	if len(views) == 0 {
		message = "No notifications found."
	}
	return c.JSON(fiber.Map{
		"success":                  true,
		"message":                  message,
		"totalMessagesSentByAdmin": total,
		"data":                     views,
	})
}
