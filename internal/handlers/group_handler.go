package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jp973/groupnotify-backend/internal/httpx"
	"github.com/jp973/groupnotify-backend/internal/service"
)

type GroupHandler struct {
	groupService *service.GroupService
}

func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// CreateGroup handles POST /admin/groups.
func (h *GroupHandler) CreateGroup(c *fiber.Ctx) error {
	adminID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input struct {
		GroupName string `json:"group_name"`
		MaxUsers  int    `json:"max_users"`
	}
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.GroupName == "" {
		return httpx.BadRequest(c, "missing_group_name", "group_name is required")
	}

	group, err := h.groupService.CreateGroup(input.GroupName, input.MaxUsers, adminID)
	if err != nil {
		return httpx.Internal(c, "create_group_failed")
	}
	return c.Status(fiber.StatusCreated).JSON(group.ToResponse())
}

// GetAdminGroups handles GET /admin/groups.
func (h *GroupHandler) GetAdminGroups(c *fiber.Ctx) error {
	adminID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	groups, err := h.groupService.GetAdminGroups(adminID)
	if err != nil {
		return httpx.Internal(c, "fetch_groups_failed")
	}
	return c.JSON(fiber.Map{"success": true, "data": groups})
}

// UpdateGroup handles PUT /admin/groups/:id.
func (h *GroupHandler) UpdateGroup(c *fiber.Ctx) error {
	adminID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}

	var input struct {
		GroupName string `json:"group_name"`
		MaxUsers  int    `json:"max_users"`
	}
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	group, err := h.groupService.UpdateGroup(groupID, adminID, input.GroupName, input.MaxUsers)
	if err != nil {
		if errors.Is(err, service.ErrNotGroupOwner) {
			return httpx.NotFound(c, "group_not_found", err.Error())
		}
		return httpx.Internal(c, "update_group_failed")
	}
	return c.JSON(group.ToResponse())
}

// DeleteGroup handles DELETE /admin/groups/:id.
func (h *GroupHandler) DeleteGroup(c *fiber.Ctx) error {
	adminID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_group_id", "Invalid group id")
	}

	if err := h.groupService.DeleteGroup(groupID, adminID); err != nil {
		if errors.Is(err, service.ErrNotGroupOwner) {
			return httpx.NotFound(c, "group_not_found", err.Error())
		}
		return httpx.Internal(c, "delete_group_failed")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Group deleted"})
}

// GetAvailableGroups handles GET /user/groups.
func (h *GroupHandler) GetAvailableGroups(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	groups, err := h.groupService.GetAvailableGroups(userID)
	if err != nil {
		return httpx.Internal(c, "fetch_groups_failed")
	}
	return c.JSON(fiber.Map{"success": true, "data": groups})
}

// RequestJoin handles POST /user/groups/join.
func (h *GroupHandler) RequestJoin(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	var input struct {
		GroupID uint `json:"group_id"`
	}
	if err := c.BodyParser(&input); err != nil || input.GroupID == 0 {
		return httpx.BadRequest(c, "missing_group_id", "group_id is required")
	}

	if err := h.groupService.RequestJoin(input.GroupID, userID); err != nil {
		if errors.Is(err, service.ErrAlreadyRequested) {
			return httpx.BadRequest(c, "already_requested", err.Error())
		}
		return httpx.BadRequest(c, "join_request_failed", err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "message": "Join request sent successfully"})
}

// GetApprovedGroups handles GET /user/groups/approved.
func (h *GroupHandler) GetApprovedGroups(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	requests, err := h.groupService.ApprovedGroups(userID)
	if err != nil {
		return httpx.Internal(c, "fetch_groups_failed")
	}

	type approvedGroup struct {
		GroupID   uint   `json:"group_id"`
		GroupName string `json:"group_name"`
	}
	data := make([]approvedGroup, 0, len(requests))
	for _, r := range requests {
		data = append(data, approvedGroup{GroupID: r.GroupID, GroupName: r.Group.Name})
	}

	message := "Approved groups retrieved successfully"
	if len(data) == 0 {
		message = "Your group approval is pending"
	}
	return c.JSON(fiber.Map{"success": true, "message": message, "data": data})
}

// GetJoinRequests handles GET /admin/groups/requests.
func (h *GroupHandler) GetJoinRequests(c *fiber.Ctx) error {
	adminID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	requests, err := h.groupService.PendingRequests(adminID)
	if err != nil {
		return httpx.Internal(c, "fetch_requests_failed")
	}
	return c.JSON(fiber.Map{"success": true, "data": requests})
}

// HandleJoinRequest handles PUT /admin/groups/join-request/:id/action.
func (h *GroupHandler) HandleJoinRequest(c *fiber.Ctx) error {
	adminID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	requestID, err := paramUint(c, "id")
	if err != nil {
		return httpx.BadRequest(c, "invalid_request_id", "Invalid request id")
	}

	var input struct {
		Action string `json:"action"` // "approve" or "reject"
	}
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.Action != "approve" && input.Action != "reject" {
		return httpx.BadRequest(c, "invalid_action", "action must be approve or reject")
	}

	if err := h.groupService.HandleJoinRequest(requestID, adminID, input.Action == "approve"); err != nil {
		if errors.Is(err, service.ErrGroupFull) {
			return httpx.BadRequest(c, "group_full", err.Error())
		}
		if errors.Is(err, service.ErrNotGroupOwner) {
			return httpx.NotFound(c, "group_not_found", err.Error())
		}
		return httpx.BadRequest(c, "handle_request_failed", err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "message": "Join request " + input.Action + "d"})
}

func paramUint(c *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
