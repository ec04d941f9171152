package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jp973/groupnotify-backend/internal/httpx"
	"github.com/jp973/groupnotify-backend/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input service.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.Email == "" || input.Password == "" || input.Username == "" {
		return httpx.BadRequest(c, "missing_fields", "Email, username, and password are required")
	}

	result, err := h.authService.Register(input)
	if err != nil {
		return httpx.BadRequest(c, "register_failed", err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input service.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}
	if input.Email == "" || input.Password == "" {
		return httpx.BadRequest(c, "missing_fields", "Email and password are required")
	}

	result, err := h.authService.Login(input)
	if err != nil {
		return httpx.Unauthorized(c, "login_failed", err.Error())
	}
	return c.JSON(result)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&input); err != nil || input.RefreshToken == "" {
		return httpx.BadRequest(c, "missing_refresh_token", "refresh_token is required")
	}

	result, err := h.authService.Refresh(input.RefreshToken)
	if err != nil {
		return httpx.Unauthorized(c, "refresh_failed", err.Error())
	}
	return c.JSON(result)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&input); err != nil || input.RefreshToken == "" {
		return httpx.BadRequest(c, "missing_refresh_token", "refresh_token is required")
	}

	if err := h.authService.Logout(input.RefreshToken); err != nil {
		return httpx.Internal(c, "logout_failed")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Logged out successfully"})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&input); err != nil || input.Email == "" {
		return httpx.BadRequest(c, "missing_email", "email is required")
	}

	if err := h.authService.ForgotPassword(input.Email); err != nil {
		return httpx.Internal(c, "forgot_password_failed")
	}
	// Deliberately identical for unknown addresses.
	return c.JSON(fiber.Map{"success": true, "message": "If the email exists, an OTP has been sent."})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var input struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	if err := h.authService.ResetPassword(input.Email, input.OTP, input.NewPassword); err != nil {
		return httpx.BadRequest(c, "reset_failed", err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "message": "Password has been reset successfully."})
}
