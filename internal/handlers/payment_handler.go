package handlers

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/jp973/groupnotify-backend/internal/httpx"
	"github.com/jp973/groupnotify-backend/internal/service"
)

// memberOrderAmount is the flat membership fee in paise.
const memberOrderAmount int64 = 200 * 100

type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateOrder handles POST /member/order.
func (h *PaymentHandler) CreateOrder(c *fiber.Ctx) error {
	if h.paymentService == nil {
		return httpx.ServiceUnavailable(c, "payments_unavailable", "Payments are not configured")
	}
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	order, err := h.paymentService.CreateOrder(c.Context(), userID, memberOrderAmount)
	if err != nil {
		log.Printf("Error creating order for user %d: %v", userID, err)
		return httpx.Internal(c, "create_order_failed")
	}
	return c.JSON(fiber.Map{"success": true, "order": order})
}

// VerifyOrder handles POST /member/verify: the checkout callback carrying the
// gateway signature.
func (h *PaymentHandler) VerifyOrder(c *fiber.Ctx) error {
	if h.paymentService == nil {
		return httpx.ServiceUnavailable(c, "payments_unavailable", "Payments are not configured")
	}
	var input struct {
		OrderID   string `json:"razorpay_order_id"`
		PaymentID string `json:"razorpay_payment_id"`
		Signature string `json:"razorpay_signature"`
	}
	if err := c.BodyParser(&input); err != nil {
		return httpx.BadRequest(c, "invalid_request_body", "Invalid request body")
	}

	if err := h.paymentService.VerifyCheckout(input.OrderID, input.PaymentID, input.Signature); err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			return httpx.BadRequest(c, "invalid_signature", "Invalid signature")
		}
		return httpx.NotFound(c, "order_not_found", err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "message": "Payment verified successfully"})
}

// Webhook handles POST /payments/webhook from the gateway.
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	if h.paymentService == nil {
		return httpx.ServiceUnavailable(c, "payments_unavailable", "Payments are not configured")
	}
	var event struct {
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity struct {
					ID      string `json:"id"`
					OrderID string `json:"order_id"`
					Status  string `json:"status"`
				} `json:"entity"`
			} `json:"payment"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(c.Body(), &event); err != nil {
		return httpx.BadRequest(c, "invalid_payload", "Invalid webhook payload")
	}

	entity := event.Payload.Payment.Entity
	if entity.OrderID == "" || entity.ID == "" {
		return httpx.BadRequest(c, "missing_data", "Missing payment or order_id in webhook payload")
	}

	if err := h.paymentService.ConfirmWebhook(entity.OrderID, entity.ID, entity.Status); err != nil {
		log.Printf("Webhook error for order %s: %v", entity.OrderID, err)
		return httpx.NotFound(c, "order_not_found", "Order not found")
	}
	return c.JSON(fiber.Map{"success": true})
}
