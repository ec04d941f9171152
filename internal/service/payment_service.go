package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jp973/groupnotify-backend/internal/models"
	"github.com/jp973/groupnotify-backend/internal/repository"
)

var ErrInvalidSignature = errors.New("invalid payment signature")

// GatewayOrder is the external gateway's view of a created order.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// PaymentGateway is the boundary to the external payment provider.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error)
}

type PaymentService struct {
	orderRepo repository.OrderRepositoryInterface
	gateway   PaymentGateway
	keySecret string
}

func NewPaymentService(orderRepo repository.OrderRepositoryInterface, gateway PaymentGateway, keySecret string) *PaymentService {
	return &PaymentService{
		orderRepo: orderRepo,
		gateway:   gateway,
		keySecret: keySecret,
	}
}

// CreateOrder opens a gateway order for the member and records it unpaid.
// Amount is in minor units (paise).
func (s *PaymentService) CreateOrder(ctx context.Context, userID uint, amount int64) (*GatewayOrder, error) {
	if amount <= 0 {
		return nil, errors.New("amount must be positive")
	}

	receipt := "receipt_" + uuid.NewString()
	gwOrder, err := s.gateway.CreateOrder(ctx, amount, "INR", receipt)
	if err != nil {
		return nil, fmt.Errorf("gateway order failed: %w", err)
	}

	order := &models.Order{
		UserID:         userID,
		GatewayOrderID: gwOrder.ID,
		Receipt:        receipt,
		Amount:         amount,
		Currency:       gwOrder.Currency,
		Status:         models.OrderCreated,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}
	return gwOrder, nil
}

// VerifyCheckout validates the checkout callback signature and marks the
// order paid. The signature is HMAC-SHA256 of "orderID|paymentID" under the
// gateway key secret.
func (s *PaymentService) VerifyCheckout(orderID, paymentID, signature string) error {
	if !s.verifySignature(orderID, paymentID, signature) {
		return ErrInvalidSignature
	}
	if _, err := s.orderRepo.FindByGatewayOrderID(orderID); err != nil {
		return errors.New("order not found")
	}
	return s.orderRepo.MarkPaid(orderID, paymentID, models.OrderCaptured)
}

// ConfirmWebhook applies a gateway webhook event to the matching order.
func (s *PaymentService) ConfirmWebhook(orderID, paymentID, status string) error {
	if orderID == "" || paymentID == "" {
		return errors.New("missing order_id or payment id")
	}
	if _, err := s.orderRepo.FindByGatewayOrderID(orderID); err != nil {
		return errors.New("order not found")
	}

	orderStatus := models.OrderFailed
	if status == "captured" {
		orderStatus = models.OrderCaptured
	}
	return s.orderRepo.MarkPaid(orderID, paymentID, orderStatus)
}

func (s *PaymentService) verifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
