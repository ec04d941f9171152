// Package payment holds the Razorpay HTTP client behind the service
// layer's PaymentGateway boundary.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/jp973/groupnotify-backend/internal/service"
)

const ordersEndpoint = "https://api.razorpay.com/v1/orders"

type RazorpayClient struct {
	keyID     string
	keySecret string
	client    *http.Client
}

// NewRazorpayClientFromEnv reads RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET.
// Returns nil when the keys are absent so callers can disable payments.
func NewRazorpayClientFromEnv() *RazorpayClient {
	keyID := os.Getenv("RAZORPAY_KEY_ID")
	keySecret := os.Getenv("RAZORPAY_KEY_SECRET")
	if keyID == "" || keySecret == "" {
		return nil
	}
	return NewRazorpayClient(keyID, keySecret)
}

func NewRazorpayClient(keyID, keySecret string) *RazorpayClient {
	return &RazorpayClient{
		keyID:     keyID,
		keySecret: keySecret,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// KeySecret exposes the secret used for checkout signature verification.
func (c *RazorpayClient) KeySecret() string {
	return c.keySecret
}

// CreateOrder opens an order on the gateway. Amount is in minor units.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*service.GatewayOrder, error) {
	body, err := json.Marshal(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ordersEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("razorpay returned %d: %s", resp.StatusCode, data)
	}

	var order service.GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("decode razorpay response: %w", err)
	}
	return &order, nil
}
