package gateway

import (
	"context"
	"fmt"

	"dues-backend/internal/models"
	"dues-backend/internal/repositories"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayGateway implements PaymentGateway against the Razorpay Orders and
// Payments APIs. Credentials are resolved per call: the admin-managed
// settings store first, environment fallback second, so key rotation via
// the admin endpoint takes effect without a restart.
type RazorpayGateway struct {
	settingRepo  *repositories.SystemSettingRepository
	envKeyID     string
	envKeySecret string
}

func NewRazorpayGateway(keyID, keySecret string, settingRepo *repositories.SystemSettingRepository) *RazorpayGateway {
	return &RazorpayGateway{
		settingRepo:  settingRepo,
		envKeyID:     keyID,
		envKeySecret: keySecret,
	}
}

// credentials returns the current key pair (settings store first, env fallback)
func (g *RazorpayGateway) credentials(ctx context.Context) (keyID, keySecret string) {
	if setting, err := g.settingRepo.Get(ctx, models.SettingGatewayKeyID); err == nil && setting.SettingValue != "" {
		keyID = setting.SettingValue
	}
	if setting, err := g.settingRepo.Get(ctx, models.SettingGatewayKeySecret); err == nil && setting.SettingValue != "" {
		keySecret = setting.SettingValue
	}
	if keyID == "" {
		keyID = g.envKeyID
	}
	if keySecret == "" {
		keySecret = g.envKeySecret
	}
	return keyID, keySecret
}

func (g *RazorpayGateway) client(ctx context.Context) (*razorpay.Client, error) {
	keyID, keySecret := g.credentials(ctx)
	if keyID == "" || keySecret == "" {
		return nil, fmt.Errorf("gateway credentials not configured")
	}
	return razorpay.NewClient(keyID, keySecret), nil
}

// CreateOrder mints a Razorpay order with automatic capture enabled.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountMinor int, currency string, notes map[string]interface{}) (*Order, error) {
	client, err := g.client(ctx)
	if err != nil {
		return nil, err
	}

	orderData := map[string]interface{}{
		"amount":          amountMinor,
		"currency":        currency,
		"payment_capture": 1,
		"notes":           notes,
	}

	order, err := client.Order.Create(orderData, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order create: %w", err)
	}

	orderID, ok := order["id"].(string)
	if !ok || orderID == "" {
		return nil, fmt.Errorf("razorpay order create: response missing order id")
	}

	return &Order{
		OrderID:     orderID,
		AmountMinor: amountMinor,
		Currency:    currency,
	}, nil
}

// FetchPaymentStatus reports the strongest status among the payments made
// against an order. No payments yet means the order is still created.
func (g *RazorpayGateway) FetchPaymentStatus(ctx context.Context, orderID string) (Status, error) {
	client, err := g.client(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.Order.Payments(orderID, nil, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay payments fetch: %w", err)
	}

	items, _ := resp["items"].([]interface{})
	status := StatusCreated
	for _, item := range items {
		payment, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		switch s, _ := payment["status"].(string); Status(s) {
		case StatusCaptured:
			return StatusCaptured, nil
		case StatusFailed:
			status = StatusFailed
		case StatusAuthorized:
			if status != StatusFailed {
				status = StatusAuthorized
			}
		}
	}
	return status, nil
}
