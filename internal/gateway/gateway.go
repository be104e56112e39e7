// Package gateway abstracts the external payment provider behind a small
// adapter so the payment session manager can be driven by a stub in tests.
package gateway

import "context"

// Status values reported by the provider for a payment attempt.
type Status string

const (
	StatusCreated    Status = "created"
	StatusAuthorized Status = "authorized"
	StatusCaptured   Status = "captured"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

// Order is the provider-side session minted for one collect attempt.
type Order struct {
	OrderID     string
	AmountMinor int
	Currency    string
}

// PaymentGateway mints orders and reports payment status. Amounts cross
// this boundary in minor currency units (paise).
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountMinor int, currency string, notes map[string]interface{}) (*Order, error)
	FetchPaymentStatus(ctx context.Context, orderID string) (Status, error)
}

// ToMinorUnits converts a rupee amount to paise. Rounding (not truncation)
// so 99.995 becomes 10000, never 9999.
func ToMinorUnits(amount float64) int {
	if amount < 0 {
		return 0
	}
	return int(amount*100 + 0.5)
}
