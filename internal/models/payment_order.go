package models

import "time"

// PaymentOrderStatus is the lifecycle state of one UPI payment attempt.
type PaymentOrderStatus string

const (
	PaymentStatusCreated  PaymentOrderStatus = "created"
	PaymentStatusPending  PaymentOrderStatus = "pending"
	PaymentStatusCaptured PaymentOrderStatus = "captured"
	PaymentStatusFailed   PaymentOrderStatus = "failed"
	PaymentStatusExpired  PaymentOrderStatus = "expired"
)

// IsTerminal reports whether the status can no longer change.
func (s PaymentOrderStatus) IsTerminal() bool {
	return s == PaymentStatusCaptured || s == PaymentStatusFailed || s == PaymentStatusExpired
}

// PaymentOrder tracks a Razorpay order from creation until a terminal
// status. Captured orders are kept as the transaction history.
type PaymentOrder struct {
	ID            int                `json:"id"`
	OrderID       string             `json:"order_id"` // Razorpay order id
	CustomerID    int                `json:"customer_id"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	Amount        float64            `json:"amount"` // rupees
	UPIID         string             `json:"upi_id"`
	Status        PaymentOrderStatus `json:"status"`
	PollAttempts  int                `json:"poll_attempts"`
	FailureReason string             `json:"failure_reason,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	CompletedAt   *time.Time         `json:"completed_at,omitempty"`
}

// CreatePaymentOrderRequest initiates a UPI collect payment for the
// caller's full outstanding due.
type CreatePaymentOrderRequest struct {
	Amount float64 `json:"amount"`
	UPIID  string  `json:"upi_id"`
}

// CreatePaymentOrderResponse is returned to the paying customer.
type CreatePaymentOrderResponse struct {
	OrderID  string             `json:"order_id"`
	Status   PaymentOrderStatus `json:"status"`
	Amount   int                `json:"amount"` // paise
	Currency string             `json:"currency"`
}

// PaymentOrderStatusResponse is the polling view of an order.
type PaymentOrderStatusResponse struct {
	OrderID string             `json:"order_id"`
	Status  PaymentOrderStatus `json:"status"`
}
