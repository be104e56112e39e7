package models

import "time"

// CustomerStatus is the lifecycle state of a customer record.
// Deleted is terminal; deleted rows keep their ids so ids are never reused.
type CustomerStatus string

const (
	CustomerStatusActive  CustomerStatus = "active"
	CustomerStatusDeleted CustomerStatus = "deleted"
)

type Customer struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	Phone        string         `json:"phone"`
	Email        string         `json:"email"`
	Address      string         `json:"address"`
	Due          float64        `json:"due"`
	Username     string         `json:"username"`
	PasswordHash string         `json:"-"` // never exposed
	Status       CustomerStatus `json:"status"`
	LastUpdate   time.Time      `json:"last_update"`
	CreatedAt    time.Time      `json:"created_at"`
}

// CreateCustomerRequest represents the request body for adding a customer
type CreateCustomerRequest struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Email   string  `json:"email"`
	Address string  `json:"address"`
	Due     float64 `json:"due"`
}

// UpdateDueRequest replaces the customer's outstanding due
type UpdateDueRequest struct {
	NewDue float64 `json:"new_due"`
}

// PartialPaymentRequest records an offline partial payment against the due
type PartialPaymentRequest struct {
	Amount float64 `json:"amount"`
}

// ResetCredentialsRequest rotates a customer's login credentials
type ResetCredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Credentials is returned once after generation or reset. The plaintext
// exists only for the outbound notification, never in the customer row.
type Credentials struct {
	Username      string `json:"username"`
	PlainPassword string `json:"plain_password"`
}

// DeletedSnapshot is the immutable view of a customer captured at deletion
// time, used for the audit entry and the farewell notification.
type DeletedSnapshot struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	Address    string    `json:"address"`
	Due        float64   `json:"due"`
	LastUpdate time.Time `json:"last_update"`
	DeletedAt  time.Time `json:"deleted_at"`
}

// DeleteAllResult reports a continue-on-error bulk deletion
type DeleteAllResult struct {
	Deleted  []*DeletedSnapshot `json:"deleted"`
	Failures []DeleteAllFailure `json:"failures,omitempty"`
}

type DeleteAllFailure struct {
	CustomerID int    `json:"customer_id"`
	Error      string `json:"error"`
}

// Summary holds the dashboard numbers for the admin panel
type Summary struct {
	TotalCustomers   int       `json:"total_customers"`
	TotalOutstanding float64   `json:"total_outstanding"`
	PaidCount        int       `json:"paid_count"`
	UnpaidCount      int       `json:"unpaid_count"`
	TopDebtors       []*Debtor `json:"top_debtors"`
}

type Debtor struct {
	Name string  `json:"name"`
	Due  float64 `json:"due"`
}
