package models

import "time"

// ReconciliationTask records a payment the gateway captured but the ledger
// could not absorb. Tasks are durable and must be replayed or resolved
// manually; they are never silently discarded.
type ReconciliationTask struct {
	ID         int        `json:"id"`
	OrderID    string     `json:"order_id"`
	CustomerID int        `json:"customer_id"`
	Amount     float64    `json:"amount"`
	Reason     string     `json:"reason"`
	Resolved   bool       `json:"resolved"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}
