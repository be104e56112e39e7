package models

import "time"

// AuditKind partitions the append-only audit stream by operation.
type AuditKind string

const (
	AuditKindAdded            AuditKind = "added"
	AuditKindUpdated          AuditKind = "updated"
	AuditKindPartial          AuditKind = "partial"
	AuditKindDeleted          AuditKind = "deleted"
	AuditKindCredentialsReset AuditKind = "credentials_reset"
	AuditKindPayment          AuditKind = "payment"
)

// ValidAuditKinds lists every stream, for handlers that select by kind.
var ValidAuditKinds = []AuditKind{
	AuditKindAdded,
	AuditKindUpdated,
	AuditKindPartial,
	AuditKindDeleted,
	AuditKindCredentialsReset,
	AuditKindPayment,
}

// AuditEntry is an immutable record of one mutation: the customer snapshot
// at mutation time plus the mutation's delta. Entries are append-only and
// never rewritten or deleted.
type AuditEntry struct {
	ID   int       `json:"id"`
	Kind AuditKind `json:"kind"`

	// Customer snapshot at mutation time
	CustomerID int     `json:"customer_id"`
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Email      string  `json:"email"`
	Address    string  `json:"address"`
	Due        float64 `json:"due"`
	Status     string  `json:"status"`

	// Mutation delta (meaning depends on Kind)
	UpdatedDue *float64 `json:"updated_due,omitempty"` // updated: the new due
	PartialDue *float64 `json:"partial_due,omitempty"` // partial: due after payment
	PaidAmount *float64 `json:"paid_amount,omitempty"`  // partial/payment: amount received
	OrderID    string   `json:"order_id,omitempty"`     // payment: gateway order id

	CreatedAt time.Time `json:"created_at"`
}
