package models

import "time"

// CredentialReset archives one credential rotation for support purposes.
// The plaintext column is a deliberate, access-controlled exception: the
// admin reset-history endpoint is the only reader, and rows older than the
// configured retention window are purged at startup.
type CredentialReset struct {
	ID            int       `json:"id"`
	CustomerID    int       `json:"customer_id"`
	Name          string    `json:"name"`
	OldUsername   string    `json:"old_username"`
	NewUsername   string    `json:"new_username"`
	NewHash       string    `json:"-"`
	PlainPassword string    `json:"plain_password"`
	CreatedAt     time.Time `json:"created_at"`
}
