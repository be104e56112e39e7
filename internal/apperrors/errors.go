// Package apperrors defines the error taxonomy shared by services and
// handlers. Handlers map these to HTTP status codes; services wrap them
// with context via fmt.Errorf and %w.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: referenced entity absent, no side effect.
	ErrNotFound = errors.New("not found")

	// ErrValidation: bad input shape or range, user-correctable.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidAmount: a due or payment amount outside its allowed range.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrAmountExceedsDue: partial payment larger than the outstanding due.
	ErrAmountExceedsDue = errors.New("amount exceeds current due")

	// ErrAuth: login failed. Deliberately carries no detail.
	ErrAuth = errors.New("invalid username or password")

	// ErrGateway: the payment provider was unreachable or rejected the
	// request. No ledger side effect, safe to retry.
	ErrGateway = errors.New("payment gateway error")

	// ErrStorageUnavailable: the persistence layer failed mid-operation.
	// Fatal to the in-flight operation, surfaced to the caller.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrPostCaptureSync: money was captured by the gateway but the ledger
	// update failed. Must be escalated for reconciliation, never downgraded.
	ErrPostCaptureSync = errors.New("payment captured but ledger sync failed")
)

// DuplicateFieldError reports a uniqueness violation on create.
type DuplicateFieldError struct {
	Field string // "name", "phone" or "email"
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

// IsDuplicate reports whether err is a DuplicateFieldError.
func IsDuplicate(err error) bool {
	var d *DuplicateFieldError
	return errors.As(err, &d)
}
