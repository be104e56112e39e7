package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"dues-backend/internal/apperrors"
	"dues-backend/internal/auth"
	"dues-backend/internal/cache"
	"dues-backend/internal/mail"
	"dues-backend/internal/models"
	"dues-backend/internal/repositories"
	"dues-backend/internal/timeutil"
)

const (
	usernameLength = 8
	passwordLength = 8

	usernameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// CredentialResetStore archives credential rotations.
type CredentialResetStore interface {
	Append(ctx context.Context, c *models.CredentialReset) error
	ListByCustomer(ctx context.Context, customerID int) ([]*models.CredentialReset, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// GenerateCredentials mints a random 8-character lowercase username and an
// 8-character mixed-case password from crypto/rand.
func GenerateCredentials() (*models.Credentials, error) {
	username, err := randomString(usernameAlphabet, usernameLength)
	if err != nil {
		return nil, err
	}
	password, err := randomString(passwordAlphabet, passwordLength)
	if err != nil {
		return nil, err
	}
	return &models.Credentials{Username: username, PlainPassword: password}, nil
}

func randomString(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}

// CredentialService handles customer logins and credential rotation.
type CredentialService struct {
	customers CustomerStore
	resets    CredentialResetStore
	audits    AuditStore
	notifier  mail.Notifier
	locks     *accountLocks

	retention time.Duration
}

// NewCredentialService builds the service on top of the ledger's stores.
// Rotation mutates the customer row, so it shares the ledger's per-account
// lock registry and serializes with due mutations and deletions.
func NewCredentialService(ledger *LedgerService, resets CredentialResetStore, notifier mail.Notifier, retentionDays int) *CredentialService {
	return &CredentialService{
		customers: ledger.customers,
		resets:    resets,
		audits:    ledger.audits,
		notifier:  notifier,
		locks:     ledger.locks,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Authenticate verifies a customer login. A verified login is cached for a
// short window so repeated portal requests skip the bcrypt compare; the
// cache never stores the plaintext. Failures always report the same error.
func (s *CredentialService) Authenticate(ctx context.Context, username, password string) (*models.Customer, error) {
	if username == "" || password == "" {
		return nil, apperrors.ErrAuth
	}

	if customerID, ok := cache.GetCachedAuth(ctx, username, password); ok {
		customer, err := s.customers.GetActive(ctx, customerID)
		if err == nil && customer.Username == username {
			return customer, nil
		}
		// Stale cache entry, fall through to the real check.
	}

	customer, err := s.customers.GetActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNoRows) {
			return nil, apperrors.ErrAuth
		}
		return nil, fmt.Errorf("%w: lookup login: %v", apperrors.ErrStorageUnavailable, err)
	}
	if !auth.VerifyPassword(customer.PasswordHash, password) {
		return nil, apperrors.ErrAuth
	}

	cache.CacheAuth(ctx, username, password, customer.ID)
	return customer, nil
}

// ResetCredentials rotates a customer's username and password. Callers may
// supply the new pair explicitly or leave both empty to have one generated.
// The fresh plaintext is archived for the admin reset-history view, appended
// to the audit stream and mailed to the customer.
func (s *CredentialService) ResetCredentials(ctx context.Context, customerID int, username, password string) (*models.Credentials, error) {
	l := s.locks.lock(customerID)
	defer l.Unlock()

	customer, err := s.customers.GetActive(ctx, customerID)
	if err != nil {
		return nil, translateStoreErr(err, "get customer")
	}

	var creds *models.Credentials
	switch {
	case username == "" && password == "":
		creds, err = GenerateCredentials()
		if err != nil {
			return nil, fmt.Errorf("generate credentials: %w", err)
		}
	case username != "" && password != "":
		if other, err := s.customers.GetActiveByUsername(ctx, username); err == nil && other.ID != customerID {
			return nil, &apperrors.DuplicateFieldError{Field: "username"}
		}
		creds = &models.Credentials{Username: username, PlainPassword: password}
	default:
		return nil, fmt.Errorf("%w: username and password must both be provided or both omitted", apperrors.ErrValidation)
	}
	hash, err := auth.HashPassword(creds.PlainPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := timeutil.Now()
	if err := s.customers.UpdateCredentials(ctx, customerID, creds.Username, hash, now); err != nil {
		return nil, translateStoreErr(err, "update credentials")
	}

	reset := &models.CredentialReset{
		CustomerID:    customer.ID,
		Name:          customer.Name,
		OldUsername:   customer.Username,
		NewUsername:   creds.Username,
		NewHash:       hash,
		PlainPassword: creds.PlainPassword,
		CreatedAt:     now,
	}
	if err := s.resets.Append(ctx, reset); err != nil {
		log.Printf("[Credentials] reset archive failed for customer %d: %v", customer.ID, err)
	}

	customer.Username = creds.Username
	customer.PasswordHash = hash
	customer.LastUpdate = now

	entry := &models.AuditEntry{
		Kind:       models.AuditKindCredentialsReset,
		CustomerID: customer.ID,
		Name:       customer.Name,
		Phone:      customer.Phone,
		Email:      customer.Email,
		Address:    customer.Address,
		Due:        customer.Due,
		Status:     string(customer.Status),
		CreatedAt:  now,
	}
	if err := s.audits.Append(ctx, entry); err != nil {
		log.Printf("[Credentials] audit append failed for customer %d: %v", customer.ID, err)
	}

	if s.notifier != nil {
		body := fmt.Sprintf("Hello %s,\n\nYour login credentials have been reset.\n\nUsername: %s\nPassword: %s\n\nIf you did not request this, please contact the shop.",
			customer.Name, creds.Username, creds.PlainPassword)
		if err := s.notifier.Send(customer.Email, "Credentials reset", body, customer.ID); err != nil {
			log.Printf("[Credentials] notification failed for customer %d: %v", customer.ID, err)
		}
	}

	return creds, nil
}

// ResetHistory returns a customer's archived rotations, newest first.
func (s *CredentialService) ResetHistory(ctx context.Context, customerID int) ([]*models.CredentialReset, error) {
	resets, err := s.resets.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: reset history: %v", apperrors.ErrStorageUnavailable, err)
	}
	return resets, nil
}

// PurgeExpiredHistory drops archived plaintext older than the retention
// window. Runs once at startup.
func (s *CredentialService) PurgeExpiredHistory(ctx context.Context) {
	cutoff := timeutil.Now().Add(-s.retention)
	purged, err := s.resets.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("[Credentials] reset history purge failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("[Credentials] purged %d expired reset history rows", purged)
	}
}
