package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"sync"
	"time"

	"dues-backend/internal/apperrors"
	"dues-backend/internal/auth"
	"dues-backend/internal/mail"
	"dues-backend/internal/models"
	"dues-backend/internal/repositories"
	"dues-backend/internal/timeutil"
)

// CustomerStore is the persistence contract for customer rows. The pgx
// repository satisfies it in production; tests use an in-memory fake.
type CustomerStore interface {
	Create(ctx context.Context, c *models.Customer) error
	NextID(ctx context.Context) (int, error)
	GetActive(ctx context.Context, id int) (*models.Customer, error)
	GetActiveByUsername(ctx context.Context, username string) (*models.Customer, error)
	ListActive(ctx context.Context) ([]*models.Customer, error)
	FindDuplicateField(ctx context.Context, name, phone, email string) (string, error)
	UpdateDue(ctx context.Context, id int, due float64, at time.Time) error
	UpdateCredentials(ctx context.Context, id int, username, passwordHash string, at time.Time) error
	MarkDeleted(ctx context.Context, id int, at time.Time) error
}

// DueRecordStore maintains the denormalized due projection.
type DueRecordStore interface {
	Upsert(ctx context.Context, d *models.DueRecord) error
	Delete(ctx context.Context, customerID int) error
	Get(ctx context.Context, customerID int) (*models.DueRecord, error)
	List(ctx context.Context) ([]*models.DueRecord, error)
}

// AuditStore is the append-only audit stream.
type AuditStore interface {
	Append(ctx context.Context, e *models.AuditEntry) error
	ListByKind(ctx context.Context, kind models.AuditKind, limit int) ([]*models.AuditEntry, error)
	ListByCustomer(ctx context.Context, customerID int) ([]*models.AuditEntry, error)
}

var (
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// LedgerService owns the customer ledger: creation, due mutations, partial
// payments and deletion. The customer row is the source of truth; the due
// projection and the audit stream are written after it and a failure there
// is logged, never rolled back into the already committed mutation.
type LedgerService struct {
	customers CustomerStore
	dues      DueRecordStore
	audits    AuditStore
	notifier  mail.Notifier
	shopName  string

	// idMu serializes id assignment so concurrent creates never mint the
	// same max(id)+1.
	idMu sync.Mutex

	locks *accountLocks
}

// accountLocks hands out one mutex per customer id. Every service that
// mutates a customer row takes the account's lock first, so mutations on
// the same account serialize across services too.
type accountLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[int]*sync.Mutex)}
}

// lock acquires the account's mutex and returns it for unlocking.
func (a *accountLocks) lock(id int) *sync.Mutex {
	a.mu.Lock()
	l, ok := a.locks[id]
	if !ok {
		l = &sync.Mutex{}
		a.locks[id] = l
	}
	a.mu.Unlock()
	l.Lock()
	return l
}

func NewLedgerService(customers CustomerStore, dues DueRecordStore, audits AuditStore, notifier mail.Notifier, shopName string) *LedgerService {
	return &LedgerService{
		customers: customers,
		dues:      dues,
		audits:    audits,
		notifier:  notifier,
		shopName:  shopName,
		locks:     newAccountLocks(),
	}
}

// AddCustomer validates and creates a customer together with generated
// login credentials, the due projection row, an "added" audit entry and a
// welcome notification. The plaintext password is returned exactly once.
func (s *LedgerService) AddCustomer(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, *models.Credentials, error) {
	if err := validateCustomerInput(req); err != nil {
		return nil, nil, err
	}

	field, err := s.customers.FindDuplicateField(ctx, req.Name, req.Phone, req.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: duplicate check: %v", apperrors.ErrStorageUnavailable, err)
	}
	if field != "" {
		return nil, nil, &apperrors.DuplicateFieldError{Field: field}
	}

	creds, err := GenerateCredentials()
	if err != nil {
		return nil, nil, fmt.Errorf("generate credentials: %w", err)
	}
	hash, err := auth.HashPassword(creds.PlainPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := timeutil.Now()
	customer := &models.Customer{
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		Address:      req.Address,
		Due:          req.Due,
		Username:     creds.Username,
		PasswordHash: hash,
		Status:       models.CustomerStatusActive,
		LastUpdate:   now,
		CreatedAt:    now,
	}

	// Id assignment and insert happen under one lock so max(id)+1 stays
	// monotone across concurrent creates.
	s.idMu.Lock()
	id, err := s.customers.NextID(ctx)
	if err != nil {
		s.idMu.Unlock()
		return nil, nil, fmt.Errorf("%w: next id: %v", apperrors.ErrStorageUnavailable, err)
	}
	customer.ID = id
	if err := s.customers.Create(ctx, customer); err != nil {
		s.idMu.Unlock()
		return nil, nil, fmt.Errorf("%w: create customer: %v", apperrors.ErrStorageUnavailable, err)
	}
	s.idMu.Unlock()

	s.syncProjection(ctx, customer)
	s.recordAudit(ctx, models.AuditKindAdded, customer, nil)
	s.notify(customer, "Welcome to "+s.shopName,
		fmt.Sprintf("Hello %s,\n\nYour account has been created.\n\nUsername: %s\nPassword: %s\n\nOutstanding due: Rs. %.2f\n\nPlease keep your credentials safe.",
			customer.Name, creds.Username, creds.PlainPassword, customer.Due))

	return customer, creds, nil
}

// UpdateDue replaces the outstanding due with a new non-negative amount.
func (s *LedgerService) UpdateDue(ctx context.Context, id int, newDue float64) (*models.Customer, error) {
	if newDue < 0 {
		return nil, fmt.Errorf("%w: due cannot be negative", apperrors.ErrInvalidAmount)
	}

	l := s.locks.lock(id)
	defer l.Unlock()

	customer, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}

	now := timeutil.Now()
	if err := s.customers.UpdateDue(ctx, id, newDue, now); err != nil {
		return nil, translateStoreErr(err, "update due")
	}
	customer.Due = newDue
	customer.LastUpdate = now

	s.syncProjection(ctx, customer)
	s.recordAudit(ctx, models.AuditKindUpdated, customer, func(e *models.AuditEntry) {
		e.UpdatedDue = &newDue
	})
	s.notify(customer, "Due amount updated",
		fmt.Sprintf("Hello %s,\n\nYour outstanding due has been updated to Rs. %.2f.", customer.Name, newDue))

	return customer, nil
}

// ApplyPartialPayment subtracts an offline payment from the due. The amount
// must be positive and cannot exceed the outstanding due, so the due never
// goes below zero.
func (s *LedgerService) ApplyPartialPayment(ctx context.Context, id int, amount float64) (*models.Customer, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: payment must be positive", apperrors.ErrInvalidAmount)
	}

	l := s.locks.lock(id)
	defer l.Unlock()

	customer, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if amount > customer.Due {
		return nil, fmt.Errorf("%w: due is Rs. %.2f", apperrors.ErrAmountExceedsDue, customer.Due)
	}

	remaining := customer.Due - amount
	now := timeutil.Now()
	if err := s.customers.UpdateDue(ctx, id, remaining, now); err != nil {
		return nil, translateStoreErr(err, "apply partial payment")
	}
	customer.Due = remaining
	customer.LastUpdate = now

	s.syncProjection(ctx, customer)
	s.recordAudit(ctx, models.AuditKindPartial, customer, func(e *models.AuditEntry) {
		e.PartialDue = &remaining
		paid := amount
		e.PaidAmount = &paid
	})
	s.notify(customer, "Payment received",
		fmt.Sprintf("Hello %s,\n\nWe received Rs. %.2f. Your remaining due is Rs. %.2f.\n\nThank you.",
			customer.Name, amount, remaining))

	return customer, nil
}

// SettlePayment absorbs a gateway-captured payment: the due drops to the
// remainder (zero for a full collect) and a "payment" audit entry records
// the order id. Called by the payment poller after capture; an error here
// means money moved but the ledger did not, which the caller must escalate.
func (s *LedgerService) SettlePayment(ctx context.Context, customerID int, orderID string, amount float64) error {
	l := s.locks.lock(customerID)
	defer l.Unlock()

	customer, err := s.getActive(ctx, customerID)
	if err != nil {
		return err
	}

	remaining := customer.Due - amount
	if remaining < 0 {
		remaining = 0
	}
	now := timeutil.Now()
	if err := s.customers.UpdateDue(ctx, customerID, remaining, now); err != nil {
		return translateStoreErr(err, "settle payment")
	}
	customer.Due = remaining
	customer.LastUpdate = now

	s.syncProjection(ctx, customer)
	s.recordAudit(ctx, models.AuditKindPayment, customer, func(e *models.AuditEntry) {
		paid := amount
		e.PaidAmount = &paid
		e.OrderID = orderID
	})
	s.notify(customer, "Payment successful",
		fmt.Sprintf("Hello %s,\n\nYour online payment of Rs. %.2f was successful (order %s). Your remaining due is Rs. %.2f.\n\nThank you.",
			customer.Name, amount, orderID, remaining))

	return nil
}

// DeleteCustomer soft-deletes a customer. The row is kept with a terminal
// status so the id stays burned forever.
func (s *LedgerService) DeleteCustomer(ctx context.Context, id int) (*models.DeletedSnapshot, error) {
	l := s.locks.lock(id)
	defer l.Unlock()
	return s.deleteLocked(ctx, id)
}

func (s *LedgerService) deleteLocked(ctx context.Context, id int) (*models.DeletedSnapshot, error) {
	customer, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}

	now := timeutil.Now()
	if err := s.customers.MarkDeleted(ctx, id, now); err != nil {
		return nil, translateStoreErr(err, "delete customer")
	}

	if err := s.dues.Delete(ctx, id); err != nil {
		log.Printf("[Ledger] due projection delete failed for customer %d: %v", id, err)
	}

	customer.Status = models.CustomerStatusDeleted
	s.recordAudit(ctx, models.AuditKindDeleted, customer, nil)
	s.notify(customer, "Account closed",
		fmt.Sprintf("Hello %s,\n\nYour account has been closed. Outstanding due at closure: Rs. %.2f.",
			customer.Name, customer.Due))

	return &models.DeletedSnapshot{
		ID:         customer.ID,
		Name:       customer.Name,
		Phone:      customer.Phone,
		Email:      customer.Email,
		Address:    customer.Address,
		Due:        customer.Due,
		LastUpdate: customer.LastUpdate,
		DeletedAt:  now,
	}, nil
}

// DeleteOwnAccount lets a customer close their account, but only once the
// due is fully cleared.
func (s *LedgerService) DeleteOwnAccount(ctx context.Context, id int) (*models.DeletedSnapshot, error) {
	l := s.locks.lock(id)
	defer l.Unlock()

	customer, err := s.getActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer.Due > 0 {
		return nil, fmt.Errorf("%w: outstanding due of Rs. %.2f must be cleared first", apperrors.ErrValidation, customer.Due)
	}
	return s.deleteLocked(ctx, id)
}

// DeleteAll removes every active customer, continuing past individual
// failures and reporting them alongside the successful deletions.
func (s *LedgerService) DeleteAll(ctx context.Context) (*models.DeleteAllResult, error) {
	customers, err := s.customers.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list customers: %v", apperrors.ErrStorageUnavailable, err)
	}

	result := &models.DeleteAllResult{}
	for _, c := range customers {
		snap, err := s.DeleteCustomer(ctx, c.ID)
		if err != nil {
			result.Failures = append(result.Failures, models.DeleteAllFailure{
				CustomerID: c.ID,
				Error:      err.Error(),
			})
			continue
		}
		result.Deleted = append(result.Deleted, snap)
	}
	return result, nil
}

// GetCustomer returns one active customer.
func (s *LedgerService) GetCustomer(ctx context.Context, id int) (*models.Customer, error) {
	return s.getActive(ctx, id)
}

// ListCustomers returns all active customers ordered by id.
func (s *LedgerService) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	customers, err := s.customers.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list customers: %v", apperrors.ErrStorageUnavailable, err)
	}
	return customers, nil
}

// ListDueRecords returns the projection rows, oldest due first.
func (s *LedgerService) ListDueRecords(ctx context.Context) ([]*models.DueRecord, error) {
	records, err := s.dues.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list dues: %v", apperrors.ErrStorageUnavailable, err)
	}
	return records, nil
}

// RecentActivity returns the newest audit entries of one stream.
func (s *LedgerService) RecentActivity(ctx context.Context, kind models.AuditKind, limit int) ([]*models.AuditEntry, error) {
	valid := false
	for _, k := range models.ValidAuditKinds {
		if k == kind {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("%w: unknown audit kind %q", apperrors.ErrValidation, kind)
	}
	entries, err := s.audits.ListByKind(ctx, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list audit: %v", apperrors.ErrStorageUnavailable, err)
	}
	return entries, nil
}

// CustomerHistory returns every audit entry for one customer in write order.
func (s *LedgerService) CustomerHistory(ctx context.Context, customerID int) ([]*models.AuditEntry, error) {
	entries, err := s.audits.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: customer history: %v", apperrors.ErrStorageUnavailable, err)
	}
	return entries, nil
}

// Summary computes the admin dashboard numbers from the active customers.
func (s *LedgerService) Summary(ctx context.Context) (*models.Summary, error) {
	customers, err := s.customers.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list customers: %v", apperrors.ErrStorageUnavailable, err)
	}

	summary := &models.Summary{TotalCustomers: len(customers)}
	var debtors []*models.Debtor
	for _, c := range customers {
		summary.TotalOutstanding += c.Due
		if c.Due > 0 {
			summary.UnpaidCount++
			debtors = append(debtors, &models.Debtor{Name: c.Name, Due: c.Due})
		} else {
			summary.PaidCount++
		}
	}
	sort.Slice(debtors, func(i, j int) bool { return debtors[i].Due > debtors[j].Due })
	if len(debtors) > 5 {
		debtors = debtors[:5]
	}
	summary.TopDebtors = debtors
	return summary, nil
}

func (s *LedgerService) getActive(ctx context.Context, id int) (*models.Customer, error) {
	customer, err := s.customers.GetActive(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err, "get customer")
	}
	return customer, nil
}

// syncProjection mirrors the customer's due into the projection table: a
// row while the due is positive, no row once it is cleared.
func (s *LedgerService) syncProjection(ctx context.Context, c *models.Customer) {
	if c.Due <= 0 {
		if err := s.dues.Delete(ctx, c.ID); err != nil {
			log.Printf("[Ledger] due projection delete failed for customer %d: %v", c.ID, err)
		}
		return
	}

	record := &models.DueRecord{
		CustomerID: c.ID,
		Name:       c.Name,
		Phone:      c.Phone,
		Address:    c.Address,
		DueAmount:  c.Due,
		DueDate:    c.LastUpdate,
	}
	if existing, err := s.dues.Get(ctx, c.ID); err == nil {
		// Keep the original due date so overdue ageing survives updates.
		record.DueDate = existing.DueDate
		now := c.LastUpdate
		record.LastMessageDate = &now
	}
	if err := s.dues.Upsert(ctx, record); err != nil {
		log.Printf("[Ledger] due projection sync failed for customer %d: %v", c.ID, err)
	}
}

// recordAudit appends one entry, best effort. The customer mutation has
// already committed; an audit failure is logged and the operation proceeds.
func (s *LedgerService) recordAudit(ctx context.Context, kind models.AuditKind, c *models.Customer, delta func(*models.AuditEntry)) {
	entry := &models.AuditEntry{
		Kind:       kind,
		CustomerID: c.ID,
		Name:       c.Name,
		Phone:      c.Phone,
		Email:      c.Email,
		Address:    c.Address,
		Due:        c.Due,
		Status:     string(c.Status),
		CreatedAt:  timeutil.Now(),
	}
	if delta != nil {
		delta(entry)
	}
	if err := s.audits.Append(ctx, entry); err != nil {
		log.Printf("[Ledger] audit append (%s) failed for customer %d: %v", kind, c.ID, err)
	}
}

func (s *LedgerService) notify(c *models.Customer, subject, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(c.Email, subject, body, c.ID); err != nil {
		log.Printf("[Ledger] notification failed for customer %d: %v", c.ID, err)
	}
}

func validateCustomerInput(req *models.CreateCustomerRequest) error {
	if req.Name == "" || req.Phone == "" || req.Email == "" || req.Address == "" {
		return fmt.Errorf("%w: name, phone, email and address are required", apperrors.ErrValidation)
	}
	if !phonePattern.MatchString(req.Phone) {
		return fmt.Errorf("%w: phone must be exactly 10 digits", apperrors.ErrValidation)
	}
	if !emailPattern.MatchString(req.Email) {
		return fmt.Errorf("%w: invalid email address", apperrors.ErrValidation)
	}
	if req.Due < 0 {
		return fmt.Errorf("%w: due cannot be negative", apperrors.ErrInvalidAmount)
	}
	return nil
}

func translateStoreErr(err error, op string) error {
	if errors.Is(err, repositories.ErrNoRows) {
		return fmt.Errorf("%w: customer", apperrors.ErrNotFound)
	}
	return fmt.Errorf("%w: %s: %v", apperrors.ErrStorageUnavailable, op, err)
}
