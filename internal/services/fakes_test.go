package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"dues-backend/internal/gateway"
	"dues-backend/internal/models"
	"dues-backend/internal/repositories"
)

// In-memory stores backing the service tests. They mirror the SQL
// repositories' contracts, including ErrNoRows on missing rows.

type fakeCustomerStore struct {
	mu   sync.Mutex
	rows map[int]*models.Customer

	failUpdateDue   int          // fail this many UpdateDue calls, then succeed
	failMarkDeleted map[int]bool // fail MarkDeleted for these ids
}

func newFakeCustomerStore() *fakeCustomerStore {
	return &fakeCustomerStore{rows: make(map[int]*models.Customer)}
}

func (f *fakeCustomerStore) Create(ctx context.Context, c *models.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[c.ID]; ok {
		return fmt.Errorf("duplicate id %d", c.ID)
	}
	cp := *c
	f.rows[c.ID] = &cp
	return nil
}

func (f *fakeCustomerStore) NextID(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for id := range f.rows {
		if id > max {
			max = id
		}
	}
	return max + 1, nil
}

func (f *fakeCustomerStore) GetActive(ctx context.Context, id int) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok || c.Status != models.CustomerStatusActive {
		return nil, repositories.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCustomerStore) GetActiveByUsername(ctx context.Context, username string) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.rows {
		if c.Username == username && c.Status == models.CustomerStatusActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repositories.ErrNoRows
}

func (f *fakeCustomerStore) ListActive(ctx context.Context) ([]*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var out []*models.Customer
	for _, id := range ids {
		if c := f.rows[id]; c.Status == models.CustomerStatusActive {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeCustomerStore) FindDuplicateField(ctx context.Context, name, phone, email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.rows {
		if c.Status != models.CustomerStatusActive {
			continue
		}
		if strings.EqualFold(c.Name, name) {
			return "name", nil
		}
		if c.Phone == phone {
			return "phone", nil
		}
		if strings.EqualFold(c.Email, email) {
			return "email", nil
		}
	}
	return "", nil
}

func (f *fakeCustomerStore) UpdateDue(ctx context.Context, id int, due float64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdateDue > 0 {
		f.failUpdateDue--
		return errors.New("injected store failure")
	}
	c, ok := f.rows[id]
	if !ok || c.Status != models.CustomerStatusActive {
		return repositories.ErrNoRows
	}
	c.Due = due
	c.LastUpdate = at
	return nil
}

func (f *fakeCustomerStore) UpdateCredentials(ctx context.Context, id int, username, passwordHash string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok || c.Status != models.CustomerStatusActive {
		return repositories.ErrNoRows
	}
	c.Username = username
	c.PasswordHash = passwordHash
	c.LastUpdate = at
	return nil
}

func (f *fakeCustomerStore) MarkDeleted(ctx context.Context, id int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMarkDeleted[id] {
		return errors.New("injected store failure")
	}
	c, ok := f.rows[id]
	if !ok || c.Status != models.CustomerStatusActive {
		return repositories.ErrNoRows
	}
	c.Status = models.CustomerStatusDeleted
	c.LastUpdate = at
	return nil
}

type fakeDueStore struct {
	mu   sync.Mutex
	rows map[int]*models.DueRecord
}

func newFakeDueStore() *fakeDueStore {
	return &fakeDueStore{rows: make(map[int]*models.DueRecord)}
}

func (f *fakeDueStore) Upsert(ctx context.Context, d *models.DueRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *d
	f.rows[d.CustomerID] = &cp
	return nil
}

func (f *fakeDueStore) Delete(ctx context.Context, customerID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, customerID)
	return nil
}

func (f *fakeDueStore) Get(ctx context.Context, customerID int) (*models.DueRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.rows[customerID]
	if !ok {
		return nil, repositories.ErrNoRows
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDueStore) List(ctx context.Context) ([]*models.DueRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.DueRecord
	for _, d := range f.rows {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []*models.AuditEntry
}

func (f *fakeAuditStore) Append(ctx context.Context, e *models.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *e
	cp.ID = len(f.entries) + 1
	f.entries = append(f.entries, &cp)
	e.ID = cp.ID
	return nil
}

func (f *fakeAuditStore) ListByKind(ctx context.Context, kind models.AuditKind, limit int) ([]*models.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AuditEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].Kind == kind {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeAuditStore) ListByCustomer(ctx context.Context, customerID int) ([]*models.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AuditEntry
	for _, e := range f.entries {
		if e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditStore) byKind(kind models.AuditKind) []*models.AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.AuditEntry
	for _, e := range f.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type fakeResetStore struct {
	mu     sync.Mutex
	resets []*models.CredentialReset
}

func (f *fakeResetStore) Append(ctx context.Context, c *models.CredentialReset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	cp.ID = len(f.resets) + 1
	f.resets = append(f.resets, &cp)
	return nil
}

func (f *fakeResetStore) ListByCustomer(ctx context.Context, customerID int) ([]*models.CredentialReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.CredentialReset
	for i := len(f.resets) - 1; i >= 0; i-- {
		if f.resets[i].CustomerID == customerID {
			out = append(out, f.resets[i])
		}
	}
	return out, nil
}

func (f *fakeResetStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []*models.CredentialReset
	var purged int64
	for _, r := range f.resets {
		if r.CreatedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, r)
	}
	f.resets = kept
	return purged, nil
}

type fakeOrderStore struct {
	mu   sync.Mutex
	rows map[string]*models.PaymentOrder
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{rows: make(map[string]*models.PaymentOrder)}
}

func (f *fakeOrderStore) Create(ctx context.Context, o *models.PaymentOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID = len(f.rows) + 1
	cp := *o
	f.rows[o.OrderID] = &cp
	return nil
}

func (f *fakeOrderStore) GetByOrderID(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.rows[orderID]
	if !ok {
		return nil, repositories.ErrNoRows
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) UpdateStatus(ctx context.Context, orderID string, status models.PaymentOrderStatus, attempts int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.rows[orderID]
	if !ok {
		return repositories.ErrNoRows
	}
	o.Status = status
	o.PollAttempts = attempts
	o.FailureReason = reason
	if status.IsTerminal() {
		now := time.Now()
		o.CompletedAt = &now
	}
	return nil
}

func (f *fakeOrderStore) List(ctx context.Context, limit, offset int) ([]*models.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PaymentOrder
	for _, o := range f.rows {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

type fakeReconStore struct {
	mu    sync.Mutex
	tasks []*models.ReconciliationTask
}

func (f *fakeReconStore) Enqueue(ctx context.Context, t *models.ReconciliationTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	cp.ID = len(f.tasks) + 1
	f.tasks = append(f.tasks, &cp)
	t.ID = cp.ID
	return nil
}

func (f *fakeReconStore) ListUnresolved(ctx context.Context) ([]*models.ReconciliationTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ReconciliationTask
	for _, t := range f.tasks {
		if !t.Resolved {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeReconStore) Resolve(ctx context.Context, id int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID == id {
			t.Resolved = true
			t.ResolvedAt = &at
			return nil
		}
	}
	return repositories.ErrNoRows
}

// stubGateway scripts the provider's responses: one status (or error) per
// FetchPaymentStatus call, the last one repeating.
type stubGateway struct {
	mu        sync.Mutex
	createErr error
	orderSeq  int
	statuses  []gateway.Status
	fetchErrs []error
	fetches   int
}

func (g *stubGateway) CreateOrder(ctx context.Context, amountMinor int, currency string, notes map[string]interface{}) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.orderSeq++
	return &gateway.Order{
		OrderID:     fmt.Sprintf("order_test%03d", g.orderSeq),
		AmountMinor: amountMinor,
		Currency:    currency,
	}, nil
}

func (g *stubGateway) FetchPaymentStatus(ctx context.Context, orderID string) (gateway.Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.fetches
	g.fetches++
	if i < len(g.fetchErrs) && g.fetchErrs[i] != nil {
		return "", g.fetchErrs[i]
	}
	if len(g.statuses) == 0 {
		return gateway.StatusCreated, nil
	}
	if i >= len(g.statuses) {
		i = len(g.statuses) - 1
	}
	return g.statuses[i], nil
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeNotifier) Send(toEmail, subject, body string, customerID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: toEmail, Subject: subject, Body: body})
	return nil
}
