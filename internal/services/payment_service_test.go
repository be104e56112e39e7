package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dues-backend/internal/apperrors"
	"dues-backend/internal/gateway"
	"dues-backend/internal/models"
)

type paymentFixture struct {
	svc    *PaymentService
	ledger *ledgerFixture
	orders *fakeOrderStore
	recon  *fakeReconStore
	gw     *stubGateway
}

func newPaymentFixture(attempts int) *paymentFixture {
	lf := newLedgerFixture()
	orders := newFakeOrderStore()
	recon := &fakeReconStore{}
	gw := &stubGateway{}
	return &paymentFixture{
		svc:    NewPaymentService(orders, recon, lf.svc, gw, attempts, time.Millisecond),
		ledger: lf,
		orders: orders,
		recon:  recon,
		gw:     gw,
	}
}

func pendingOrder(t *testing.T, f *paymentFixture, customerID int, amount float64) *models.PaymentOrder {
	t.Helper()
	resp, err := f.svc.CreateOrder(context.Background(), customerID, &models.CreatePaymentOrderRequest{
		Amount: amount,
		UPIID:  "alice@upi",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	order, err := f.orders.GetByOrderID(context.Background(), resp.OrderID)
	if err != nil {
		t.Fatalf("order not persisted: %v", err)
	}
	return order
}

func waitForTerminal(t *testing.T, f *paymentFixture, orderID string) *models.PaymentOrder {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		order, err := f.orders.GetByOrderID(context.Background(), orderID)
		if err != nil {
			t.Fatalf("GetByOrderID: %v", err)
		}
		if order.Status.IsTerminal() {
			return order
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("order %s never reached a terminal status", orderID)
	return nil
}

func TestCreateOrderValidation(t *testing.T) {
	f := newPaymentFixture(3)
	alice, _ := addCustomer(t, f.ledger, "Alice", "9876543210", "alice@example.com", 400)
	bob, _ := addCustomer(t, f.ledger, "Bob", "9876543211", "bob@example.com", 0)
	ctx := context.Background()

	cases := []struct {
		name       string
		customerID int
		req        models.CreatePaymentOrderRequest
		wantErr    error
	}{
		{"zero amount", alice.ID, models.CreatePaymentOrderRequest{Amount: 0, UPIID: "alice@upi"}, apperrors.ErrInvalidAmount},
		{"bad upi id", alice.ID, models.CreatePaymentOrderRequest{Amount: 400, UPIID: "no-handle"}, apperrors.ErrValidation},
		{"amount below due", alice.ID, models.CreatePaymentOrderRequest{Amount: 100, UPIID: "alice@upi"}, apperrors.ErrInvalidAmount},
		{"amount above due", alice.ID, models.CreatePaymentOrderRequest{Amount: 500, UPIID: "alice@upi"}, apperrors.ErrInvalidAmount},
		{"no outstanding due", bob.ID, models.CreatePaymentOrderRequest{Amount: 50, UPIID: "bob@upi"}, apperrors.ErrInvalidAmount},
		{"unknown customer", 99, models.CreatePaymentOrderRequest{Amount: 400, UPIID: "alice@upi"}, apperrors.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.CreateOrder(ctx, tc.customerID, &tc.req); !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
	if len(f.orders.rows) != 0 {
		t.Error("rejected requests must not persist orders")
	}
}

func TestCreateOrderGatewayError(t *testing.T) {
	f := newPaymentFixture(3)
	alice, _ := addCustomer(t, f.ledger, "Alice", "9876543210", "alice@example.com", 400)
	f.gw.createErr = errors.New("provider down")

	_, err := f.svc.CreateOrder(context.Background(), alice.ID, &models.CreatePaymentOrderRequest{
		Amount: 400, UPIID: "alice@upi",
	})
	if !errors.Is(err, apperrors.ErrGateway) {
		t.Errorf("err = %v, want ErrGateway", err)
	}
	// No ledger side effect on gateway failure.
	c, _ := f.ledger.svc.GetCustomer(context.Background(), alice.ID)
	if c.Due != 400 {
		t.Errorf("due = %v, want untouched 400", c.Due)
	}
}

func TestCreateOrderResponse(t *testing.T) {
	f := newPaymentFixture(3)
	alice, _ := addCustomer(t, f.ledger, "Alice", "9876543210", "alice@example.com", 399.99)

	resp, err := f.svc.CreateOrder(context.Background(), alice.ID, &models.CreatePaymentOrderRequest{
		Amount: 399.99, UPIID: "alice@upi",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if resp.Amount != 39999 {
		t.Errorf("amount = %d paise, want 39999", resp.Amount)
	}
	if resp.Currency != "INR" || resp.Status != models.PaymentStatusPending {
		t.Errorf("response = %+v", resp)
	}
}

func TestCapturedPaymentSettlesLedger(t *testing.T) {
	f := newPaymentFixture(5)
	alice, _ := addCustomer(t, f.ledger, "Alice", "9876543210", "alice@example.com", 400)
	f.gw.statuses = []gateway.Status{gateway.StatusCreated, gateway.StatusCreated, gateway.StatusCaptured}

	order := pendingOrder(t, f, alice.ID, 400)
	final := waitForTerminal(t, f, order.OrderID)

	if final.Status != models.PaymentStatusCaptured {
		t.Fatalf("status = %s, want captured", final.Status)
	}
	if final.PollAttempts != 3 {
		t.Errorf("poll attempts = %d, want 3", final.PollAttempts)
	}
	c, _ := f.ledger.svc.GetCustomer(context.Background(), alice.ID)
	if c.Due != 0 {
		t.Errorf("due after capture = %v, want 0", c.Due)
	}
	entries := f.ledger.audits.byKind(models.AuditKindPayment)
	if len(entries) != 1 || entries[0].OrderID != order.OrderID {
		t.Errorf("payment audit = %+v, want exactly one for %s", entries, order.OrderID)
	}
}

func TestFailedPayment(t *testing.T) {
	f := newPaymentFixture(5)
	alice, _ := addCustomer(t, f.ledger, "Alice", "9876543210", "alice@example.com", 400)
	f.gw.statuses = []gateway.Status{gateway.StatusFailed}

	order := pendingOrder(t, f, alice.ID, 400)
	final := waitForTerminal(t, f, order.OrderID)

	if final.Status != models.PaymentStatusFailed {
		t.Fatalf("status = %s, want failed", final.Status)
	}
	c, _ := f.ledger.svc.GetCustomer(context.Background(), alice.ID)
	if c.Due != 400 {
		t.Errorf("due after failed payment = %v, want untouched 400", c.Due)
	}
	if len(f.ledger.audits.byKind(models.AuditKindPayment)) != 0 {
		t.Error("failed payment must not write a payment audit entry")
	}
}

func TestOrderExpiresAfterPollBudget(t *testing.T) {
	f := newPaymentFixture(3)
	alice, _ := addCustomer(t, f.ledger, "Alice", "9876543210", "alice@example.com", 400)
	// The gateway never reports a terminal status.
	f.gw.statuses = []gateway.Status{gateway.StatusCreated}

	order := pendingOrder(t, f, alice.ID, 400)
	final := waitForTerminal(t, f, order.OrderID)

	if final.Status != models.PaymentStatusExpired {
		t.Fatalf("status = %s, want expired", final.Status)
	}
	if final.PollAttempts != 3 {
		t.Errorf("poll attempts = %d, want all 3 consumed", final.PollAttempts)
	}
	if final.FailureReason == "" {
		t.Error("expired order should record why")
	}
}

func TestGatewayErrorsConsumeAttempts(t *testing.T) {
	f := newPaymentFixture(3)
	alice, _ := addCustomer(t, f.ledger, "Alice", "9876543210", "alice@example.com", 400)
	boom := errors.New("timeout")
	f.gw.fetchErrs = []error{boom, boom, boom}

	order := pendingOrder(t, f, alice.ID, 400)
	final := waitForTerminal(t, f, order.OrderID)

	if final.Status != models.PaymentStatusExpired {
		t.Errorf("status = %s, want expired (errors are no new information)", final.Status)
	}
}

func TestPostCaptureSyncQueuesReconciliation(t *testing.T) {
	f := newPaymentFixture(3)
	alice, _ := addCustomer(t, f.ledger, "Alice", "9876543210", "alice@example.com", 400)
	f.gw.statuses = []gateway.Status{gateway.StatusCaptured}
	// Both the settle and its retry hit a broken store.
	f.ledger.customers.failUpdateDue = 2

	order := pendingOrder(t, f, alice.ID, 400)
	final := waitForTerminal(t, f, order.OrderID)

	// The capture is never downgraded even though the ledger missed it.
	if final.Status != models.PaymentStatusCaptured {
		t.Fatalf("status = %s, want captured", final.Status)
	}
	tasks, _ := f.recon.ListUnresolved(context.Background())
	if len(tasks) != 1 || tasks[0].OrderID != order.OrderID || tasks[0].Amount != 400 {
		t.Fatalf("reconciliation tasks = %+v, want one for %s", tasks, order.OrderID)
	}

	// The sweep replays the capture once the store recovers.
	resolved, err := f.svc.ReconcilePayments(context.Background())
	if err != nil {
		t.Fatalf("ReconcilePayments: %v", err)
	}
	if resolved != 1 {
		t.Errorf("resolved = %d, want 1", resolved)
	}
	c, _ := f.ledger.svc.GetCustomer(context.Background(), alice.ID)
	if c.Due != 0 {
		t.Errorf("due after reconciliation = %v, want 0", c.Due)
	}
	tasks, _ = f.recon.ListUnresolved(context.Background())
	if len(tasks) != 0 {
		t.Errorf("unresolved tasks after sweep = %d, want 0", len(tasks))
	}
}

func TestGetOrderStatusOwnership(t *testing.T) {
	f := newPaymentFixture(3)
	alice, _ := addCustomer(t, f.ledger, "Alice", "9876543210", "alice@example.com", 400)
	bob, _ := addCustomer(t, f.ledger, "Bob", "9876543211", "bob@example.com", 100)
	f.gw.statuses = []gateway.Status{gateway.StatusCreated}

	order := pendingOrder(t, f, alice.ID, 400)

	if _, err := f.svc.GetOrderStatus(context.Background(), alice.ID, order.OrderID); err != nil {
		t.Errorf("owner lookup: %v", err)
	}
	if _, err := f.svc.GetOrderStatus(context.Background(), bob.ID, order.OrderID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("foreign lookup err = %v, want ErrNotFound", err)
	}
	// Admin callers pass customer id zero and see everything.
	if _, err := f.svc.GetOrderStatus(context.Background(), 0, order.OrderID); err != nil {
		t.Errorf("admin lookup: %v", err)
	}
	if _, err := f.svc.GetOrderStatus(context.Background(), 0, "order_missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("missing order err = %v, want ErrNotFound", err)
	}
}
