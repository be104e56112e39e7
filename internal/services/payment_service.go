package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"regexp"
	"time"

	"dues-backend/internal/apperrors"
	"dues-backend/internal/gateway"
	"dues-backend/internal/metrics"
	"dues-backend/internal/models"
	"dues-backend/internal/repositories"
	"dues-backend/internal/timeutil"
)

// Collect amounts are rupees with paise precision; anything closer than
// this to the due counts as equal.
const amountEpsilon = 0.005

var upiPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{2,}@[a-zA-Z]{2,}$`)

// PaymentOrderStore persists payment order lifecycles.
type PaymentOrderStore interface {
	Create(ctx context.Context, o *models.PaymentOrder) error
	GetByOrderID(ctx context.Context, orderID string) (*models.PaymentOrder, error)
	UpdateStatus(ctx context.Context, orderID string, status models.PaymentOrderStatus, attempts int, reason string) error
	List(ctx context.Context, limit, offset int) ([]*models.PaymentOrder, error)
}

// ReconciliationStore queues captured payments the ledger failed to absorb.
type ReconciliationStore interface {
	Enqueue(ctx context.Context, t *models.ReconciliationTask) error
	ListUnresolved(ctx context.Context) ([]*models.ReconciliationTask, error)
	Resolve(ctx context.Context, id int, at time.Time) error
}

// PaymentService drives the UPI collect flow: it mints gateway orders for
// the caller's full outstanding due, polls the gateway a bounded number of
// times for a terminal status, and hands captures to the ledger.
type PaymentService struct {
	orders PaymentOrderStore
	recon  ReconciliationStore
	ledger *LedgerService
	gw     gateway.PaymentGateway

	pollAttempts int
	pollInterval time.Duration
}

func NewPaymentService(orders PaymentOrderStore, recon ReconciliationStore, ledger *LedgerService, gw gateway.PaymentGateway, pollAttempts int, pollInterval time.Duration) *PaymentService {
	return &PaymentService{
		orders:       orders,
		recon:        recon,
		ledger:       ledger,
		gw:           gw,
		pollAttempts: pollAttempts,
		pollInterval: pollInterval,
	}
}

// CreateOrder validates the request, mints a gateway order for the full
// outstanding due and starts the background status poll. The poll runs
// detached from the request context so a dropped connection can never
// lose a capture.
func (s *PaymentService) CreateOrder(ctx context.Context, customerID int, req *models.CreatePaymentOrderRequest) (*models.CreatePaymentOrderResponse, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrInvalidAmount)
	}
	if !upiPattern.MatchString(req.UPIID) {
		return nil, fmt.Errorf("%w: invalid UPI id", apperrors.ErrValidation)
	}

	customer, err := s.ledger.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer.Due <= 0 {
		return nil, fmt.Errorf("%w: no outstanding due", apperrors.ErrInvalidAmount)
	}
	if math.Abs(req.Amount-customer.Due) > amountEpsilon {
		return nil, fmt.Errorf("%w: amount must equal the outstanding due of Rs. %.2f", apperrors.ErrInvalidAmount, customer.Due)
	}

	amountMinor := gateway.ToMinorUnits(customer.Due)
	order, err := s.gw.CreateOrder(ctx, amountMinor, "INR", map[string]interface{}{
		"customer_id": fmt.Sprintf("%d", customer.ID),
		"upi_id":      req.UPIID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrGateway, err)
	}

	record := &models.PaymentOrder{
		OrderID:       order.OrderID,
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		Amount:        customer.Due,
		UPIID:         req.UPIID,
		Status:        models.PaymentStatusPending,
		CreatedAt:     timeutil.Now(),
	}
	if err := s.orders.Create(ctx, record); err != nil {
		// The gateway order exists but nobody will poll it; it simply
		// expires provider-side.
		return nil, fmt.Errorf("%w: persist order: %v", apperrors.ErrStorageUnavailable, err)
	}

	go s.poll(context.Background(), record)

	return &models.CreatePaymentOrderResponse{
		OrderID:  order.OrderID,
		Status:   models.PaymentStatusPending,
		Amount:   amountMinor,
		Currency: "INR",
	}, nil
}

// poll asks the gateway for a terminal status a bounded number of times.
// A gateway error is treated as no new information and consumes the
// attempt. Orders still pending after the last attempt expire.
func (s *PaymentService) poll(ctx context.Context, o *models.PaymentOrder) {
	for attempt := 1; attempt <= s.pollAttempts; attempt++ {
		time.Sleep(s.pollInterval)

		status, err := s.gw.FetchPaymentStatus(ctx, o.OrderID)
		if err != nil {
			log.Printf("[Payment] poll %d/%d for order %s: %v", attempt, s.pollAttempts, o.OrderID, err)
			continue
		}

		switch status {
		case gateway.StatusCaptured:
			s.settle(ctx, o, attempt)
			return
		case gateway.StatusFailed:
			if err := s.orders.UpdateStatus(ctx, o.OrderID, models.PaymentStatusFailed, attempt, "payment failed at gateway"); err != nil {
				log.Printf("[Payment] mark failed for order %s: %v", o.OrderID, err)
			}
			metrics.PaymentOrdersTotal.WithLabelValues(string(models.PaymentStatusFailed)).Inc()
			return
		}
	}

	reason := fmt.Sprintf("no terminal status after %d polls", s.pollAttempts)
	if err := s.orders.UpdateStatus(ctx, o.OrderID, models.PaymentStatusExpired, s.pollAttempts, reason); err != nil {
		log.Printf("[Payment] mark expired for order %s: %v", o.OrderID, err)
	}
	metrics.PaymentOrdersTotal.WithLabelValues(string(models.PaymentStatusExpired)).Inc()
}

// settle records the capture and pushes it into the ledger. The order is
// marked captured first: the money has moved whatever happens next. A
// ledger failure is retried once and then queued for reconciliation; it is
// never silently dropped.
func (s *PaymentService) settle(ctx context.Context, o *models.PaymentOrder, attempts int) {
	if err := s.orders.UpdateStatus(ctx, o.OrderID, models.PaymentStatusCaptured, attempts, ""); err != nil {
		log.Printf("[Payment] mark captured for order %s: %v", o.OrderID, err)
	}
	metrics.PaymentOrdersTotal.WithLabelValues(string(models.PaymentStatusCaptured)).Inc()

	err := s.ledger.SettlePayment(ctx, o.CustomerID, o.OrderID, o.Amount)
	if err != nil {
		log.Printf("[Payment] ledger settle for order %s failed, retrying: %v", o.OrderID, err)
		err = s.ledger.SettlePayment(ctx, o.CustomerID, o.OrderID, o.Amount)
	}
	if err == nil {
		return
	}

	log.Printf("[Payment] %v: order %s: %v", apperrors.ErrPostCaptureSync, o.OrderID, err)
	task := &models.ReconciliationTask{
		OrderID:    o.OrderID,
		CustomerID: o.CustomerID,
		Amount:     o.Amount,
		Reason:     fmt.Sprintf("%v: %v", apperrors.ErrPostCaptureSync, err),
		CreatedAt:  timeutil.Now(),
	}
	if err := s.recon.Enqueue(ctx, task); err != nil {
		// Worst case: the captured order row itself still flags the gap.
		log.Printf("[Payment] reconciliation enqueue for order %s failed: %v", o.OrderID, err)
		return
	}
	metrics.ReconciliationQueueDepth.Inc()
}

// GetOrderStatus returns the current status of an order. A customer id of
// zero means an admin caller; customers may only see their own orders.
func (s *PaymentService) GetOrderStatus(ctx context.Context, customerID int, orderID string) (*models.PaymentOrderStatusResponse, error) {
	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNoRows) {
			return nil, fmt.Errorf("%w: order", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: get order: %v", apperrors.ErrStorageUnavailable, err)
	}
	if customerID != 0 && order.CustomerID != customerID {
		return nil, fmt.Errorf("%w: order", apperrors.ErrNotFound)
	}
	return &models.PaymentOrderStatusResponse{
		OrderID: order.OrderID,
		Status:  order.Status,
	}, nil
}

// ListTransactions returns order history for the admin view, newest first.
func (s *PaymentService) ListTransactions(ctx context.Context, limit, offset int) ([]*models.PaymentOrder, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	orders, err := s.orders.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list orders: %v", apperrors.ErrStorageUnavailable, err)
	}
	return orders, nil
}

// ReconcilePayments replays queued captures into the ledger. Returns how
// many tasks were resolved.
func (s *PaymentService) ReconcilePayments(ctx context.Context) (int, error) {
	tasks, err := s.recon.ListUnresolved(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: list reconciliation tasks: %v", apperrors.ErrStorageUnavailable, err)
	}

	resolved := 0
	for _, t := range tasks {
		if err := s.ledger.SettlePayment(ctx, t.CustomerID, t.OrderID, t.Amount); err != nil {
			log.Printf("[Payment] reconcile order %s: %v", t.OrderID, err)
			continue
		}
		if err := s.recon.Resolve(ctx, t.ID, timeutil.Now()); err != nil {
			log.Printf("[Payment] resolve task %d: %v", t.ID, err)
			continue
		}
		metrics.ReconciliationQueueDepth.Dec()
		resolved++
	}
	return resolved, nil
}
