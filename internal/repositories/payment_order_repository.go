package repositories

import (
	"context"
	"time"

	"dues-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentOrderRepository struct {
	DB *pgxpool.Pool
}

func NewPaymentOrderRepository(db *pgxpool.Pool) *PaymentOrderRepository {
	return &PaymentOrderRepository{DB: db}
}

const paymentOrderColumns = `id, order_id, customer_id, customer_name, customer_email,
       amount, upi_id, status, poll_attempts, COALESCE(failure_reason, ''), created_at, completed_at`

func (r *PaymentOrderRepository) Create(ctx context.Context, o *models.PaymentOrder) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO payment_orders(order_id, customer_id, customer_name, customer_email,
                                    amount, upi_id, status, poll_attempts, created_at)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
         RETURNING id`,
		o.OrderID, o.CustomerID, o.CustomerName, o.CustomerEmail,
		o.Amount, o.UPIID, o.Status, o.PollAttempts, o.CreatedAt,
	).Scan(&o.ID)
}

func (r *PaymentOrderRepository) GetByOrderID(ctx context.Context, orderID string) (*models.PaymentOrder, error) {
	var o models.PaymentOrder
	err := r.DB.QueryRow(ctx,
		`SELECT `+paymentOrderColumns+` FROM payment_orders WHERE order_id=$1`, orderID).
		Scan(&o.ID, &o.OrderID, &o.CustomerID, &o.CustomerName, &o.CustomerEmail,
			&o.Amount, &o.UPIID, &o.Status, &o.PollAttempts, &o.FailureReason,
			&o.CreatedAt, &o.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateStatus records a status transition and the attempts spent so far.
// Terminal transitions also stamp completed_at.
func (r *PaymentOrderRepository) UpdateStatus(ctx context.Context, orderID string, status models.PaymentOrderStatus, attempts int, reason string) error {
	var completedAt *time.Time
	if status.IsTerminal() {
		now := time.Now()
		completedAt = &now
	}
	_, err := r.DB.Exec(ctx,
		`UPDATE payment_orders
         SET status=$1, poll_attempts=$2, failure_reason=NULLIF($3, ''), completed_at=$4
         WHERE order_id=$5`,
		status, attempts, reason, completedAt, orderID)
	return err
}

// List returns order history newest first, for the admin transaction view.
func (r *PaymentOrderRepository) List(ctx context.Context, limit, offset int) ([]*models.PaymentOrder, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+paymentOrderColumns+` FROM payment_orders
         ORDER BY id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.PaymentOrder
	for rows.Next() {
		var o models.PaymentOrder
		if err := rows.Scan(&o.ID, &o.OrderID, &o.CustomerID, &o.CustomerName, &o.CustomerEmail,
			&o.Amount, &o.UPIID, &o.Status, &o.PollAttempts, &o.FailureReason,
			&o.CreatedAt, &o.CompletedAt); err != nil {
			return nil, err
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}
