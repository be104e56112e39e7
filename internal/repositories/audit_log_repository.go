package repositories

import (
	"context"

	"dues-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLogRepository is append-only: entries are inserted and read, never
// updated or deleted.
type AuditLogRepository struct {
	DB *pgxpool.Pool
}

func NewAuditLogRepository(db *pgxpool.Pool) *AuditLogRepository {
	return &AuditLogRepository{DB: db}
}

// Append writes one immutable audit entry.
func (r *AuditLogRepository) Append(ctx context.Context, e *models.AuditEntry) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO audit_entries(kind, customer_id, name, phone, email, address, due, status,
                                   updated_due, partial_due, paid_amount, order_id, created_at)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
         RETURNING id`,
		e.Kind, e.CustomerID, e.Name, e.Phone, e.Email, e.Address, e.Due, e.Status,
		e.UpdatedDue, e.PartialDue, e.PaidAmount, e.OrderID, e.CreatedAt,
	).Scan(&e.ID)
}

const auditColumns = `id, kind, customer_id, name, phone, email, address, due, status,
       updated_due, partial_due, paid_amount, COALESCE(order_id, ''), created_at`

// ListByKind returns the newest entries of one stream.
func (r *AuditLogRepository) ListByKind(ctx context.Context, kind models.AuditKind, limit int) ([]*models.AuditEntry, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+auditColumns+` FROM audit_entries
         WHERE kind=$1 ORDER BY id DESC LIMIT $2`, kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditEntries(rows)
}

// ListByCustomer returns all entries for one customer in write order.
func (r *AuditLogRepository) ListByCustomer(ctx context.Context, customerID int) ([]*models.AuditEntry, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+auditColumns+` FROM audit_entries
         WHERE customer_id=$1 ORDER BY id`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditEntries(rows)
}

func scanAuditEntries(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*models.AuditEntry, error) {
	var entries []*models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.CustomerID, &e.Name, &e.Phone, &e.Email,
			&e.Address, &e.Due, &e.Status, &e.UpdatedDue, &e.PartialDue,
			&e.PaidAmount, &e.OrderID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
