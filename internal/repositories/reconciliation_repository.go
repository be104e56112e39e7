package repositories

import (
	"context"
	"time"

	"dues-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ReconciliationRepository struct {
	DB *pgxpool.Pool
}

func NewReconciliationRepository(db *pgxpool.Pool) *ReconciliationRepository {
	return &ReconciliationRepository{DB: db}
}

// Enqueue records a captured payment the ledger has not absorbed yet.
func (r *ReconciliationRepository) Enqueue(ctx context.Context, t *models.ReconciliationTask) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO reconciliation_tasks(order_id, customer_id, amount, reason, resolved, created_at)
         VALUES($1, $2, $3, $4, false, $5)
         RETURNING id`,
		t.OrderID, t.CustomerID, t.Amount, t.Reason, t.CreatedAt,
	).Scan(&t.ID)
}

// ListUnresolved returns pending tasks oldest first.
func (r *ReconciliationRepository) ListUnresolved(ctx context.Context) ([]*models.ReconciliationTask, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, order_id, customer_id, amount, reason, resolved, created_at, resolved_at
         FROM reconciliation_tasks WHERE resolved=false ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.ReconciliationTask
	for rows.Next() {
		var t models.ReconciliationTask
		if err := rows.Scan(&t.ID, &t.OrderID, &t.CustomerID, &t.Amount,
			&t.Reason, &t.Resolved, &t.CreatedAt, &t.ResolvedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

// Resolve marks a task done after a successful replay.
func (r *ReconciliationRepository) Resolve(ctx context.Context, id int, at time.Time) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE reconciliation_tasks SET resolved=true, resolved_at=$1 WHERE id=$2`, at, id)
	return err
}
