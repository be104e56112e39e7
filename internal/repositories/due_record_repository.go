package repositories

import (
	"context"

	"dues-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DueRecordRepository struct {
	DB *pgxpool.Pool
}

func NewDueRecordRepository(db *pgxpool.Pool) *DueRecordRepository {
	return &DueRecordRepository{DB: db}
}

// Upsert creates or replaces the projection row for a customer.
func (r *DueRecordRepository) Upsert(ctx context.Context, d *models.DueRecord) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO due_records(customer_id, name, phone, address, due_amount, due_date, last_message_date)
         VALUES($1, $2, $3, $4, $5, $6, $7)
         ON CONFLICT (customer_id) DO UPDATE
         SET name=$2, phone=$3, address=$4, due_amount=$5, due_date=$6, last_message_date=$7`,
		d.CustomerID, d.Name, d.Phone, d.Address, d.DueAmount, d.DueDate, d.LastMessageDate)
	return err
}

// Delete removes the projection row when the customer is deleted.
func (r *DueRecordRepository) Delete(ctx context.Context, customerID int) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM due_records WHERE customer_id=$1`, customerID)
	return err
}

// Get returns the projection row for one customer.
func (r *DueRecordRepository) Get(ctx context.Context, customerID int) (*models.DueRecord, error) {
	var d models.DueRecord
	err := r.DB.QueryRow(ctx,
		`SELECT customer_id, name, phone, address, due_amount, due_date, last_message_date
         FROM due_records WHERE customer_id=$1`, customerID).
		Scan(&d.CustomerID, &d.Name, &d.Phone, &d.Address, &d.DueAmount, &d.DueDate, &d.LastMessageDate)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns every projection row ordered by due date, oldest first, so
// the overdue listing surfaces the most neglected accounts on top.
func (r *DueRecordRepository) List(ctx context.Context) ([]*models.DueRecord, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT customer_id, name, phone, address, due_amount, due_date, last_message_date
         FROM due_records ORDER BY due_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.DueRecord
	for rows.Next() {
		var d models.DueRecord
		if err := rows.Scan(&d.CustomerID, &d.Name, &d.Phone, &d.Address,
			&d.DueAmount, &d.DueDate, &d.LastMessageDate); err != nil {
			return nil, err
		}
		records = append(records, &d)
	}
	return records, rows.Err()
}
