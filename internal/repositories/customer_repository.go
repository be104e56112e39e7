package repositories

import (
	"context"
	"errors"
	"time"

	"dues-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoRows is re-exported so services can translate missing rows without
// importing pgx directly.
var ErrNoRows = pgx.ErrNoRows

type CustomerRepository struct {
	DB *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

const customerColumns = `id, name, phone, email, address, due, username, password_hash, status, last_update, created_at`

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Due,
		&c.Username, &c.PasswordHash, &c.Status, &c.LastUpdate, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a customer with an explicitly assigned id. Ids come from
// NextID under the ledger's id mutex, never from a sequence, so deleted ids
// are never reissued.
func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO customers(id, name, phone, email, address, due, username, password_hash, status, last_update, created_at)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.Name, c.Phone, c.Email, c.Address, c.Due,
		c.Username, c.PasswordHash, c.Status, c.LastUpdate, c.CreatedAt)
	return err
}

// NextID returns max(id)+1 over all rows, deleted included.
func (r *CustomerRepository) NextID(ctx context.Context) (int, error) {
	var next int
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(MAX(id), 0) + 1 FROM customers`).Scan(&next)
	return next, err
}

// GetActive returns an active customer by id.
func (r *CustomerRepository) GetActive(ctx context.Context, id int) (*models.Customer, error) {
	return scanCustomer(r.DB.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id=$1 AND status='active'`, id))
}

// GetActiveByUsername returns an active customer by login username.
func (r *CustomerRepository) GetActiveByUsername(ctx context.Context, username string) (*models.Customer, error) {
	return scanCustomer(r.DB.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE username=$1 AND status='active'`, username))
}

// ListActive returns all active customers ordered by id.
func (r *CustomerRepository) ListActive(ctx context.Context) ([]*models.Customer, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE status='active' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// FindDuplicateField reports which of name/phone/email collides with an
// active customer. Name and email compare case-insensitively.
func (r *CustomerRepository) FindDuplicateField(ctx context.Context, name, phone, email string) (string, error) {
	var field string
	err := r.DB.QueryRow(ctx,
		`SELECT CASE
            WHEN LOWER(name) = LOWER($1) THEN 'name'
            WHEN phone = $2 THEN 'phone'
            ELSE 'email'
         END
         FROM customers
         WHERE status='active'
           AND (LOWER(name) = LOWER($1) OR phone = $2 OR LOWER(email) = LOWER($3))
         LIMIT 1`,
		name, phone, email).Scan(&field)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return field, nil
}

// UpdateDue replaces the due amount and bumps last_update.
func (r *CustomerRepository) UpdateDue(ctx context.Context, id int, due float64, at time.Time) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE customers SET due=$1, last_update=$2 WHERE id=$3 AND status='active'`,
		due, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateCredentials persists a new username and password hash.
func (r *CustomerRepository) UpdateCredentials(ctx context.Context, id int, username, passwordHash string, at time.Time) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE customers SET username=$1, password_hash=$2, last_update=$3 WHERE id=$4 AND status='active'`,
		username, passwordHash, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkDeleted flips the status to deleted. The row is kept so the id stays
// burned; the terminal transition cannot be repeated.
func (r *CustomerRepository) MarkDeleted(ctx context.Context, id int, at time.Time) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE customers SET status='deleted', last_update=$1 WHERE id=$2 AND status='active'`,
		at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
