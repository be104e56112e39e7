package repositories

import (
	"context"
	"time"

	"dues-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CredentialResetRepository struct {
	DB *pgxpool.Pool
}

func NewCredentialResetRepository(db *pgxpool.Pool) *CredentialResetRepository {
	return &CredentialResetRepository{DB: db}
}

func (r *CredentialResetRepository) Append(ctx context.Context, c *models.CredentialReset) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO credential_resets(customer_id, name, old_username, new_username, new_hash, plain_password, created_at)
         VALUES($1, $2, $3, $4, $5, $6, $7)
         RETURNING id`,
		c.CustomerID, c.Name, c.OldUsername, c.NewUsername, c.NewHash, c.PlainPassword, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CredentialResetRepository) ListByCustomer(ctx context.Context, customerID int) ([]*models.CredentialReset, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, customer_id, name, old_username, new_username, new_hash, plain_password, created_at
         FROM credential_resets WHERE customer_id=$1 ORDER BY id DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resets []*models.CredentialReset
	for rows.Next() {
		var c models.CredentialReset
		if err := rows.Scan(&c.ID, &c.CustomerID, &c.Name, &c.OldUsername,
			&c.NewUsername, &c.NewHash, &c.PlainPassword, &c.CreatedAt); err != nil {
			return nil, err
		}
		resets = append(resets, &c)
	}
	return resets, rows.Err()
}

// PurgeOlderThan enforces the plaintext retention window. Called at startup.
func (r *CredentialResetRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx,
		`DELETE FROM credential_resets WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
