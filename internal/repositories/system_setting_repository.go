package repositories

import (
	"context"

	"dues-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SystemSettingRepository struct {
	DB *pgxpool.Pool
}

func NewSystemSettingRepository(db *pgxpool.Pool) *SystemSettingRepository {
	return &SystemSettingRepository{DB: db}
}

func (r *SystemSettingRepository) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	setting := &models.SystemSetting{}
	err := r.DB.QueryRow(ctx,
		`SELECT id, setting_key, setting_value, COALESCE(description, ''), updated_at
         FROM system_settings WHERE setting_key = $1`, key).
		Scan(&setting.ID, &setting.SettingKey, &setting.SettingValue,
			&setting.Description, &setting.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return setting, nil
}

// Set creates or replaces a setting value.
func (r *SystemSettingRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO system_settings(setting_key, setting_value, updated_at)
         VALUES($1, $2, CURRENT_TIMESTAMP)
         ON CONFLICT (setting_key) DO UPDATE
         SET setting_value=$2, updated_at=CURRENT_TIMESTAMP`,
		key, value)
	return err
}
