package models

import "time"

// Setting keys used by the payment gateway credential store.
const (
	SettingGatewayKeyID     = "gateway_key_id"
	SettingGatewayKeySecret = "gateway_key_secret"
)

type SystemSetting struct {
	ID           int       `json:"id"`
	SettingKey   string    `json:"setting_key"`
	SettingValue string    `json:"setting_value"`
	Description  string    `json:"description"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GatewayCredentialsRequest stores the payment gateway's API credentials
// in the process-wide settings store.
type GatewayCredentialsRequest struct {
	KeyID     string `json:"key_id"`
	KeySecret string `json:"key_secret"`
}
