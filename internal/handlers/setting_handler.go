package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"dues-backend/internal/models"
	"dues-backend/internal/repositories"
	"dues-backend/pkg/utils"
)

type SettingHandler struct {
	Repo *repositories.SystemSettingRepository
}

func NewSettingHandler(repo *repositories.SystemSettingRepository) *SettingHandler {
	return &SettingHandler{Repo: repo}
}

// UpdateGatewayCredentials stores a new Razorpay key pair. The settings
// store takes precedence over the environment, so this takes effect on
// the next order without a restart.
// POST /api/admin/gateway-credentials
func (h *SettingHandler) UpdateGatewayCredentials(w http.ResponseWriter, r *http.Request) {
	var req models.GatewayCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.KeyID == "" || req.KeySecret == "" {
		utils.Error(w, http.StatusBadRequest, "key_id and key_secret are required")
		return
	}

	if err := h.Repo.Set(r.Context(), models.SettingGatewayKeyID, req.KeyID); err != nil {
		log.Printf("[Settings] store key id: %v", err)
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if err := h.Repo.Set(r.Context(), models.SettingGatewayKeySecret, req.KeySecret); err != nil {
		log.Printf("[Settings] store key secret: %v", err)
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// GetGatewayCredentials returns the stored key id with the secret masked
// GET /api/admin/gateway-credentials
func (h *SettingHandler) GetGatewayCredentials(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"key_id": "", "key_secret": ""}

	if setting, err := h.Repo.Get(r.Context(), models.SettingGatewayKeyID); err == nil {
		resp["key_id"] = setting.SettingValue
	}
	if setting, err := h.Repo.Get(r.Context(), models.SettingGatewayKeySecret); err == nil {
		resp["key_secret"] = maskSecret(setting.SettingValue)
	}

	utils.JSON(w, http.StatusOK, resp)
}

func maskSecret(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
