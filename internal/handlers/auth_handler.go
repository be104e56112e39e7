package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"

	"dues-backend/internal/auth"
	"dues-backend/internal/config"
	"dues-backend/internal/services"
	"dues-backend/pkg/utils"
)

type AuthHandler struct {
	cfg        *config.Config
	jwtManager *auth.JWTManager
	creds      *services.CredentialService
}

func NewAuthHandler(cfg *config.Config, jwtManager *auth.JWTManager, creds *services.CredentialService) *AuthHandler {
	return &AuthHandler{
		cfg:        cfg,
		jwtManager: jwtManager,
		creds:      creds,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminLogin authenticates the shop admin against the configured account
// POST /auth/admin/login
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.cfg.Admin.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.Admin.Password)) == 1
	if !userOK || !passOK {
		utils.Error(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := h.jwtManager.GenerateAdminToken(req.Username)
	if err != nil {
		log.Printf("[Auth] admin token generation: %v", err)
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{
		"token": token,
		"role":  auth.RoleAdmin,
	})
}

// CustomerLogin authenticates a customer with generated credentials
// POST /auth/customer/login
func (h *AuthHandler) CustomerLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customer, err := h.creds.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	token, err := h.jwtManager.GenerateCustomerToken(customer.ID, customer.Username)
	if err != nil {
		log.Printf("[Auth] customer token generation: %v", err)
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"token":       token,
		"role":        auth.RoleCustomer,
		"customer_id": customer.ID,
		"name":        customer.Name,
	})
}
