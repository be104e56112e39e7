package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"dues-backend/internal/models"
	"dues-backend/internal/services"
	"dues-backend/pkg/utils"
)

type CredentialHandler struct {
	Service *services.CredentialService
}

func NewCredentialHandler(service *services.CredentialService) *CredentialHandler {
	return &CredentialHandler{Service: service}
}

// ResetCredentials rotates a customer's login and returns the fresh pair.
// The body may carry an explicit username/password; an empty body asks for
// a generated pair.
// POST /api/customers/{id}/credentials
func (h *CredentialHandler) ResetCredentials(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid customer id")
		return
	}

	var req models.ResetCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	creds, err := h.Service.ResetCredentials(r.Context(), id, req.Username, req.Password)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, creds)
}

// ResetHistory returns archived rotations for one customer, newest first
// GET /api/customers/{id}/credential-resets
func (h *CredentialHandler) ResetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid customer id")
		return
	}

	history, err := h.Service.ResetHistory(r.Context(), id)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, history)
}
