package handlers

import (
	"net/http"

	"dues-backend/internal/middleware"
	"dues-backend/internal/services"
	"dues-backend/pkg/utils"
)

// CustomerPortalHandler serves the logged-in customer's self-service view.
type CustomerPortalHandler struct {
	Ledger *services.LedgerService
}

func NewCustomerPortalHandler(ledger *services.LedgerService) *CustomerPortalHandler {
	return &CustomerPortalHandler{Ledger: ledger}
}

// Me returns the caller's own account
// GET /api/me
func (h *CustomerPortalHandler) Me(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.GetCustomerIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	customer, err := h.Ledger.GetCustomer(r.Context(), customerID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, customer)
}

// History returns the caller's own audit trail
// GET /api/me/history
func (h *CustomerPortalHandler) History(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.GetCustomerIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	entries, err := h.Ledger.CustomerHistory(r.Context(), customerID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, entries)
}

// DeleteMe closes the caller's account, allowed only with a zero due
// DELETE /api/me
func (h *CustomerPortalHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.GetCustomerIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	snapshot, err := h.Ledger.DeleteOwnAccount(r.Context(), customerID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, snapshot)
}
