package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"dues-backend/internal/models"
	"dues-backend/internal/services"
	"dues-backend/pkg/utils"
)

const defaultActivityLimit = 50

type AuditHandler struct {
	Ledger *services.LedgerService
}

func NewAuditHandler(ledger *services.LedgerService) *AuditHandler {
	return &AuditHandler{Ledger: ledger}
}

// RecentActivity returns the newest entries of one audit stream
// GET /api/audit/{kind}
func (h *AuditHandler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	kind := models.AuditKind(mux.Vars(r)["kind"])

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = defaultActivityLimit
	}

	entries, err := h.Ledger.RecentActivity(r.Context(), kind, limit)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, entries)
}

// CustomerHistory returns every audit entry for one customer in write order
// GET /api/customers/{id}/history
func (h *AuditHandler) CustomerHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid customer id")
		return
	}

	entries, err := h.Ledger.CustomerHistory(r.Context(), id)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, entries)
}

// Summary returns the admin dashboard numbers
// GET /api/summary
func (h *AuditHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Ledger.Summary(r.Context())
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, summary)
}
