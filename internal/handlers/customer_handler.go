package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"dues-backend/internal/models"
	"dues-backend/internal/services"
	"dues-backend/internal/timeutil"
	"dues-backend/pkg/utils"
)

type CustomerHandler struct {
	Ledger *services.LedgerService
}

func NewCustomerHandler(ledger *services.LedgerService) *CustomerHandler {
	return &CustomerHandler{Ledger: ledger}
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// CreateCustomer adds a customer and returns the generated credentials once
// POST /api/customers
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customer, creds, err := h.Ledger.AddCustomer(r.Context(), &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, map[string]interface{}{
		"customer":    customer,
		"credentials": creds,
	})
}

// ListCustomers returns all active customers
// GET /api/customers
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Ledger.ListCustomers(r.Context())
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, customers)
}

// GetCustomer returns one active customer
// GET /api/customers/{id}
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid customer id")
		return
	}

	customer, err := h.Ledger.GetCustomer(r.Context(), id)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, customer)
}

// UpdateDue replaces a customer's outstanding due
// PUT /api/customers/{id}/due
func (h *CustomerHandler) UpdateDue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid customer id")
		return
	}

	var req models.UpdateDueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customer, err := h.Ledger.UpdateDue(r.Context(), id, req.NewDue)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, customer)
}

// PartialPayment records an offline payment against the due
// POST /api/customers/{id}/partial-payment
func (h *CustomerHandler) PartialPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid customer id")
		return
	}

	var req models.PartialPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customer, err := h.Ledger.ApplyPartialPayment(r.Context(), id, req.Amount)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, customer)
}

// DeleteCustomer removes a customer permanently
// DELETE /api/customers/{id}
func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid customer id")
		return
	}

	snapshot, err := h.Ledger.DeleteCustomer(r.Context(), id)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, snapshot)
}

// DeleteAll removes every customer, reporting per-customer failures
// DELETE /api/customers
func (h *CustomerHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.Ledger.DeleteAll(r.Context())
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, result)
}

// ListDues returns the due projection with overdue bands, oldest first
// GET /api/dues
func (h *CustomerHandler) ListDues(w http.ResponseWriter, r *http.Request) {
	records, err := h.Ledger.ListDueRecords(r.Context())
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	now := timeutil.Now()
	type dueRow struct {
		*models.DueRecord
		OverdueBand string `json:"overdue_band,omitempty"`
	}
	rows := make([]dueRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, dueRow{DueRecord: rec, OverdueBand: rec.OverdueBand(now)})
	}
	utils.JSON(w, http.StatusOK, rows)
}
