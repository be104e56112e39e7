package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"dues-backend/internal/middleware"
	"dues-backend/internal/models"
	"dues-backend/internal/services"
	"dues-backend/pkg/utils"
)

type PaymentHandler struct {
	Service *services.PaymentService
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{Service: service}
}

// CreateOrder starts a UPI collect for the caller's full outstanding due
// POST /api/payment/order
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.GetCustomerIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CreatePaymentOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.Service.CreateOrder(r.Context(), customerID, &req)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

// OrderStatus returns the current status of the caller's order
// GET /api/payment/order/{orderID}/status
func (h *PaymentHandler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.GetCustomerIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	orderID := mux.Vars(r)["orderID"]
	resp, err := h.Service.GetOrderStatus(r.Context(), customerID, orderID)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

// ListTransactions returns payment order history for the admin view
// GET /api/admin/transactions
func (h *PaymentHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.Service.ListTransactions(r.Context(), limit, offset)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, orders)
}

// Reconcile replays queued captures into the ledger
// POST /api/admin/reconcile
func (h *PaymentHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	resolved, err := h.Service.ReconcilePayments(r.Context())
	if err != nil {
		utils.ServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]int{"resolved": resolved})
}
