package http

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dues-backend/internal/handlers"
	"dues-backend/internal/middleware"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	customerHandler *handlers.CustomerHandler,
	portalHandler *handlers.CustomerPortalHandler,
	credentialHandler *handlers.CredentialHandler,
	paymentHandler *handlers.PaymentHandler,
	auditHandler *handlers.AuditHandler,
	settingHandler *handlers.SettingHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Public routes - Authentication
	r.HandleFunc("/auth/admin/login", authHandler.AdminLogin).Methods("POST")
	r.HandleFunc("/auth/customer/login", authHandler.CustomerLogin).Methods("POST")

	// Health and metrics
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Admin API - Customers and the ledger
	customersAPI := r.PathPrefix("/api/customers").Subrouter()
	customersAPI.Use(authMiddleware.RequireAdmin)
	customersAPI.HandleFunc("", customerHandler.ListCustomers).Methods("GET")
	customersAPI.HandleFunc("", customerHandler.CreateCustomer).Methods("POST")
	customersAPI.HandleFunc("", customerHandler.DeleteAll).Methods("DELETE")
	customersAPI.HandleFunc("/{id}", customerHandler.GetCustomer).Methods("GET")
	customersAPI.HandleFunc("/{id}", customerHandler.DeleteCustomer).Methods("DELETE")
	customersAPI.HandleFunc("/{id}/due", customerHandler.UpdateDue).Methods("PUT")
	customersAPI.HandleFunc("/{id}/partial-payment", customerHandler.PartialPayment).Methods("POST")
	customersAPI.HandleFunc("/{id}/history", auditHandler.CustomerHistory).Methods("GET")
	customersAPI.HandleFunc("/{id}/credentials", credentialHandler.ResetCredentials).Methods("POST")
	customersAPI.HandleFunc("/{id}/credential-resets", credentialHandler.ResetHistory).Methods("GET")

	// Admin API - Dues, activity, dashboard
	adminAPI := r.PathPrefix("/api").Subrouter()
	adminAPI.Use(authMiddleware.RequireAdmin)
	adminAPI.HandleFunc("/dues", customerHandler.ListDues).Methods("GET")
	adminAPI.HandleFunc("/audit/{kind}", auditHandler.RecentActivity).Methods("GET")
	adminAPI.HandleFunc("/summary", auditHandler.Summary).Methods("GET")
	adminAPI.HandleFunc("/admin/transactions", paymentHandler.ListTransactions).Methods("GET")
	adminAPI.HandleFunc("/admin/reconcile", paymentHandler.Reconcile).Methods("POST")
	adminAPI.HandleFunc("/admin/gateway-credentials", settingHandler.GetGatewayCredentials).Methods("GET")
	adminAPI.HandleFunc("/admin/gateway-credentials", settingHandler.UpdateGatewayCredentials).Methods("POST", "PUT")

	// Customer portal API
	portalAPI := r.PathPrefix("/api/me").Subrouter()
	portalAPI.Use(authMiddleware.RequireCustomer)
	portalAPI.HandleFunc("", portalHandler.Me).Methods("GET")
	portalAPI.HandleFunc("", portalHandler.DeleteMe).Methods("DELETE")
	portalAPI.HandleFunc("/history", portalHandler.History).Methods("GET")

	// Customer payment API
	paymentAPI := r.PathPrefix("/api/payment").Subrouter()
	paymentAPI.Use(authMiddleware.RequireCustomer)
	paymentAPI.HandleFunc("/order", paymentHandler.CreateOrder).Methods("POST")
	paymentAPI.HandleFunc("/order/{orderID}/status", paymentHandler.OrderStatus).Methods("GET")

	return r
}
