package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"dues-backend/internal/auth"
	"dues-backend/internal/cache"
	"dues-backend/internal/config"
	"dues-backend/internal/database"
	"dues-backend/internal/db"
	"dues-backend/internal/gateway"
	"dues-backend/internal/handlers"
	"dues-backend/internal/health"
	h "dues-backend/internal/http"
	"dues-backend/internal/mail"
	"dues-backend/internal/middleware"
	"dues-backend/internal/repositories"
	"dues-backend/internal/services"
)

func main() {
	cfg := config.Load()

	// Database
	pool := db.Connect(cfg)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	migrator := database.NewMigrator(pool)
	if err := migrator.RunMigrations(ctx); err != nil {
		cancel()
		log.Fatalf("migrations failed: %v", err)
	}
	cancel()

	// Redis auth cache is optional; logins fall back to bcrypt only
	if err := cache.Init(); err != nil {
		log.Printf("[Redis] Not available, auth caching disabled: %v", err)
	} else {
		log.Println("[Redis] Connected")
	}

	// Repositories
	customerRepo := repositories.NewCustomerRepository(pool)
	dueRecordRepo := repositories.NewDueRecordRepository(pool)
	auditLogRepo := repositories.NewAuditLogRepository(pool)
	paymentOrderRepo := repositories.NewPaymentOrderRepository(pool)
	reconciliationRepo := repositories.NewReconciliationRepository(pool)
	credentialResetRepo := repositories.NewCredentialResetRepository(pool)
	systemSettingRepo := repositories.NewSystemSettingRepository(pool)

	// Outbound notifications
	var notifier mail.Notifier
	if cfg.SMTP.Host != "" && cfg.SMTP.Username != "" {
		notifier = mail.NewSMTPService(cfg.SMTP.Host, cfg.SMTP.Port,
			cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, cfg.SMTP.ShopName)
		log.Printf("[Mail] SMTP notifications via %s", cfg.SMTP.Host)
	} else {
		notifier = mail.NewMockMailService()
		log.Println("[Mail] SMTP not configured, using mock notifications")
	}

	// Services
	ledgerService := services.NewLedgerService(customerRepo, dueRecordRepo, auditLogRepo, notifier, cfg.SMTP.ShopName)
	credentialService := services.NewCredentialService(ledgerService, credentialResetRepo, notifier,
		cfg.Credentials.ResetHistoryRetentionDays)
	razorpayGateway := gateway.NewRazorpayGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, systemSettingRepo)
	paymentService := services.NewPaymentService(paymentOrderRepo, reconciliationRepo, ledgerService, razorpayGateway,
		cfg.Payment.PollAttempts, cfg.PollInterval())

	// Plaintext reset history retention is enforced at startup
	purgeCtx, purgeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	credentialService.PurgeExpiredHistory(purgeCtx)
	purgeCancel()

	// Replay any captures the ledger missed before the last shutdown
	reconCtx, reconCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if resolved, err := paymentService.ReconcilePayments(reconCtx); err != nil {
		log.Printf("[Payment] startup reconciliation: %v", err)
	} else if resolved > 0 {
		log.Printf("[Payment] startup reconciliation resolved %d capture(s)", resolved)
	}
	reconCancel()

	// Auth
	jwtManager := auth.NewJWTManager(cfg)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, customerRepo)

	// Handlers
	healthChecker := health.NewHealthChecker(pool)
	authHandler := handlers.NewAuthHandler(cfg, jwtManager, credentialService)
	customerHandler := handlers.NewCustomerHandler(ledgerService)
	portalHandler := handlers.NewCustomerPortalHandler(ledgerService)
	credentialHandler := handlers.NewCredentialHandler(credentialService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	auditHandler := handlers.NewAuditHandler(ledgerService)
	settingHandler := handlers.NewSettingHandler(systemSettingRepo)
	healthHandler := handlers.NewHealthHandler(healthChecker)

	router := h.NewRouter(
		authHandler,
		customerHandler,
		portalHandler,
		credentialHandler,
		paymentHandler,
		auditHandler,
		settingHandler,
		healthHandler,
		authMiddleware,
	)

	corsMiddleware := middleware.NewCORS(cfg)
	handler := middleware.PanicRecovery(
		middleware.MetricsMiddleware(
			middleware.RequestLogging(
				corsMiddleware(router))))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
