// Package main is the entry point for the medistock API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medistock/internal/domain/alerts"
	"medistock/internal/domain/auth"
	"medistock/internal/domain/catalog/customer"
	"medistock/internal/domain/catalog/product"
	"medistock/internal/domain/catalog/supplier"
	"medistock/internal/domain/ledger"
	"medistock/internal/domain/purchases"
	"medistock/internal/domain/returns"
	"medistock/internal/domain/sales"
	v1 "medistock/internal/infrastructure/http/v1"
	"medistock/internal/infrastructure/storage/postgres"
	"medistock/pkg/logger"
	"medistock/pkg/refnum"
)

const version = "1.0.0"

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting medistock server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	productRepo := postgres.NewProductRepo(txManager)
	customerRepo := postgres.NewCustomerRepo(txManager)
	supplierRepo := postgres.NewSupplierRepo(txManager)
	movementRepo := postgres.NewMovementRepo(txManager)
	saleRepo := postgres.NewSaleRepo(txManager)
	purchaseRepo := postgres.NewPurchaseRepo(txManager)
	returnRepo := postgres.NewReturnRepo(txManager)
	alertRepo := postgres.NewAlertRepo(txManager)
	userRepo := postgres.NewUserRepo(txManager)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Services ---
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(mustEnv("JWT_SECRET")))
	authService := auth.NewService(userRepo, jwtService, auth.DefaultServiceConfig())

	numbers := refnum.New()

	ledgerService := ledger.NewService(movementRepo, productRepo, txManager)
	productService := product.NewService(productRepo)
	customerService := customer.NewService(customerRepo, txManager)
	supplierService := supplier.NewService(supplierRepo)
	salesService := sales.NewService(saleRepo, productRepo, customerRepo, ledgerService, numbers, txManager)
	purchaseService := purchases.NewService(purchaseRepo, productRepo, ledgerService, numbers, txManager)
	returnsService := returns.NewService(returnRepo, saleRepo, purchaseRepo, productRepo, customerRepo, ledgerService, numbers, txManager)

	rules, err := alerts.CompileRules(alerts.DefaultRules())
	if err != nil {
		log.Fatalw("failed to compile alert rules", "error", err)
	}
	alertsService := alerts.NewService(alertRepo, productRepo, rules)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		JWTValidator: jwtService,
		Version:      version,

		AuthService:     authService,
		ProductService:  productService,
		CustomerService: customerService,
		SupplierService: supplierService,
		LedgerService:   ledgerService,
		SalesService:    salesService,
		PurchaseService: purchaseService,
		ReturnsService:  returnsService,
		AlertsService:   alertsService,

		Audit: auditService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
