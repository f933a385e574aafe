// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"medistock/internal/domain/alerts"
	"medistock/internal/domain/auth"
	"medistock/internal/domain/catalog/customer"
	"medistock/internal/domain/catalog/product"
	"medistock/internal/domain/catalog/supplier"
	"medistock/internal/domain/ledger"
	"medistock/internal/domain/purchases"
	"medistock/internal/domain/returns"
	"medistock/internal/domain/sales"
	"medistock/internal/infrastructure/http/v1/handlers"
	"medistock/internal/infrastructure/http/v1/middleware"
	"medistock/internal/infrastructure/storage/postgres"
	"medistock/pkg/logger"
)

// RouterConfig holds everything the router wires together.
type RouterConfig struct {
	Logger       *logger.Logger
	JWTValidator middleware.JWTValidator
	Version      string

	AuthService     *auth.Service
	ProductService  *product.Service
	CustomerService *customer.Service
	SupplierService *supplier.Service
	LedgerService   *ledger.Service
	SalesService    *sales.Service
	PurchaseService *purchases.Service
	ReturnsService  *returns.Service
	AlertsService   *alerts.Service

	Audit *postgres.AuditService
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Order matters: recovery outermost, then trace so the logger and
	// error handler see request ids.
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	base := handlers.NewBaseHandler()

	handlers.NewHealthHandler(cfg.Version).RegisterRoutes(&router.RouterGroup)

	api := router.Group("/api/v1")
	{
		handlers.NewAuthHandler(base, cfg.AuthService).RegisterRoutes(api.Group("/auth"))

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		productsGroup := protected.Group("/products")
		productHandler := handlers.NewProductHandler(base, cfg.ProductService)
		productHandler.RegisterRoutes(productsGroup)
		handlers.NewStockHandler(base, cfg.LedgerService, cfg.Audit).RegisterRoutes(productsGroup)

		handlers.NewCustomerHandler(base, cfg.CustomerService, cfg.Audit).RegisterRoutes(protected.Group("/customers"))
		handlers.NewSupplierHandler(base, cfg.SupplierService).RegisterRoutes(protected.Group("/suppliers"))
		handlers.NewSalesHandler(base, cfg.SalesService, cfg.Audit).RegisterRoutes(protected.Group("/sales"))
		handlers.NewPurchasesHandler(base, cfg.PurchaseService, cfg.Audit).RegisterRoutes(protected.Group("/purchases"))
		handlers.NewReturnsHandler(base, cfg.ReturnsService, cfg.Audit).RegisterRoutes(protected.Group("/returns"))
		handlers.NewAlertsHandler(base, cfg.AlertsService).RegisterRoutes(protected.Group("/alerts"))
	}

	return router
}
