package handlers

import (
	"github.com/gin-gonic/gin"

	"medistock/internal/domain/ledger"
	"medistock/internal/infrastructure/storage/postgres"
)

// AdjustStockRequest applies a manual stock correction.
type AdjustStockRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// StockHandler exposes the stock ledger: manual adjustments, movement
// history and reconciliation.
type StockHandler struct {
	*BaseHandler
	service *ledger.Service
	audit   *postgres.AuditService
}

// NewStockHandler creates a stock handler.
func NewStockHandler(base *BaseHandler, service *ledger.Service, audit *postgres.AuditService) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service, audit: audit}
}

// Adjust applies a manual quantity correction to one product.
func (h *StockHandler) Adjust(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	movement, err := h.service.AdjustStock(ctx, productID, req.Delta, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.audit.Record(ctx, "stock_movement", movement.ID, postgres.AuditActionAdjustment, movement)
	h.Created(c, movement)
}

// Movements returns the movement history of one product, newest first.
func (h *StockHandler) Movements(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	filter := ledger.MovementFilter{
		FromDate: h.ParseTimeQuery(c, "fromDate"),
		ToDate:   h.ParseTimeQuery(c, "toDate"),
		Limit:    h.ParseIntQuery(c, "limit", 50),
		Offset:   h.ParseIntQuery(c, "offset", 0),
	}
	if kind := c.Query("kind"); kind != "" {
		k := ledger.Kind(kind)
		filter.Kind = &k
	}

	items, err := h.service.ListMovements(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": items, "limit": filter.Limit, "offset": filter.Offset})
}

// Reconcile reports the drift between the cached quantity and the sum
// of movements. Zero drift means the ledger and cache agree.
func (h *StockHandler) Reconcile(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	drift, err := h.service.Reconcile(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"productId": productID, "drift": drift})
}

// Repair resets the cached quantity to the sum of movements.
func (h *StockHandler) Repair(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	quantity, err := h.service.Repair(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"productId": productID, "quantity": quantity})
}

// RegisterRoutes registers stock routes under the products group.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/stock/adjust", h.Adjust)
	rg.GET("/:id/stock/movements", h.Movements)
	rg.GET("/:id/stock/reconcile", h.Reconcile)
	rg.POST("/:id/stock/repair", h.Repair)
}
