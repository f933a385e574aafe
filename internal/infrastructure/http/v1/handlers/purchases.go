package handlers

import (
	"github.com/gin-gonic/gin"

	"medistock/internal/domain/purchases"
	"medistock/internal/infrastructure/storage/postgres"
)

// PurchasesHandler handles purchase receipt requests.
type PurchasesHandler struct {
	*BaseHandler
	service *purchases.Service
	audit   *postgres.AuditService
}

// NewPurchasesHandler creates a purchases handler.
func NewPurchasesHandler(base *BaseHandler, service *purchases.Service, audit *postgres.AuditService) *PurchasesHandler {
	return &PurchasesHandler{BaseHandler: base, service: service, audit: audit}
}

// Create receives goods: records the purchase, adds stock and updates
// batch info atomically.
func (h *PurchasesHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req purchases.CreatePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	purchase, err := h.service.CreatePurchase(ctx, req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.audit.Record(ctx, "purchase", purchase.ID, postgres.AuditActionPurchase, purchase)
	h.Created(c, purchase)
}

// Get loads one purchase with its lines.
func (h *PurchasesHandler) Get(c *gin.Context) {
	purchaseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	purchase, err := h.service.GetPurchase(c.Request.Context(), purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, purchase)
}

// List returns purchases matching the query filter.
func (h *PurchasesHandler) List(c *gin.Context) {
	filter := purchases.ListFilter{
		Search:     c.Query("search"),
		SupplierID: h.ParseIDQuery(c, "supplierId"),
		Status:     c.Query("status"),
		FromDate:   h.ParseTimeQuery(c, "fromDate"),
		ToDate:     h.ParseTimeQuery(c, "toDate"),
		Limit:      h.ParseIntQuery(c, "limit", 20),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	items, err := h.service.ListPurchases(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": items, "limit": filter.Limit, "offset": filter.Offset})
}

// Pay marks a purchase as paid.
func (h *PurchasesHandler) Pay(c *gin.Context) {
	ctx := c.Request.Context()

	purchaseID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	purchase, err := h.service.RecordPayment(ctx, purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.audit.Record(ctx, "purchase", purchase.ID, postgres.AuditActionPayment, purchase)
	h.OK(c, purchase)
}

// RegisterRoutes registers purchase routes.
func (h *PurchasesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/pay", h.Pay)
}
