package handlers

import (
	"github.com/gin-gonic/gin"

	"medistock/internal/domain/sales"
	"medistock/internal/infrastructure/storage/postgres"
)

// CancelSaleRequest carries the caller's cancellation reason.
type CancelSaleRequest struct {
	Reason string `json:"reason"`
}

// SalesHandler handles sale invoice requests.
type SalesHandler struct {
	*BaseHandler
	service *sales.Service
	audit   *postgres.AuditService
}

// NewSalesHandler creates a sales handler.
func NewSalesHandler(base *BaseHandler, service *sales.Service, audit *postgres.AuditService) *SalesHandler {
	return &SalesHandler{BaseHandler: base, service: service, audit: audit}
}

// Create processes a sale: prices the lines, deducts stock and issues
// the invoice atomically.
func (h *SalesHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req sales.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.service.CreateSale(ctx, req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.audit.Record(ctx, "sale", sale.ID, postgres.AuditActionSale, sale)
	h.Created(c, sale)
}

// Get loads one sale with its lines.
func (h *SalesHandler) Get(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	sale, err := h.service.GetSale(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, sale)
}

// List returns sales matching the query filter.
func (h *SalesHandler) List(c *gin.Context) {
	filter := sales.ListFilter{
		Search:   c.Query("search"),
		FromDate: h.ParseTimeQuery(c, "fromDate"),
		ToDate:   h.ParseTimeQuery(c, "toDate"),
		Limit:    h.ParseIntQuery(c, "limit", 20),
		Offset:   h.ParseIntQuery(c, "offset", 0),
	}

	items, err := h.service.ListSales(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": items, "limit": filter.Limit, "offset": filter.Offset})
}

// Cancel voids an invoice and restocks every line.
func (h *SalesHandler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	// The reason body is optional.
	var req CancelSaleRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.service.CancelSale(ctx, saleID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.audit.Record(ctx, "sale", sale.ID, postgres.AuditActionCancel, sale)
	h.OK(c, sale)
}

// RegisterRoutes registers sale routes.
func (h *SalesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/cancel", h.Cancel)
}
