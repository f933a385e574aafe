package handlers

import (
	"github.com/gin-gonic/gin"

	"medistock/internal/core/id"
	"medistock/internal/domain/returns"
	"medistock/internal/infrastructure/storage/postgres"
)

// SaleReturnRequest returns part of one sold line, or the whole sale
// when ProductID is absent. RefundMode defaults to cash.
type SaleReturnRequest struct {
	SaleID     id.ID              `json:"saleId"`
	ProductID  *id.ID             `json:"productId"`
	Quantity   int                `json:"quantity"`
	Reason     string             `json:"reason"`
	RefundMode returns.RefundMode `json:"refundMode"`
}

// PurchaseReturnRequest sends received goods back to the supplier.
type PurchaseReturnRequest struct {
	PurchaseID  id.ID  `json:"purchaseId"`
	ProductID   id.ID  `json:"productId"`
	BatchNumber string `json:"batchNumber"`
	Quantity    int    `json:"quantity"`
	Reason      string `json:"reason"`
}

// ReturnsHandler handles credit note requests.
type ReturnsHandler struct {
	*BaseHandler
	service *returns.Service
	audit   *postgres.AuditService
}

// NewReturnsHandler creates a returns handler.
func NewReturnsHandler(base *BaseHandler, service *returns.Service, audit *postgres.AuditService) *ReturnsHandler {
	return &ReturnsHandler{BaseHandler: base, service: service, audit: audit}
}

// CreateSaleReturn processes a sale return. Without a product it
// returns everything still outstanding on the invoice.
func (h *ReturnsHandler) CreateSaleReturn(c *gin.Context) {
	ctx := c.Request.Context()

	var req SaleReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if req.ProductID == nil {
		items, err := h.service.ReturnSaleFull(ctx, req.SaleID, req.Reason, req.RefundMode)
		if err != nil {
			h.Error(c, err)
			return
		}
		for _, ret := range items {
			h.audit.Record(ctx, "return", ret.ID, postgres.AuditActionReturn, ret)
		}
		h.Created(c, gin.H{"items": items})
		return
	}

	ret, err := h.service.ReturnSaleLine(ctx, req.SaleID, *req.ProductID, req.Quantity, req.Reason, req.RefundMode)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.audit.Record(ctx, "return", ret.ID, postgres.AuditActionReturn, ret)
	h.Created(c, ret)
}

// CreatePurchaseReturn processes a purchase return.
func (h *ReturnsHandler) CreatePurchaseReturn(c *gin.Context) {
	ctx := c.Request.Context()

	var req PurchaseReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ret, err := h.service.ReturnPurchaseLine(ctx, req.PurchaseID, req.ProductID, req.BatchNumber, req.Quantity, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.audit.Record(ctx, "return", ret.ID, postgres.AuditActionReturn, ret)
	h.Created(c, ret)
}

// List returns credit notes matching the query filter.
func (h *ReturnsHandler) List(c *gin.Context) {
	filter := returns.ListFilter{
		FromDate: h.ParseTimeQuery(c, "fromDate"),
		ToDate:   h.ParseTimeQuery(c, "toDate"),
		Limit:    h.ParseIntQuery(c, "limit", 20),
		Offset:   h.ParseIntQuery(c, "offset", 0),
	}
	if kind := c.Query("kind"); kind != "" {
		k := returns.Kind(kind)
		filter.Kind = &k
	}

	items, err := h.service.ListReturns(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": items, "limit": filter.Limit, "offset": filter.Offset})
}

// RegisterRoutes registers return routes.
func (h *ReturnsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("/sale", h.CreateSaleReturn)
	rg.POST("/purchase", h.CreatePurchaseReturn)
}
