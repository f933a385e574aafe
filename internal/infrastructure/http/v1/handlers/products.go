package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"medistock/internal/core/tenant"
	"medistock/internal/core/types"
	"medistock/internal/domain/catalog/product"
)

// ProductRequest carries the catalog fields of a product. Quantity is
// absent on purpose; only the stock ledger changes it.
type ProductRequest struct {
	Name         string `json:"name"`
	GenericName  string `json:"genericName"`
	Brand        string `json:"brand"`
	Category     string `json:"category"`
	Manufacturer string `json:"manufacturer"`

	SKU     string `json:"sku"`
	Barcode string `json:"barcode"`

	PurchasePrice types.Money `json:"purchasePrice"`
	SellingPrice  types.Money `json:"sellingPrice"`
	MRP           types.Money `json:"mrp"`
	TaxPercentage types.Money `json:"taxPercentage"`

	MinimumStockLevel *int `json:"minimumStockLevel"`
	ReorderLevel      *int `json:"reorderLevel"`

	PrescriptionRequired bool   `json:"prescriptionRequired"`
	Description          string `json:"description"`
}

func (r ProductRequest) applyTo(p *product.Product) {
	p.Name = r.Name
	p.GenericName = r.GenericName
	p.Brand = r.Brand
	p.Category = r.Category
	p.Manufacturer = r.Manufacturer
	p.SKU = r.SKU
	p.Barcode = r.Barcode
	p.PurchasePrice = r.PurchasePrice
	p.SellingPrice = r.SellingPrice
	p.MRP = r.MRP
	p.TaxPercentage = r.TaxPercentage
	if r.MinimumStockLevel != nil {
		p.MinimumStockLevel = *r.MinimumStockLevel
	}
	if r.ReorderLevel != nil {
		p.ReorderLevel = *r.ReorderLevel
	}
	p.PrescriptionRequired = r.PrescriptionRequired
	p.Description = r.Description
}

// ProductHandler handles product catalog requests.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
}

// NewProductHandler creates a product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service}
}

// Create registers a new product.
func (h *ProductHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req ProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	p := product.New(companyID, req.Name, req.SKU)
	req.applyTo(p)

	if err := h.service.Create(ctx, p); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p)
}

// Get loads one product.
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// Update replaces the catalog fields of a product.
func (h *ProductHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Get(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.applyTo(p)

	if err := h.service.Update(ctx, p); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// Deactivate soft-deletes a product.
func (h *ProductHandler) Deactivate(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), productID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List returns products matching the query filter.
func (h *ProductHandler) List(c *gin.Context) {
	filter := product.ListFilter{
		Search:     c.Query("search"),
		Category:   c.Query("category"),
		OnlyActive: c.Query("includeInactive") != "true",
		Limit:      h.ParseIntQuery(c, "limit", 20),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": items, "limit": filter.Limit, "offset": filter.Offset})
}

// LowStock returns products at or below their minimum stock level.
func (h *ProductHandler) LowStock(c *gin.Context) {
	items, err := h.service.LowStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": items})
}

// Expiring returns products whose batch expires within the given days,
// 90 by default.
func (h *ProductHandler) Expiring(c *gin.Context) {
	days := h.ParseIntQuery(c, "days", 90)

	items, err := h.service.Expiring(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": items})
}

// RegisterRoutes registers product routes.
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/low-stock", h.LowStock)
	rg.GET("/expiring", h.Expiring)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Deactivate)
}
