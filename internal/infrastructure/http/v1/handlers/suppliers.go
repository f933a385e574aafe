package handlers

import (
	"github.com/gin-gonic/gin"

	"medistock/internal/core/tenant"
	"medistock/internal/domain/catalog/supplier"
)

// SupplierRequest carries the registry fields of a supplier.
type SupplierRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contactPerson"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	GSTNumber     string `json:"gstNumber"`
	PaymentTerms  string `json:"paymentTerms"`
	Notes         string `json:"notes"`
}

// SupplierHandler handles supplier registry requests.
type SupplierHandler struct {
	*BaseHandler
	service *supplier.Service
}

// NewSupplierHandler creates a supplier handler.
func NewSupplierHandler(base *BaseHandler, service *supplier.Service) *SupplierHandler {
	return &SupplierHandler{BaseHandler: base, service: service}
}

// Create registers a new supplier.
func (h *SupplierHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req SupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	sup := supplier.New(companyID, req.Name, req.Phone)
	sup.ContactPerson = req.ContactPerson
	sup.Email = req.Email
	sup.Address = req.Address
	sup.GSTNumber = req.GSTNumber
	sup.PaymentTerms = req.PaymentTerms
	sup.Notes = req.Notes

	if err := h.service.Create(ctx, sup); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, sup)
}

// Get loads one supplier.
func (h *SupplierHandler) Get(c *gin.Context) {
	supplierID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	sup, err := h.service.Get(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, sup)
}

// List returns suppliers matching the query filter.
func (h *SupplierHandler) List(c *gin.Context) {
	filter := supplier.ListFilter{
		Search:     c.Query("search"),
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

// RegisterRoutes registers supplier routes.
func (h *SupplierHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
}
