package handlers

import (
	"github.com/gin-gonic/gin"

	"medistock/internal/core/tenant"
	"medistock/internal/core/types"
	"medistock/internal/domain/catalog/customer"
	"medistock/internal/infrastructure/storage/postgres"
)

// CustomerRequest carries the registry fields of a customer.
type CustomerRequest struct {
	Name        string      `json:"name"`
	Phone       string      `json:"phone"`
	Email       string      `json:"email"`
	Address     string      `json:"address"`
	GSTNumber   string      `json:"gstNumber"`
	CreditLimit types.Money `json:"creditLimit"`
}

// PaymentRequest records a payment against the credit balance.
type PaymentRequest struct {
	Amount types.Money `json:"amount"`
}

// CustomerHandler handles customer registry requests.
type CustomerHandler struct {
	*BaseHandler
	service *customer.Service
	audit   *postgres.AuditService
}

// NewCustomerHandler creates a customer handler.
func NewCustomerHandler(base *BaseHandler, service *customer.Service, audit *postgres.AuditService) *CustomerHandler {
	return &CustomerHandler{BaseHandler: base, service: service, audit: audit}
}

// Create registers a new customer.
func (h *CustomerHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req CustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	cust := customer.New(companyID, req.Name, req.Phone)
	cust.Email = req.Email
	cust.Address = req.Address
	cust.GSTNumber = req.GSTNumber
	cust.CreditLimit = req.CreditLimit

	if err := h.service.Create(ctx, cust); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, cust)
}

// Get loads one customer.
func (h *CustomerHandler) Get(c *gin.Context) {
	customerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	cust, err := h.service.Get(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, cust)
}

// List returns customers matching the query filter.
func (h *CustomerHandler) List(c *gin.Context) {
	filter := customer.ListFilter{
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

// RecordPayment lowers the customer's running credit balance.
func (h *CustomerHandler) RecordPayment(c *gin.Context) {
	ctx := c.Request.Context()

	customerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.RecordPayment(ctx, customerID, req.Amount); err != nil {
		h.Error(c, err)
		return
	}

	h.audit.Record(ctx, "customer", customerID, postgres.AuditActionPayment, req)

	cust, err := h.service.Get(ctx, customerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, cust)
}

// RegisterRoutes registers customer routes.
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/payments", h.RecordPayment)
}
