package handlers

import (
	"github.com/gin-gonic/gin"

	"medistock/internal/domain/alerts"
)

// AlertsHandler handles inventory alert requests.
type AlertsHandler struct {
	*BaseHandler
	service *alerts.Service
}

// NewAlertsHandler creates an alerts handler.
func NewAlertsHandler(base *BaseHandler, service *alerts.Service) *AlertsHandler {
	return &AlertsHandler{BaseHandler: base, service: service}
}

// Scan evaluates every rule against the active catalog and raises
// alerts for products that match.
func (h *AlertsHandler) Scan(c *gin.Context) {
	raised, err := h.service.Scan(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"raised": raised, "count": len(raised)})
}

// List returns alerts matching the query filter.
func (h *AlertsHandler) List(c *gin.Context) {
	filter := alerts.ListFilter{
		ProductID: h.ParseIDQuery(c, "productId"),
		RuleName:  c.Query("rule"),
		OnlyOpen:  c.Query("includeAcknowledged") != "true",
		Limit:     h.ParseIntQuery(c, "limit", 50),
		Offset:    h.ParseIntQuery(c, "offset", 0),
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": items, "limit": filter.Limit, "offset": filter.Offset})
}

// Acknowledge closes an alert.
func (h *AlertsHandler) Acknowledge(c *gin.Context) {
	alertID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Acknowledge(c.Request.Context(), alertID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers alert routes.
func (h *AlertsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("/scan", h.Scan)
	rg.POST("/:id/acknowledge", h.Acknowledge)
}
