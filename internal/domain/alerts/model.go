// Package alerts evaluates stock condition rules and records the alerts
// they raise.
package alerts

import (
	"time"

	"medistock/internal/core/id"
)

// Severity of an alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is one raised stock condition for one product. Open until
// acknowledged.
type Alert struct {
	ID        id.ID `db:"id" json:"id"`
	CompanyID id.ID `db:"company_id" json:"companyId"`

	ProductID id.ID    `db:"product_id" json:"productId"`
	RuleName  string   `db:"rule_name" json:"ruleName"`
	Severity  Severity `db:"severity" json:"severity"`
	Message   string   `db:"message" json:"message"`

	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	AcknowledgedAt *time.Time `db:"acknowledged_at" json:"acknowledgedAt,omitempty"`
}

// ListFilter narrows alert listings.
type ListFilter struct {
	ProductID *id.ID
	RuleName  string
	OnlyOpen  bool
	Limit     int
	Offset    int
}
