package alerts

import "time"

// Severity describes how urgent a backend-raised condition is.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Severities lists known severities from most to least urgent.
var Severities = []Severity{SeverityCritical, SeverityWarning, SeverityMedium, SeverityLow}

// Rank orders severities for display. Unknown values rank with LOW.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityWarning:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// Normalize maps unknown severities to LOW for grouping.
func (s Severity) Normalize() Severity {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityMedium:
		return s
	default:
		return SeverityLow
	}
}

// Type identifies the condition that raised the alert.
type Type string

const (
	TypeStockout Type = "STOCKOUT"
	TypeLowStock Type = "LOW_STOCK"
	TypeExpiry   Type = "EXPIRY"
	TypeQuality  Type = "QUALITY"
	TypeOther    Type = "OTHER"
)

// Alert is a backend-raised condition. Alerts are created server side and
// only resolved from here.
type Alert struct {
	ID               int64      `json:"id"`
	Type             Type       `json:"alert_type"`
	Severity         Severity   `json:"severity"`
	Title            string     `json:"title,omitempty"`
	Message          string     `json:"message,omitempty"`
	HealthFacilityID *int64     `json:"health_facility,omitempty"`
	MedicationID     *int64     `json:"medication,omitempty"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	ResolvedAt       *time.Time `json:"resolved_at"`
}

// ListFilter narrows alerts fetched from the backend.
type ListFilter struct {
	ActiveOnly       bool
	HealthFacilityID int64
	Type             Type
}

// ResolvePatch is the update sent to resolve an alert.
type ResolvePatch struct {
	IsActive   bool      `json:"is_active"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// SeverityCounts maps each severity to a number of active alerts.
type SeverityCounts map[Severity]int
