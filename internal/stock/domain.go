package stock

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockEntry is one delivered batch of a medication under a project.
type StockEntry struct {
	ID                int64    `json:"id"`
	ProjectID         int64    `json:"project"`
	MedicationID      int64    `json:"medication"`
	MedicationName    string   `json:"medication_name,omitempty"`
	DeliveryDate      Date     `json:"delivery_date"`
	ExpiryDate        Date     `json:"expiry_date"`
	QuantityOrdered   Quantity `json:"quantity_ordered"`
	QuantityDelivered Quantity `json:"quantity_delivered"`
	UnitPrice         Price    `json:"unit_price"`
	Supplier          string   `json:"supplier,omitempty"`
	BatchNumber       string   `json:"batch_number,omitempty"`
}

// LineValue is quantity delivered times unit price; missing parts count as zero.
func (e StockEntry) LineValue() decimal.Decimal {
	return decimal.NewFromInt(e.QuantityDelivered.Int()).Mul(e.UnitPrice.Decimal())
}

// Project carries the reorder scheduling parameters of a supply project.
// They are displayed as-is; nothing here computes on them.
type Project struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	OrderFrequencyMonths int    `json:"order_frequency_months"`
	DeliveryDelayMonths  int    `json:"delivery_delay_months"`
	BufferStockMonths    int    `json:"buffer_stock_months"`
}

// ExpiryStatus classifies a batch against its expiry date.
type ExpiryStatus string

const (
	// ExpiryExpired marks batches at or past their expiry date.
	ExpiryExpired ExpiryStatus = "EXPIRED"
	// ExpiryExpiringSoon marks batches inside the expiry window.
	ExpiryExpiringSoon ExpiryStatus = "EXPIRING_SOON"
	// ExpiryNormal covers everything else, including batches without expiry.
	ExpiryNormal ExpiryStatus = "NORMAL"
)

// ExpiryWindowDays is the lookahead used to flag a batch as expiring soon.
const ExpiryWindowDays = 90

// Summary aggregates a collection of stock entries.
type Summary struct {
	TotalItems             int             `json:"total_items"`
	TotalQuantityDelivered int64           `json:"total_quantity_delivered"`
	TotalValue             decimal.Decimal `json:"total_value"`
	ExpiringSoonCount      int             `json:"expiring_soon_count"`
	ExpiredCount           int             `json:"expired_count"`
}

// LedgerRow is a stock entry annotated with its derived view state.
type LedgerRow struct {
	StockEntry
	Status          ExpiryStatus    `json:"expiry_status"`
	DaysUntilExpiry *int            `json:"days_until_expiry"`
	ReceptionRate   int             `json:"reception_rate"`
	Value           decimal.Decimal `json:"value"`
}

// Ledger is the computed stock view for one request.
type Ledger struct {
	AsOf    time.Time   `json:"as_of"`
	Rows    []LedgerRow `json:"rows"`
	Summary Summary     `json:"summary"`
}

// ListFilter narrows stock entries fetched from the backend.
type ListFilter struct {
	ProjectID    int64
	MedicationID int64
}

// LedgerQuery parameterises the ledger view.
type LedgerQuery struct {
	ListFilter
	Search string
	// AsOf defaults to the current time when zero.
	AsOf time.Time
}

// Input describes a stock receipt to record.
type Input struct {
	ProjectID         int64    `json:"project" validate:"required,gt=0"`
	MedicationID      int64    `json:"medication" validate:"required,gt=0"`
	DeliveryDate      Date     `json:"delivery_date" validate:"required"`
	ExpiryDate        Date     `json:"expiry_date" validate:"required"`
	QuantityOrdered   Quantity `json:"quantity_ordered"`
	QuantityDelivered Quantity `json:"quantity_delivered"`
	UnitPrice         Price    `json:"unit_price"`
	Supplier          string   `json:"supplier,omitempty" validate:"max=255"`
	BatchNumber       string   `json:"batch_number,omitempty" validate:"max=100"`
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	ProjectID         *int64    `json:"project,omitempty"`
	MedicationID      *int64    `json:"medication,omitempty"`
	DeliveryDate      *Date     `json:"delivery_date,omitempty"`
	ExpiryDate        *Date     `json:"expiry_date,omitempty"`
	QuantityOrdered   *Quantity `json:"quantity_ordered,omitempty"`
	QuantityDelivered *Quantity `json:"quantity_delivered,omitempty"`
	UnitPrice         *Price    `json:"unit_price,omitempty"`
	Supplier          *string   `json:"supplier,omitempty"`
	BatchNumber       *string   `json:"batch_number,omitempty"`
}

// Apply returns the entry with the patch merged in.
func (p Patch) Apply(e StockEntry) StockEntry {
	if p.ProjectID != nil {
		e.ProjectID = *p.ProjectID
	}
	if p.MedicationID != nil {
		e.MedicationID = *p.MedicationID
	}
	if p.DeliveryDate != nil {
		e.DeliveryDate = *p.DeliveryDate
	}
	if p.ExpiryDate != nil {
		e.ExpiryDate = *p.ExpiryDate
	}
	if p.QuantityOrdered != nil {
		e.QuantityOrdered = *p.QuantityOrdered
	}
	if p.QuantityDelivered != nil {
		e.QuantityDelivered = *p.QuantityDelivered
	}
	if p.UnitPrice != nil {
		e.UnitPrice = *p.UnitPrice
	}
	if p.Supplier != nil {
		e.Supplier = *p.Supplier
	}
	if p.BatchNumber != nil {
		e.BatchNumber = *p.BatchNumber
	}
	return e
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

func inputFromEntry(e StockEntry) Input {
	return Input{
		ProjectID:         e.ProjectID,
		MedicationID:      e.MedicationID,
		DeliveryDate:      e.DeliveryDate,
		ExpiryDate:        e.ExpiryDate,
		QuantityOrdered:   e.QuantityOrdered,
		QuantityDelivered: e.QuantityDelivered,
		UnitPrice:         e.UnitPrice,
		Supplier:          e.Supplier,
		BatchNumber:       e.BatchNumber,
	}
}
