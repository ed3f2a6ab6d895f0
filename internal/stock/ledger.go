package stock

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

const day = 24 * time.Hour

// DaysUntilExpiry returns floor((expiry - asOf) / 1 day), counted in UTC
// calendar days: asOf is cut to its day first. The second result is false when
// the entry has no usable expiry date.
func DaysUntilExpiry(entry StockEntry, asOf time.Time) (int, bool) {
	if !entry.ExpiryDate.Valid {
		return 0, false
	}
	delta := entry.ExpiryDate.Time.Sub(DateOf(asOf.UTC()).Time)
	return int(math.Floor(float64(delta) / float64(day))), true
}

// ClassifyExpiry places the entry in the expiry taxonomy as of asOf. A batch
// expiring today is already EXPIRED.
func ClassifyExpiry(entry StockEntry, asOf time.Time) ExpiryStatus {
	days, ok := DaysUntilExpiry(entry, asOf)
	switch {
	case !ok:
		return ExpiryNormal
	case days <= 0:
		return ExpiryExpired
	case days <= ExpiryWindowDays:
		return ExpiryExpiringSoon
	default:
		return ExpiryNormal
	}
}

// Aggregate totals the entries. Missing or invalid numbers count as zero.
func Aggregate(entries []StockEntry, asOf time.Time) Summary {
	summary := Summary{TotalItems: len(entries), TotalValue: decimal.Zero}
	for _, e := range entries {
		summary.TotalQuantityDelivered += e.QuantityDelivered.Int()
		summary.TotalValue = summary.TotalValue.Add(e.LineValue())
		switch ClassifyExpiry(e, asOf) {
		case ExpiryExpired:
			summary.ExpiredCount++
		case ExpiryExpiringSoon:
			summary.ExpiringSoonCount++
		}
	}
	return summary
}

// ReceptionRate is the delivered share of the ordered quantity, in percent.
// Batches without an ordered quantity count as fully received.
func ReceptionRate(entry StockEntry) int {
	ordered := entry.QuantityOrdered.Int()
	if ordered <= 0 {
		return 100
	}
	delivered := entry.QuantityDelivered.Int()
	return int(math.Round(100 * float64(delivered) / float64(ordered)))
}

// FilterByFreeText keeps entries whose medication name, batch number or
// supplier contains term, ignoring case. A blank term keeps everything.
func FilterByFreeText(entries []StockEntry, term string) []StockEntry {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(term))
	if needle == "" {
		return entries
	}
	out := make([]StockEntry, 0, len(entries))
	for _, e := range entries {
		for _, field := range [...]string{e.MedicationName, e.BatchNumber, e.Supplier} {
			if field != "" && strings.Contains(fold.String(field), needle) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// BuildLedger annotates entries and computes their summary.
func BuildLedger(entries []StockEntry, asOf time.Time) Ledger {
	rows := make([]LedgerRow, 0, len(entries))
	for _, e := range entries {
		row := LedgerRow{
			StockEntry:    e,
			Status:        ClassifyExpiry(e, asOf),
			ReceptionRate: ReceptionRate(e),
			Value:         e.LineValue(),
		}
		if days, ok := DaysUntilExpiry(e, asOf); ok {
			row.DaysUntilExpiry = &days
		}
		rows = append(rows, row)
	}
	return Ledger{AsOf: asOf, Rows: rows, Summary: Aggregate(entries, asOf)}
}
