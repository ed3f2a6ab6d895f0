package stock

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Quantity is a non-negative count decoded leniently from backend payloads.
// Numbers, numeric strings, "" and null are accepted; anything unusable
// decodes to an invalid value that reads as zero.
type Quantity struct {
	Value   int64
	Valid   bool
	present bool
}

// QuantityOf returns a valid Quantity.
func QuantityOf(v int64) Quantity {
	if v < 0 {
		return Quantity{present: true}
	}
	return Quantity{Value: v, Valid: true, present: true}
}

// Int returns the value, or 0 when missing or invalid.
func (q Quantity) Int() int64 {
	if !q.Valid {
		return 0
	}
	return q.Value
}

// Malformed reports a value that was supplied but could not be used.
func (q Quantity) Malformed() bool {
	return q.present && !q.Valid
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	raw, ok := scalarText(data)
	*q = Quantity{}
	if !ok {
		return nil
	}
	q.present = true
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil
	}
	q.Value = int64(math.Round(f))
	q.Valid = true
	return nil
}

// MarshalJSON implements json.Marshaler.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(q.Value, 10)), nil
}

// Price is a non-negative unit price with the same lenient decoding as Quantity.
type Price struct {
	Value   decimal.Decimal
	Valid   bool
	present bool
}

// PriceOf returns a valid Price.
func PriceOf(v decimal.Decimal) Price {
	if v.IsNegative() {
		return Price{present: true}
	}
	return Price{Value: v, Valid: true, present: true}
}

// Decimal returns the value, or zero when missing or invalid.
func (p Price) Decimal() decimal.Decimal {
	if !p.Valid {
		return decimal.Zero
	}
	return p.Value
}

// Malformed reports a value that was supplied but could not be used.
func (p Price) Malformed() bool {
	return p.present && !p.Valid
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Price) UnmarshalJSON(data []byte) error {
	raw, ok := scalarText(data)
	*p = Price{}
	if !ok {
		return nil
	}
	p.present = true
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil
	}
	p.Value = d
	p.Valid = true
	return nil
}

// MarshalJSON implements json.Marshaler. Prices travel as decimal strings.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value.String())
}

// Date is a calendar date at UTC midnight.
type Date struct {
	time.Time
	Valid   bool
	present bool
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true, present: true}
}

// ParseDate parses YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(raw string) (Date, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Date{}, false
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return DateOf(t), true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return DateOf(t), true
	}
	return Date{present: true}, false
}

// Malformed reports a value that was supplied but could not be parsed.
func (d Date) Malformed() bool {
	return d.present && !d.Valid
}

// String formats the date as YYYY-MM-DD, or "" when missing.
func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	raw, ok := scalarText(data)
	if !ok {
		*d = Date{}
		return nil
	}
	parsed, _ := ParseDate(raw)
	*d = parsed
	d.present = true
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// scalarText returns the textual content of a JSON number or string. It
// reports false for null, empty strings and non-scalar values.
func scalarText(data []byte) (string, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", false
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", false
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return "", false
		}
		return s, true
	}
	if data[0] == '{' || data[0] == '[' {
		return "", true
	}
	return string(data), true
}
