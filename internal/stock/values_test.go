package stock

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestQuantityDecodesLeniently(t *testing.T) {
	cases := []struct {
		raw       string
		valid     bool
		value     int64
		malformed bool
	}{
		{`12`, true, 12, false},
		{`"12"`, true, 12, false},
		{`12.6`, true, 13, false},
		{`null`, false, 0, false},
		{`""`, false, 0, false},
		{`"abc"`, false, 0, true},
		{`-3`, false, 0, true},
		{`"1e400"`, false, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			var q Quantity
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &q))
			require.Equal(t, tc.valid, q.Valid)
			require.Equal(t, tc.value, q.Int())
			require.Equal(t, tc.malformed, q.Malformed())
		})
	}
}

func TestMissingQuantityFieldIsNotMalformed(t *testing.T) {
	var e StockEntry
	require.NoError(t, json.Unmarshal([]byte(`{"id": 3}`), &e))
	require.False(t, e.QuantityOrdered.Valid)
	require.False(t, e.QuantityOrdered.Malformed())
}

func TestPriceDecodesLeniently(t *testing.T) {
	var p Price
	require.NoError(t, json.Unmarshal([]byte(`"12.345"`), &p))
	require.True(t, p.Valid)
	require.True(t, p.Decimal().Equal(decimal.RequireFromString("12.345")))

	require.NoError(t, json.Unmarshal([]byte(`7`), &p))
	require.True(t, p.Decimal().Equal(decimal.NewFromInt(7)))

	require.NoError(t, json.Unmarshal([]byte(`"-1"`), &p))
	require.False(t, p.Valid)
	require.True(t, p.Malformed())
	require.True(t, p.Decimal().IsZero())

	require.NoError(t, json.Unmarshal([]byte(`null`), &p))
	require.False(t, p.Malformed())
}

func TestValuesMarshal(t *testing.T) {
	entry := StockEntry{
		ID:                9,
		ExpiryDate:        DateOf(time.Date(2025, 3, 4, 13, 0, 0, 0, time.UTC)),
		QuantityDelivered: QuantityOf(5),
		UnitPrice:         PriceOf(decimal.RequireFromString("2.50")),
	}
	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, "2025-03-04", raw["expiry_date"])
	require.Nil(t, raw["delivery_date"])
	require.EqualValues(t, 5, raw["quantity_delivered"])
	require.Nil(t, raw["quantity_ordered"])
	require.Equal(t, "2.5", raw["unit_price"])
}

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("2024-02-29")
	require.True(t, ok)
	require.Equal(t, "2024-02-29", d.String())

	d, ok = ParseDate("2024-02-29T23:30:00Z")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d.Time)

	d, ok = ParseDate("29/02/2024")
	require.False(t, ok)
	require.True(t, d.Malformed())

	_, ok = ParseDate("")
	require.False(t, ok)
}
