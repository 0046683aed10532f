package pricing

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculateCoffeeAndLatte(t *testing.T) {
	totals := Calculate([]Line{
		{Price: dec("120"), Quantity: 1},
		{Price: dec("150"), Quantity: 2},
	})

	assert.Equal(t, "420.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "50.40", totals.Tax.StringFixed(2))
	assert.Equal(t, "470.40", totals.Total.StringFixed(2))
}

func TestCalculateEmpty(t *testing.T) {
	totals := Calculate(nil)

	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Tax.IsZero())
	assert.True(t, totals.Total.IsZero())
}

func TestCalculateRoundsHalfAwayFromZero(t *testing.T) {
	// sum 0.125: subtotal 0.13, tax 0.015 -> 0.02, total 0.145 -> 0.15
	totals := Calculate([]Line{{Price: dec("0.125"), Quantity: 1}})
	assert.Equal(t, "0.13", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "0.02", totals.Tax.StringFixed(2))
	assert.Equal(t, "0.15", totals.Total.StringFixed(2))

	totals = Calculate([]Line{{Price: dec("10.375"), Quantity: 1}})
	assert.Equal(t, "10.38", totals.Subtotal.StringFixed(2))
}

func TestCalculateTaxesTheUnroundedSum(t *testing.T) {
	// sum 0.208: tax 0.02496 -> 0.02, total 0.22796 -> 0.23.
	// Taxing the rounded 0.21 would give 0.03 and 0.24.
	totals := Calculate([]Line{{Price: dec("0.208"), Quantity: 1}})
	assert.Equal(t, "0.21", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "0.02", totals.Tax.StringFixed(2))
	assert.Equal(t, "0.23", totals.Total.StringFixed(2))
}

func TestCalculateInvariantsHold(t *testing.T) {
	prices := []string{"0", "0.01", "0.208", "0.99", "1.5", "19.99", "80", "120", "140", "150", "999.95", "3.3333"}
	for i, p := range prices {
		for q := int64(0); q < 6; q++ {
			other := prices[(i+3)%len(prices)]
			got := Calculate([]Line{{Price: dec(p), Quantity: q}, {Price: dec(other), Quantity: q + 1}})

			sum := dec(p).Mul(decimal.NewFromInt(q)).Add(dec(other).Mul(decimal.NewFromInt(q + 1)))
			tax := sum.Mul(TaxRate).Round(2)
			require.True(t, sum.Round(2).Equal(got.Subtotal), "subtotal %s != %s", got.Subtotal, sum.Round(2))
			require.True(t, tax.Equal(got.Tax), "tax %s != %s", got.Tax, tax)
			require.True(t, sum.Add(tax).Round(2).Equal(got.Total), "total %s", got.Total)
		}
	}
}

func TestCoercePrice(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "0"},
		{"float", 120.5, "120.5"},
		{"int", 80, "80"},
		{"json number", json.Number("150.25"), "150.25"},
		{"numeric string", " 12.5 ", "12.5"},
		{"prefix string", "12.5abc", "12.5"},
		{"trailing dot", "7.", "7"},
		{"plus sign", "+3.25", "3.25"},
		{"garbage", "abc", "0"},
		{"empty", "", "0"},
		{"bool", true, "0"},
		{"nan", math.NaN(), "0"},
		{"huge exponent", json.Number("1e100000000"), "0"},
		{"huge exponent string", "1e100000000", "0"},
		{"tiny exponent", json.Number("1e-100000000"), "0"},
		{"above max amount", json.Number("1e13"), "0"},
		{"long digit run", "123456789012345678901234567890123456789012345678901234567890123456789", "0"},
		{"huge float", 1e300, "0"},
		{"max amount", json.Number("1e12"), "1000000000000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, dec(tc.want).Equal(CoercePrice(tc.in)), "got %s", CoercePrice(tc.in))
		})
	}
}

func TestCoerceQuantity(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want int64
	}{
		{"nil", nil, 0},
		{"int", 3, 3},
		{"float truncates", 2.9, 2},
		{"json number", json.Number("4"), 4},
		{"json fraction", json.Number("4.7"), 4},
		{"json exponent", json.Number("2e1"), 20},
		{"string", "5", 5},
		{"prefix string", "3 cups", 3},
		{"garbage", "many", 0},
		{"map", map[string]any{}, 0},
		{"inf", math.Inf(1), 0},
		{"beyond int64", json.Number("18446744073709551621"), 0},
		{"beyond int64 exponent", json.Number("1.8446744073709551621e19"), 0},
		{"beyond int64 negative", "-18446744073709551621", 0},
		{"huge exponent", "1e100000000", 0},
		{"huge float", 1e19, 0},
		{"word with e", "3 eggs", 3},
		{"max int64", json.Number("9223372036854775807"), math.MaxInt64},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CoerceQuantity(tc.in))
		})
	}
}

func TestParseReportsOutOfRange(t *testing.T) {
	_, err := ParsePrice(json.Number("1e100000000"))
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = ParsePrice(dec("1e13"))
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = ParseQuantity(json.Number("18446744073709551621"))
	require.ErrorIs(t, err, ErrOutOfRange)

	p, err := ParsePrice("abc")
	require.NoError(t, err)
	assert.True(t, p.IsZero())
	q, err := ParseQuantity("2e1")
	require.NoError(t, err)
	assert.Equal(t, int64(20), q)
}

func TestHugeExponentIsRejectedQuickly(t *testing.T) {
	start := time.Now()
	totals := Calculate([]Line{{Price: CoercePrice(json.Number("1e100000000")), Quantity: CoerceQuantity("1e100000000")}})
	_ = totals.Total.StringFixed(2)
	assert.Less(t, time.Since(start), time.Second)
}
