// Package pricing turns cart lines into subtotal, tax and total.
//
// All amounts are rounded to two decimal places, half away from zero,
// at a fixed 12% tax rate.
package pricing

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxRate is applied to the unrounded line sum.
var TaxRate = decimal.RequireFromString("0.12")

// MaxAmount bounds any single price accepted from input.
var MaxAmount = decimal.New(1, 12)

// ErrOutOfRange reports a number that parses but is too large, too precise
// or outside int64.
var ErrOutOfRange = errors.New("pricing: number out of range")

const (
	// maxNumberLen bounds numeric text before it reaches the decimal parser.
	maxNumberLen = 64
	// maxExponent bounds the decimal exponent in both directions.
	maxExponent = 64
)

// Line is one priced cart line.
type Line struct {
	Price    decimal.Decimal
	Quantity int64
}

// Totals is the result of Calculate.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Calculate sums price*quantity over lines and derives tax and total.
// Tax and total are computed from the unrounded sum; each result is then
// rounded on its own. An empty slice yields zero totals.
func Calculate(lines []Line) Totals {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(l.Quantity)))
	}
	tax := Round2(sum.Mul(TaxRate))
	return Totals{
		Subtotal: Round2(sum),
		Tax:      tax,
		Total:    Round2(sum.Add(tax)),
	}
}

// Round2 rounds d to two fractional digits, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

var (
	decimalPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	integerPrefix = regexp.MustCompile(`^[+-]?\d+`)
)

// CoercePrice converts a loosely typed price into a decimal.
// Missing, unparseable or out of range input is 0.
func CoercePrice(v any) decimal.Decimal {
	d, err := ParsePrice(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParsePrice is CoercePrice with out of range input reported as
// ErrOutOfRange instead of 0. Missing or unparseable input is still 0.
func ParsePrice(v any) (decimal.Decimal, error) {
	var d decimal.Decimal
	switch p := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		d = p
	case json.Number:
		var err error
		if d, err = parseDecimalPrefix(p.String()); err != nil {
			return decimal.Zero, err
		}
	case string:
		var err error
		if d, err = parseDecimalPrefix(p); err != nil {
			return decimal.Zero, err
		}
	case float64:
		d = fromFloat(p)
	case float32:
		d = fromFloat(float64(p))
	case int:
		d = decimal.NewFromInt(int64(p))
	case int32:
		d = decimal.NewFromInt(int64(p))
	case int64:
		d = decimal.NewFromInt(p)
	default:
		return decimal.Zero, nil
	}
	if !exponentInRange(d) || d.Abs().GreaterThan(MaxAmount) {
		return decimal.Zero, ErrOutOfRange
	}
	return d, nil
}

// CoerceQuantity converts a loosely typed quantity into an integer,
// truncating fractions. Missing, unparseable or out of range input is 0.
func CoerceQuantity(v any) int64 {
	q, err := ParseQuantity(v)
	if err != nil {
		return 0
	}
	return q
}

// ParseQuantity is CoerceQuantity with values outside int64 reported as
// ErrOutOfRange.
func ParseQuantity(v any) (int64, error) {
	switch q := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(q), nil
	case int32:
		return int64(q), nil
	case int64:
		return q, nil
	case float64:
		return truncate(q)
	case float32:
		return truncate(float64(q))
	case json.Number:
		return parseIntegerPrefix(q.String())
	case string:
		return parseIntegerPrefix(q)
	default:
		return 0, nil
	}
}

func parseDecimalPrefix(s string) (decimal.Decimal, error) {
	m := decimalPrefix.FindString(strings.TrimSpace(s))
	m = strings.Replace(strings.TrimPrefix(m, "+"), ".e", "e", 1)
	m = strings.TrimSuffix(strings.Replace(m, ".E", "E", 1), ".")
	if m == "" {
		return decimal.Zero, nil
	}
	if len(m) > maxNumberLen {
		return decimal.Zero, ErrOutOfRange
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero, nil
	}
	if !exponentInRange(d) {
		return decimal.Zero, ErrOutOfRange
	}
	return d, nil
}

func parseIntegerPrefix(s string) (int64, error) {
	s = strings.TrimSpace(s)
	// JSON numbers like 2e1 must not be read as 2.
	if strings.ContainsAny(s, "eE") {
		if m := decimalPrefix.FindString(s); m != "" && strings.ContainsAny(m, "eE") {
			d, err := parseDecimalPrefix(m)
			if err != nil {
				return 0, err
			}
			return toInt64(d.Truncate(0))
		}
	}
	m := strings.TrimPrefix(integerPrefix.FindString(s), "+")
	if m == "" {
		return 0, nil
	}
	if len(m) > maxNumberLen {
		return 0, ErrOutOfRange
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return 0, nil
	}
	return toInt64(d)
}

// exponentInRange must be checked before rounding or comparing d: both
// rescale the coefficient by 10^|exponent|.
func exponentInRange(d decimal.Decimal) bool {
	exp := d.Exponent()
	return exp >= -maxExponent && exp <= maxExponent
}

func toInt64(d decimal.Decimal) (int64, error) {
	if !exponentInRange(d) {
		return 0, ErrOutOfRange
	}
	b := d.BigInt()
	if !b.IsInt64() {
		return 0, ErrOutOfRange
	}
	return b.Int64(), nil
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func truncate(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, nil
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, ErrOutOfRange
	}
	return int64(f), nil
}
