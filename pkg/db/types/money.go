package dbtypes

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is a non-negative amount of money in minor units. Amounts are stored as
// integers so every backend (SQL and document) compares and sums them exactly.
type Cents int64

var hundred = decimal.NewFromInt(100)

// Decimal returns the amount in major units (12345 -> 123.45).
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// CentsFromDecimal converts a major-unit amount, rejecting negatives and
// fractions of a cent.
func CentsFromDecimal(d decimal.Decimal) (Cents, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %s is negative", d)
	}
	scaled := d.Mul(hundred)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than two decimal places", d)
	}
	return Cents(scaled.IntPart()), nil
}

// SumCents adds amounts; used by report aggregation.
func SumCents(values ...Cents) Cents {
	var total Cents
	for _, v := range values {
		total += v
	}
	return total
}
