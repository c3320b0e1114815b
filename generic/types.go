/*
Package generic provides the domain-agnostic pieces of the lease engine.

PURPOSE:
  Billing periods, duration units and money arithmetic are not specific to
  leases. A charge schedule is "N periods of X units starting at T", and the
  same code answers "when does period 3 start?" for rent, storage fees or
  any other recurring charge.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: fixed-point monetary amounts (decimal.Decimal)
  - Ratios: how many whole or partial periods a sum of money covers

DESIGN PRINCIPLES:
  1. Precision: money uses decimal.Decimal, never float64
  2. Purity: nothing in this package touches storage or the wall clock
  3. Explicit time: callers pass "now", the package never reads it

SEE ALSO:
  - duration.go: minutes <-> (value, unit) conversion
  - period.go: interval generation over calendar units
  - time.go: calendar-aware arithmetic
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

// Money is a monetary amount. Currency is a property of the owner's
// portfolio and is not tracked per amount.
type Money = decimal.Decimal

// RatioPrecision is the number of decimal places kept when dividing money
// into period counts. 16 places keeps cumulative thresholds exact for any
// realistic rent.
const RatioPrecision int32 = 16

func NewMoney(value float64) Money      { return decimal.NewFromFloat(value) }
func NewMoneyFromInt(value int64) Money { return decimal.NewFromInt(value) }

// MustParseMoney parses s, returning zero when s is not a number.
func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// SumMoney adds amounts together.
func SumMoney(amounts ...Money) Money {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// ClampMoney bounds v to [lo, hi].
func ClampMoney(v, lo, hi Money) Money {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// NonNegative returns v, or zero when v is negative.
func NonNegative(v Money) Money {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// PeriodsCovered returns total / perPeriod as a fixed-point ratio.
// A zero or negative perPeriod covers zero periods.
func PeriodsCovered(total, perPeriod Money) decimal.Decimal {
	if !perPeriod.IsPositive() {
		return decimal.Zero
	}
	return total.DivRound(perPeriod, RatioPrecision)
}
