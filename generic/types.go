/*
Package generic provides the domain-agnostic pieces of the revenue engine.

PURPOSE:
  Fuel is only one income stream that is priced by volume. The pieces that
  do not care what is being sold live here: decimal quantities with units,
  calendar months as replay keys, and tiered rate tables that price a slice
  of volume against a running cumulative total.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 12000 liters, RM 450.25)
  - Rounding: Currency rounding used at every legacy rounding point

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Determinism: Same inputs always produce the same digits
  3. Type Safety: Units prevent adding liters to ringgit

USAGE:
  vol := generic.Liters(decimal.NewFromInt(12000))
  fee := generic.RoundCurrency(vol.Value.Mul(rate))

SEE ALSO:
  - tier.go: Tiered rate tables and the cumulative tier walk
  - time.go: MonthKey and date helpers
  - errors.go: Shared sentinel errors
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitLiters  Unit = "liters"
	UnitRinggit Unit = "MYR"
)

// CurrencyPlaces is the number of decimal places kept at each rounding point.
const CurrencyPlaces int32 = 2

func Liters(value decimal.Decimal) Amount  { return Amount{Value: value, Unit: UnitLiters} }
func Ringgit(value decimal.Decimal) Amount { return Amount{Value: value, Unit: UnitRinggit} }

// MustParseDecimal parses s or panics. Only for literals in code and tests.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("generic: invalid decimal literal " + s)
	}
	return d
}

// Add sums two amounts of the same unit.
func (a Amount) Add(b Amount) Amount {
	if a.Unit != b.Unit {
		panic("generic: adding " + string(b.Unit) + " to " + string(a.Unit))
	}
	return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit}
}

// =============================================================================
// ROUNDING
// =============================================================================

// RoundCurrency rounds to CurrencyPlaces using half-to-even, which is what the
// legacy reports were produced with.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(CurrencyPlaces)
}

// SafeDiv returns num/den, or zero when den is zero.
func SafeDiv(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}
