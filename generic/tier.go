/*
tier.go - Tiered rate tables priced against a running cumulative volume

PURPOSE:
  A tier table says "the first 200,000 liters of the month earn 0.18, the
  next 300,000 earn 0.17, everything after earns 0.16". A batch arriving
  mid-month does not start at zero: it starts wherever the month's running
  total already is. Walk consumes the batch tier by tier from that point.

INVARIANTS:
  - Tiers are contiguous, start at zero, and the last tier is unbounded
  - A liter is priced exactly once: the slices of a walk sum to the batch
  - A slice never exceeds the remaining capacity of its tier

EXAMPLE:
  Legacy diesel, prior cumulative 190,000 L, batch 20,000 L:
    slice 1: 10,000 L @ 0.03 = 300.00   (fills [0, 200000))
    slice 2: 10,000 L @ 0.02 = 200.00   (starts [200000, 500000))
    total                      = 500.00

SEE ALSO:
  - fuel/commission.go: Commission priced per batch from the prior cumulative
  - fuel/overhead.go: Administrative fee priced on the month cumulative
*/
package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIER TABLE
// =============================================================================

// Tier is the half-open volume range [From, To) with its own per-unit rate.
// Unbounded tiers ignore To.
type Tier struct {
	From      decimal.Decimal
	To        decimal.Decimal
	Unbounded bool
	Rate      decimal.Decimal
}

// TierTable is an ordered list of tiers. A flat rate is a one-tier table.
type TierTable []Tier

// Flat returns a single unbounded tier.
func Flat(rate decimal.Decimal) TierTable {
	return TierTable{{From: decimal.Zero, Unbounded: true, Rate: rate}}
}

// Tiered builds a table from ascending upper bounds and one more rate than
// bounds. Tiered([]{200000, 500000}, []{0.03, 0.02, 0.01}) is the legacy
// diesel table.
func Tiered(bounds []decimal.Decimal, rates []decimal.Decimal) TierTable {
	if len(rates) != len(bounds)+1 {
		panic(fmt.Sprintf("generic: tiered table needs %d rates, got %d", len(bounds)+1, len(rates)))
	}
	table := make(TierTable, 0, len(rates))
	from := decimal.Zero
	for i, bound := range bounds {
		table = append(table, Tier{From: from, To: bound, Rate: rates[i]})
		from = bound
	}
	return append(table, Tier{From: from, Unbounded: true, Rate: rates[len(rates)-1]})
}

// IsFlat reports whether the table has a single rate for all volume.
func (t TierTable) IsFlat() bool { return len(t) == 1 }

// Validate checks the table invariants.
func (t TierTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: empty tier table", ErrInvalidTierTable)
	}
	if !t[0].From.IsZero() {
		return fmt.Errorf("%w: first tier starts at %s, not 0", ErrInvalidTierTable, t[0].From)
	}
	for i, tier := range t {
		if tier.Rate.IsNegative() {
			return fmt.Errorf("%w: tier %d has negative rate %s", ErrInvalidTierTable, i, tier.Rate)
		}
		last := i == len(t)-1
		if last != tier.Unbounded {
			return fmt.Errorf("%w: only the last tier may be unbounded (tier %d)", ErrInvalidTierTable, i)
		}
		if !tier.Unbounded && !tier.To.GreaterThan(tier.From) {
			return fmt.Errorf("%w: tier %d is empty [%s, %s)", ErrInvalidTierTable, i, tier.From, tier.To)
		}
		if i > 0 && !tier.From.Equal(t[i-1].To) {
			return fmt.Errorf("%w: gap between tier %d and %d", ErrInvalidTierTable, i-1, i)
		}
	}
	return nil
}

// =============================================================================
// TIER WALK
// =============================================================================

// Slice is the portion of a batch that falls inside one tier.
type Slice struct {
	Tier   int
	Volume decimal.Decimal
	Rate   decimal.Decimal
	Amount decimal.Decimal // Volume * Rate, unrounded
}

// Walk prices volume that starts at the running total prior. Zero or
// negative volume yields no slices.
func (t TierTable) Walk(prior, volume decimal.Decimal) []Slice {
	if !volume.IsPositive() {
		return nil
	}
	start := prior
	end := prior.Add(volume)

	var slices []Slice
	for i, tier := range t {
		lo := decimal.Max(start, tier.From)
		hi := end
		if !tier.Unbounded {
			hi = decimal.Min(end, tier.To)
		}
		if !hi.GreaterThan(lo) {
			continue
		}
		vol := hi.Sub(lo)
		slices = append(slices, Slice{
			Tier:   i,
			Volume: vol,
			Rate:   tier.Rate,
			Amount: vol.Mul(tier.Rate),
		})
	}
	return slices
}

// PriceIncremental walks volume from prior and rounds each slice to currency
// before summing. This is how commission is priced.
func (t TierTable) PriceIncremental(prior, volume decimal.Decimal) (decimal.Decimal, []Slice) {
	slices := t.Walk(prior, volume)
	total := decimal.Zero
	for _, s := range slices {
		total = total.Add(RoundCurrency(s.Amount))
	}
	return total, slices
}

// PriceTotal prices the whole volume from zero and rounds once. This is how
// the administrative fee is priced against a month cumulative.
func (t TierTable) PriceTotal(volume decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range t.Walk(decimal.Zero, volume) {
		sum = sum.Add(s.Amount)
	}
	return RoundCurrency(sum)
}
