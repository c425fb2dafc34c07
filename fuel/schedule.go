/*
schedule.go - Date-versioned rate schedule and resolver

PURPOSE:
  Rates change by calendar date along two independent axes:
    - Commission/fee regime (Legacy before 2025-11-01, Current from then on)
    - Profit-share ratio    (0.20 before 2028-01-01, 0.25 from then on)
  Each axis is an ordered table of (effective date, value). Resolve does one
  lookup per axis. A new rate change is one more row, never a new branch.

OPEN-ENDED:
  The first version of each axis also covers every earlier date and the last
  version covers every later date, so any date resolves.

SEE ALSO:
  - factory/schedule.go: Loads a Schedule from a YAML file
  - commission.go, overhead.go: Consume the resolved Rates
*/
package fuel

import (
	"fmt"
	"sort"
	"time"

	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE TABLES
// =============================================================================

// FeeBasis selects the volume the diesel administrative fee is charged on.
type FeeBasis string

const (
	// BasisBatch charges the closing record's own diesel volume. This is
	// what the legacy system did and is still the default; see DESIGN.md.
	BasisBatch FeeBasis = "batch"

	// BasisCumulative charges the month's cumulative diesel volume, the
	// same way gasoline is charged. Opt-in only.
	BasisCumulative FeeBasis = "cumulative"
)

// CommissionTable holds per-liter commission by tiering group.
type CommissionTable struct {
	Gasoline generic.TierTable
	Diesel   generic.TierTable
}

// AdminFeeTable holds the administrative (SEDC) fee rules.
type AdminFeeTable struct {
	Gasoline    generic.TierTable // priced on month cumulative incl. the batch
	Diesel      generic.TierTable
	DieselBasis FeeBasis
}

// RateSet is one commission/fee regime.
type RateSet struct {
	Name       string
	Commission CommissionTable
	AdminFee   AdminFeeTable
}

// Validate checks every table of the regime.
func (r RateSet) Validate() error {
	tables := []struct {
		name  string
		table generic.TierTable
	}{
		{"commission.gasoline", r.Commission.Gasoline},
		{"commission.diesel", r.Commission.Diesel},
		{"admin_fee.gasoline", r.AdminFee.Gasoline},
		{"admin_fee.diesel", r.AdminFee.Diesel},
	}
	for _, t := range tables {
		if err := t.table.Validate(); err != nil {
			return fmt.Errorf("regime %s: %s: %w", r.Name, t.name, err)
		}
	}
	switch r.AdminFee.DieselBasis {
	case BasisBatch, BasisCumulative:
	default:
		return fmt.Errorf("regime %s: unknown diesel fee basis %q: %w", r.Name, r.AdminFee.DieselBasis, generic.ErrInvalidInput)
	}
	return nil
}

// RateVersion makes a RateSet effective from a date (cutoff A axis).
type RateVersion struct {
	EffectiveFrom time.Time
	Rates         RateSet
}

// ShareVersion makes a profit-share ratio effective from a date (cutoff B axis).
type ShareVersion struct {
	EffectiveFrom time.Time
	Ratio         decimal.Decimal
}

// Rates is everything needed to price one record.
type Rates struct {
	RateSet
	ProfitShare decimal.Decimal
}

// =============================================================================
// SCHEDULE
// =============================================================================

// Schedule is the full versioned rate history. Versions must be sorted by
// EffectiveFrom ascending; Validate enforces it.
type Schedule struct {
	Rates  []RateVersion
	Shares []ShareVersion
}

// Validate checks ordering, table shape, and ratio bounds.
func (s *Schedule) Validate() error {
	if len(s.Rates) == 0 {
		return fmt.Errorf("schedule has no rate versions: %w", generic.ErrInvalidInput)
	}
	if len(s.Shares) == 0 {
		return fmt.Errorf("schedule has no profit-share versions: %w", generic.ErrInvalidInput)
	}
	for i, v := range s.Rates {
		if i > 0 && !v.EffectiveFrom.After(s.Rates[i-1].EffectiveFrom) {
			return fmt.Errorf("rate versions not strictly ascending at %s: %w",
				v.EffectiveFrom.Format(generic.DateLayout), generic.ErrInvalidInput)
		}
		if err := v.Rates.Validate(); err != nil {
			return err
		}
	}
	one := decimal.NewFromInt(1)
	for i, v := range s.Shares {
		if i > 0 && !v.EffectiveFrom.After(s.Shares[i-1].EffectiveFrom) {
			return fmt.Errorf("profit-share versions not strictly ascending at %s: %w",
				v.EffectiveFrom.Format(generic.DateLayout), generic.ErrInvalidInput)
		}
		if v.Ratio.IsNegative() || v.Ratio.GreaterThan(one) {
			return fmt.Errorf("profit-share ratio %s outside [0, 1]: %w", v.Ratio, generic.ErrInvalidInput)
		}
	}
	return nil
}

// Resolve returns the regime and profit-share ratio in force on date.
func (s *Schedule) Resolve(date time.Time) Rates {
	d := generic.Date(date)

	ri := sort.Search(len(s.Rates), func(i int) bool { return s.Rates[i].EffectiveFrom.After(d) }) - 1
	if ri < 0 {
		ri = 0
	}
	si := sort.Search(len(s.Shares), func(i int) bool { return s.Shares[i].EffectiveFrom.After(d) }) - 1
	if si < 0 {
		si = 0
	}

	return Rates{
		RateSet:     s.Rates[ri].Rates,
		ProfitShare: s.Shares[si].Ratio,
	}
}

// =============================================================================
// DEFAULT SCHEDULE
// =============================================================================

var (
	CurrentRegimeStart = generic.NewDate(2025, time.November, 1)
	RaisedShareStart   = generic.NewDate(2028, time.January, 1)
)

func d(s string) decimal.Decimal { return generic.MustParseDecimal(s) }

// adminFee is shared by both regimes.
func adminFee() AdminFeeTable {
	return AdminFeeTable{
		Gasoline:    generic.Tiered([]decimal.Decimal{d("450000")}, []decimal.Decimal{d("0.015"), d("0.01")}),
		Diesel:      generic.Flat(d("0.01")),
		DieselBasis: BasisBatch,
	}
}

// LegacyRates: flat gasoline, diesel tiered on the month's diesel volume.
func LegacyRates() RateSet {
	return RateSet{
		Name: "legacy",
		Commission: CommissionTable{
			Gasoline: generic.Flat(d("0.150")),
			Diesel: generic.Tiered(
				[]decimal.Decimal{d("200000"), d("500000")},
				[]decimal.Decimal{d("0.03"), d("0.02"), d("0.01")},
			),
		},
		AdminFee: adminFee(),
	}
}

// CurrentRates: gasoline tiered on the month's gasoline volume, flat diesel.
func CurrentRates() RateSet {
	return RateSet{
		Name: "current",
		Commission: CommissionTable{
			Gasoline: generic.Tiered(
				[]decimal.Decimal{d("200000"), d("500000")},
				[]decimal.Decimal{d("0.18"), d("0.17"), d("0.16")},
			),
			Diesel: generic.Flat(d("0.128")),
		},
		AdminFee: adminFee(),
	}
}

// DefaultSchedule returns the schedule the station operates under today.
func DefaultSchedule() *Schedule {
	return &Schedule{
		Rates: []RateVersion{
			{EffectiveFrom: time.Time{}, Rates: LegacyRates()},
			{EffectiveFrom: CurrentRegimeStart, Rates: CurrentRates()},
		},
		Shares: []ShareVersion{
			{EffectiveFrom: time.Time{}, Ratio: d("0.20")},
			{EffectiveFrom: RaisedShareStart, Ratio: d("0.25")},
		},
	}
}
