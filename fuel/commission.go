package fuel

import (
	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// COMMISSION - Tier-aware, cumulative-aware batch pricing
// =============================================================================

// GroupCommission is one tiering group's share of a batch.
type GroupCommission struct {
	Volume        decimal.Decimal
	Total         decimal.Decimal // sum of per-slice rounded amounts
	EffectiveRate decimal.Decimal // Total / Volume, zero when Volume is zero
	Slices        []generic.Slice
}

// CommissionResult is the commission priced for one batch.
type CommissionResult struct {
	Gasoline GroupCommission
	Diesel   GroupCommission
	Entries  []decimal.Decimal // per entry, same order as the input, rounded
}

// Gross is the batch commission across both groups.
func (c CommissionResult) Gross() decimal.Decimal {
	return c.Gasoline.Total.Add(c.Diesel.Total)
}

// CalculateCommission prices the batch starting from the month's prior
// cumulative volume. A flat table is a one-tier table, so flat and tiered
// groups go through the same walk.
//
// Each entry gets volume * (group total / group volume). All entries of a
// group share one effective rate; Other entries earn nothing.
func CalculateCommission(entries []FuelEntry, rates Rates, prior Cumulative) CommissionResult {
	gasVol, dieselVol := groupVolumes(entries)

	res := CommissionResult{
		Gasoline: priceGroup(rates.Commission.Gasoline, prior.Gasoline, gasVol),
		Diesel:   priceGroup(rates.Commission.Diesel, prior.Diesel, dieselVol),
		Entries:  make([]decimal.Decimal, len(entries)),
	}

	for i, e := range entries {
		switch e.Category.Group() {
		case GroupGasoline:
			res.Entries[i] = generic.RoundCurrency(e.Volume.Mul(res.Gasoline.EffectiveRate))
		case GroupDiesel:
			res.Entries[i] = generic.RoundCurrency(e.Volume.Mul(res.Diesel.EffectiveRate))
		default:
			res.Entries[i] = decimal.Zero
		}
	}
	return res
}

func priceGroup(table generic.TierTable, prior, volume decimal.Decimal) GroupCommission {
	total, slices := table.PriceIncremental(prior, volume)
	return GroupCommission{
		Volume:        volume,
		Total:         total,
		EffectiveRate: generic.SafeDiv(total, volume),
		Slices:        slices,
	}
}
