/*
overhead.go - Administrative (SEDC) fee and operating cost allocation

PURPOSE:
  The administrative fee is charged once per month, on the closing record,
  against the month's volume. Operating costs (fixed + dynamic lines) arrive
  on the same record. Both are spread over the batch's fuel entries so each
  entry carries its own overhead for audit.

RULES:
  - Non-closing record: fee and costs are zero
  - Gasoline fee: tiered table priced from zero on prior + batch gasoline
  - Diesel fee: flat table on batch diesel only (BasisBatch, the default),
    or on prior + batch diesel when the schedule opts into BasisCumulative
  - Each category fee is rounded to currency before allocation
  - Gasoline fee goes to gasoline entries pro-rata by volume, diesel likewise
  - Operating costs go to gasoline and diesel entries pro-rata by volume
  - Other entries never receive overhead

SEE ALSO:
  - schedule.go: AdminFeeTable and FeeBasis
  - generic/tier.go: PriceTotal
*/
package fuel

import (
	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/shopspring/decimal"
)

// OverheadResult is the overhead charged to one batch.
type OverheadResult struct {
	Closing        bool
	GasolineFee    decimal.Decimal
	DieselFee      decimal.Decimal
	OperatingCosts decimal.Decimal
	Entries        []decimal.Decimal // per entry, same order as the input, rounded
}

// SEDCFee is the total administrative fee.
func (o OverheadResult) SEDCFee() decimal.Decimal {
	return o.GasolineFee.Add(o.DieselFee)
}

// Total is fee plus operating costs.
func (o OverheadResult) Total() decimal.Decimal {
	return o.SEDCFee().Add(o.OperatingCosts)
}

// AllocateOverhead computes and distributes the batch overhead.
func AllocateOverhead(entries []FuelEntry, rates Rates, prior Cumulative, costs *OverheadCosts) OverheadResult {
	res := OverheadResult{
		Closing:        costs.HasAmounts(),
		GasolineFee:    decimal.Zero,
		DieselFee:      decimal.Zero,
		OperatingCosts: decimal.Zero,
		Entries:        make([]decimal.Decimal, len(entries)),
	}
	for i := range res.Entries {
		res.Entries[i] = decimal.Zero
	}
	if !res.Closing {
		return res
	}

	gasVol, dieselVol := groupVolumes(entries)

	res.GasolineFee = rates.AdminFee.Gasoline.PriceTotal(prior.Gasoline.Add(gasVol))

	dieselBasis := dieselVol
	if rates.AdminFee.DieselBasis == BasisCumulative {
		dieselBasis = prior.Diesel.Add(dieselVol)
	}
	res.DieselFee = rates.AdminFee.Diesel.PriceTotal(dieselBasis)

	res.OperatingCosts = costs.Total()

	gasShare := generic.SafeDiv(res.GasolineFee, gasVol)
	dieselShare := generic.SafeDiv(res.DieselFee, dieselVol)
	costShare := generic.SafeDiv(res.OperatingCosts, gasVol.Add(dieselVol))

	for i, e := range entries {
		var feeShare decimal.Decimal
		switch e.Category.Group() {
		case GroupGasoline:
			feeShare = gasShare
		case GroupDiesel:
			feeShare = dieselShare
		default:
			continue
		}
		res.Entries[i] = generic.RoundCurrency(e.Volume.Mul(feeShare.Add(costShare)))
	}
	return res
}
