package fuel

import (
	"fmt"

	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// ENGINE - Prices one record against the month's prior cumulative
// =============================================================================

// Engine is stateless apart from its schedule. The caller owns the Tracker
// and must pass the cumulative for the record's own month.
type Engine struct {
	Schedule *Schedule
}

func NewEngine(schedule *Schedule) *Engine {
	return &Engine{Schedule: schedule}
}

// Compute prices record. It does not advance any tracker.
func (e *Engine) Compute(record DailyRecord, prior Cumulative) (Result, error) {
	if month := record.Month(); prior.Month != month {
		return Result{}, fmt.Errorf("record %s is in %s but cumulative is for %s: %w",
			record.ID, month, prior.Month, generic.ErrInvalidInput)
	}

	rates := e.Schedule.Resolve(record.Date)
	comm := CalculateCommission(record.Entries, rates, prior)
	over := AllocateOverhead(record.Entries, rates, prior, record.Costs)

	gross := comm.Gross()
	netProfit := gross.Sub(over.Total())

	res := Result{
		RecordID:           record.ID,
		Date:               generic.Date(record.Date),
		Regime:             rates.Name,
		ProfitShareRatio:   rates.ProfitShare,
		Entries:            make([]EntryResult, len(record.Entries)),
		GasolineVolume:     comm.Gasoline.Volume,
		DieselVolume:       comm.Diesel.Volume,
		GasolineCommission: comm.Gasoline.Total,
		DieselCommission:   comm.Diesel.Total,
		GrossCommission:    gross,
		GasolineSEDCFee:    over.GasolineFee,
		DieselSEDCFee:      over.DieselFee,
		SEDCFee:            over.SEDCFee(),
		OperatingCosts:     over.OperatingCosts,
		TotalOverhead:      over.Total(),
		NetProfit:          netProfit,
		KASBShare:          ProfitShare(netProfit, rates.ProfitShare),
		Closing:            over.Closing,
		CumulativeGasoline: prior.Gasoline.Add(comm.Gasoline.Volume),
		CumulativeDiesel:   prior.Diesel.Add(comm.Diesel.Volume),
	}

	for i, entry := range record.Entries {
		res.Entries[i] = EntryResult{
			Category:   entry.Category,
			Volume:     entry.Volume,
			Commission: comm.Entries[i],
			Overhead:   over.Entries[i],
			NetProfit:  comm.Entries[i].Sub(over.Entries[i]),
		}
	}
	return res, nil
}

// ProfitShare is the reporting entity's cut of net profit, rounded to currency.
func ProfitShare(netProfit, ratio decimal.Decimal) decimal.Decimal {
	return generic.RoundCurrency(netProfit.Mul(ratio))
}
