package fuel_test

import (
	"testing"
	"time"

	"github.com/kasb/fuel-revenue-engine/fuel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func costs(fixed map[string]string, dynamic ...fuel.DynamicCost) *fuel.OverheadCosts {
	c := &fuel.OverheadCosts{Fixed: map[string]decimal.Decimal{}, Dynamic: dynamic}
	for k, v := range fixed {
		c.Fixed[k] = dec(v)
	}
	return c
}

func TestOverhead_NonClosing(t *testing.T) {
	rates := fuel.DefaultSchedule().Resolve(legacyDay)
	entries := []fuel.FuelEntry{entry(fuel.PremiumGasolineTierA, "10000")}

	res := fuel.AllocateOverhead(entries, rates, prior(legacyDay, "300000", "0"), nil)

	assert.False(t, res.Closing)
	assertDec(t, "0", res.Total())
	assertDec(t, "0", res.Entries[0])
}

func TestOverhead_AdminFeeTier(t *testing.T) {
	// GIVEN: 450,000 L of gasoline sold before the closing record
	rates := fuel.DefaultSchedule().Resolve(legacyDay)
	entries := []fuel.FuelEntry{entry(fuel.PremiumGasolineTierA, "50000")}

	// WHEN: the closing record brings the month to 500,000 L
	res := fuel.AllocateOverhead(entries, rates, prior(legacyDay, "450000", "0"), costs(map[string]string{"rent": "1"}))

	// THEN: 450000 x 0.015 + 50000 x 0.01
	assertDec(t, "7250.00", res.GasolineFee)
	assertDec(t, "0", res.DieselFee)
}

func TestOverhead_AdminFeeBelowThreshold(t *testing.T) {
	rates := fuel.DefaultSchedule().Resolve(currentDay)
	entries := []fuel.FuelEntry{entry(fuel.PremiumGasolineTierB, "50000")}

	res := fuel.AllocateOverhead(entries, rates, prior(currentDay, "400000", "0"), costs(map[string]string{"rent": "1"}))

	// 450000 x 0.015 on the whole cumulative
	assertDec(t, "6750.00", res.GasolineFee)
}

func TestOverhead_DieselFeeBasis(t *testing.T) {
	entries := []fuel.FuelEntry{entry(fuel.DieselTierA, "5000")}
	p := prior(legacyDay, "0", "100000")
	c := costs(map[string]string{"rent": "1"})

	t.Run("batch (default)", func(t *testing.T) {
		rates := fuel.DefaultSchedule().Resolve(legacyDay)
		assert.Equal(t, fuel.BasisBatch, rates.AdminFee.DieselBasis)

		res := fuel.AllocateOverhead(entries, rates, p, c)

		// prior diesel is ignored
		assertDec(t, "50.00", res.DieselFee)
	})

	t.Run("cumulative (opt-in)", func(t *testing.T) {
		rates := fuel.DefaultSchedule().Resolve(legacyDay)
		rates.AdminFee.DieselBasis = fuel.BasisCumulative

		res := fuel.AllocateOverhead(entries, rates, p, c)

		assertDec(t, "1050.00", res.DieselFee)
	})
}

func TestOverhead_AllocatesProRata(t *testing.T) {
	// GIVEN: a closing record with fixed and dynamic costs
	rates := fuel.DefaultSchedule().Resolve(date(2025, time.June, 30))
	entries := []fuel.FuelEntry{
		entry(fuel.PremiumGasolineTierA, "6000"),
		entry(fuel.PremiumGasolineTierB, "4000"),
		entry(fuel.DieselTierA, "5000"),
		entry(fuel.Other, "100"),
	}
	c := costs(map[string]string{"rent": "1000"},
		fuel.DynamicCost{Category: "repair", Description: "pump 3", Amount: dec("500")})

	// WHEN: allocating
	res := fuel.AllocateOverhead(entries, rates, prior(legacyDay, "0", "0"), c)

	// THEN: fees 150 + 50, costs 1500 spread over 15000 L at 0.1/L
	assertDec(t, "150.00", res.GasolineFee)
	assertDec(t, "50.00", res.DieselFee)
	assertDec(t, "1500", res.OperatingCosts)
	assertDec(t, "1700.00", res.Total())

	assertDec(t, "690.00", res.Entries[0]) // 6000 x (0.015 + 0.1)
	assertDec(t, "460.00", res.Entries[1]) // 4000 x (0.015 + 0.1)
	assertDec(t, "550.00", res.Entries[2]) // 5000 x (0.01 + 0.1)
	assertDec(t, "0", res.Entries[3])
}

func TestOverheadCosts_TotalIsOrderIndependent(t *testing.T) {
	c := costs(map[string]string{"rent": "0.10", "salary": "0.20", "electricity": "0.30"})

	for i := 0; i < 20; i++ {
		assertDec(t, "0.60", c.Total())
	}
	assert.Equal(t, []string{"electricity", "rent", "salary"}, c.FixedNames())
}
