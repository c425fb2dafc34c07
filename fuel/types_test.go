package fuel_test

import (
	"testing"
	"time"

	"github.com/kasb/fuel-revenue-engine/fuel"
	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	tests := map[string]fuel.Category{
		"RON 95":          fuel.PremiumGasolineTierA,
		"ron97":           fuel.PremiumGasolineTierB,
		" Diesel ":        fuel.DieselTierA,
		"Diesel B7":       fuel.DieselTierB,
		"diesel_a":        fuel.DieselTierA,
		"Minyak Pelincir": fuel.Other,
		"":                fuel.Other,
	}
	for in, want := range tests {
		assert.Equal(t, want, fuel.ParseCategory(in), in)
	}
}

func TestCategory_Group(t *testing.T) {
	assert.Equal(t, fuel.GroupGasoline, fuel.PremiumGasolineTierB.Group())
	assert.Equal(t, fuel.GroupDiesel, fuel.DieselTierB.Group())
	assert.Equal(t, fuel.GroupOther, fuel.Other.Group())
	assert.Equal(t, fuel.GroupOther, fuel.Category("kerosene").Group())
	assert.False(t, fuel.Category("kerosene").Valid())
}

func TestDailyRecord_Volumes(t *testing.T) {
	r := record("r", date(2025, time.June, 1),
		entry(fuel.PremiumGasolineTierA, "100.5"),
		entry(fuel.PremiumGasolineTierB, "200"),
		entry(fuel.DieselTierB, "50"),
		entry(fuel.Other, "999"),
	)

	gas, diesel := r.Volumes()

	assertDec(t, "300.5", gas)
	assertDec(t, "50", diesel)
	assert.False(t, r.IsClosing())
}

func TestDailyRecord_IsClosingWithDynamicOnly(t *testing.T) {
	r := record("r", date(2025, time.June, 30), entry(fuel.DieselTierA, "1"))
	r.Costs = &fuel.OverheadCosts{Dynamic: []fuel.DynamicCost{{Category: "misc", Amount: dec("12.50")}}}

	assert.True(t, r.IsClosing())
	assertDec(t, "12.50", r.Costs.Total())
}
