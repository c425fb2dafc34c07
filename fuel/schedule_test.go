package fuel_test

import (
	"testing"
	"time"

	"github.com/kasb/fuel-revenue-engine/fuel"
	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedule_Resolve(t *testing.T) {
	schedule := fuel.DefaultSchedule()
	require.NoError(t, schedule.Validate())

	tests := []struct {
		name   string
		date   time.Time
		regime string
		share  string
	}{
		{"far past", date(1999, time.January, 1), "legacy", "0.20"},
		{"last legacy day", date(2025, time.October, 31), "legacy", "0.20"},
		{"first current day", date(2025, time.November, 1), "current", "0.20"},
		{"last 20% day", date(2027, time.December, 31), "current", "0.20"},
		{"first 25% day", date(2028, time.January, 1), "current", "0.25"},
		{"far future", date(2099, time.December, 31), "current", "0.25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rates := schedule.Resolve(tt.date)
			assert.Equal(t, tt.regime, rates.Name)
			assertDec(t, tt.share, rates.ProfitShare)
		})
	}
}

func TestSchedule_ResolveIgnoresTimeOfDay(t *testing.T) {
	schedule := fuel.DefaultSchedule()
	late := time.Date(2025, time.October, 31, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, "legacy", schedule.Resolve(late).Name)
}

func TestSchedule_RegimeShapes(t *testing.T) {
	legacy := fuel.LegacyRates()
	assert.True(t, legacy.Commission.Gasoline.IsFlat())
	assert.False(t, legacy.Commission.Diesel.IsFlat())

	current := fuel.CurrentRates()
	assert.False(t, current.Commission.Gasoline.IsFlat())
	assert.True(t, current.Commission.Diesel.IsFlat())
}

func TestSchedule_Validate(t *testing.T) {
	t.Run("versions out of order", func(t *testing.T) {
		s := fuel.DefaultSchedule()
		s.Rates[0], s.Rates[1] = s.Rates[1], s.Rates[0]
		assert.ErrorIs(t, s.Validate(), generic.ErrInvalidInput)
	})

	t.Run("ratio above one", func(t *testing.T) {
		s := fuel.DefaultSchedule()
		s.Shares[1].Ratio = decimal.NewFromInt(2)
		assert.ErrorIs(t, s.Validate(), generic.ErrInvalidInput)
	})

	t.Run("broken tier table", func(t *testing.T) {
		s := fuel.DefaultSchedule()
		s.Rates[1].Rates.Commission.Gasoline = generic.TierTable{}
		assert.ErrorIs(t, s.Validate(), generic.ErrInvalidTierTable)
	})

	t.Run("unknown fee basis", func(t *testing.T) {
		s := fuel.DefaultSchedule()
		s.Rates[0].Rates.AdminFee.DieselBasis = "weekly"
		assert.ErrorIs(t, s.Validate(), generic.ErrInvalidInput)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Error(t, (&fuel.Schedule{}).Validate())
	})
}

func TestSchedule_AddingAVersionIsAdditive(t *testing.T) {
	// GIVEN: a future regime appended as one more row
	s := fuel.DefaultSchedule()
	future := fuel.CurrentRates()
	future.Name = "2030"
	s.Rates = append(s.Rates, fuel.RateVersion{EffectiveFrom: date(2030, time.January, 1), Rates: future})
	require.NoError(t, s.Validate())

	// THEN: earlier dates are unaffected
	assert.Equal(t, "current", s.Resolve(date(2029, time.December, 31)).Name)
	assert.Equal(t, "2030", s.Resolve(date(2030, time.January, 1)).Name)
}
