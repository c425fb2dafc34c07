package factory_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kasb/fuel-revenue-engine/factory"
	"github.com/kasb/fuel-revenue-engine/fuel"
	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultYAML = `
regimes:
  - name: legacy
    commission:
      gasoline: {rate: "0.150"}
      diesel:
        tiers:
          - {up_to: "200000", rate: "0.03"}
          - {up_to: "500000", rate: "0.02"}
          - {rate: "0.01"}
    admin_fee:
      gasoline:
        tiers:
          - {up_to: "450000", rate: "0.015"}
          - {rate: "0.01"}
      diesel: {rate: "0.01"}
  - name: current
    effective_from: "2025-11-01"
    commission:
      gasoline:
        tiers:
          - {up_to: "200000", rate: "0.18"}
          - {up_to: "500000", rate: "0.17"}
          - {rate: "0.16"}
      diesel: {rate: "0.128"}
    admin_fee:
      gasoline:
        tiers:
          - {up_to: "450000", rate: "0.015"}
          - {rate: "0.01"}
      diesel: {rate: "0.01"}
      diesel_basis: batch
profit_share:
  - {ratio: "0.20"}
  - {effective_from: "2028-01-01", ratio: "0.25"}
`

func TestParseSchedule_MatchesDefault(t *testing.T) {
	// GIVEN: the default schedule written as YAML
	parsed, err := factory.ParseSchedule([]byte(defaultYAML))
	require.NoError(t, err)

	// THEN: it resolves exactly like the built-in one
	builtin := fuel.DefaultSchedule()
	for _, d := range []time.Time{
		generic.NewDate(2024, time.January, 1),
		generic.NewDate(2025, time.October, 31),
		generic.NewDate(2025, time.November, 1),
		generic.NewDate(2028, time.January, 1),
	} {
		want, got := builtin.Resolve(d), parsed.Resolve(d)
		assert.Equal(t, want.Name, got.Name)
		assert.True(t, want.ProfitShare.Equal(got.ProfitShare))
		assert.Equal(t, want.AdminFee.DieselBasis, got.AdminFee.DieselBasis)
		assert.Equal(t, len(want.Commission.Gasoline), len(got.Commission.Gasoline))
		assert.Equal(t, len(want.Commission.Diesel), len(got.Commission.Diesel))
		for i := range want.Commission.Diesel {
			assert.True(t, want.Commission.Diesel[i].Rate.Equal(got.Commission.Diesel[i].Rate))
		}
	}
}

func TestParseSchedule_CumulativeDieselBasis(t *testing.T) {
	yml := `
regimes:
  - name: only
    commission:
      gasoline: {rate: "0.1"}
      diesel: {rate: "0.1"}
    admin_fee:
      gasoline: {rate: "0.015"}
      diesel: {rate: "0.01"}
      diesel_basis: cumulative
profit_share:
  - {ratio: "0.2"}
`
	s, err := factory.ParseSchedule([]byte(yml))
	require.NoError(t, err)

	assert.Equal(t, fuel.BasisCumulative, s.Resolve(time.Now()).AdminFee.DieselBasis)
}

func TestParseSchedule_Errors(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{"not yaml", "regimes: [:"},
		{"no regimes", `profit_share: [{ratio: "0.2"}]`},
		{"bad number", `
regimes:
  - name: x
    commission: {gasoline: {rate: "abc"}, diesel: {rate: "0.1"}}
    admin_fee: {gasoline: {rate: "0.1"}, diesel: {rate: "0.1"}}
profit_share: [{ratio: "0.2"}]`},
		{"rate and tiers", `
regimes:
  - name: x
    commission:
      gasoline: {rate: "0.1", tiers: [{rate: "0.1"}]}
      diesel: {rate: "0.1"}
    admin_fee: {gasoline: {rate: "0.1"}, diesel: {rate: "0.1"}}
profit_share: [{ratio: "0.2"}]`},
		{"bounded last tier", `
regimes:
  - name: x
    commission:
      gasoline: {tiers: [{up_to: "10", rate: "0.1"}]}
      diesel: {rate: "0.1"}
    admin_fee: {gasoline: {rate: "0.1"}, diesel: {rate: "0.1"}}
profit_share: [{ratio: "0.2"}]`},
		{"unknown basis", `
regimes:
  - name: x
    commission: {gasoline: {rate: "0.1"}, diesel: {rate: "0.1"}}
    admin_fee: {gasoline: {rate: "0.1"}, diesel: {rate: "0.1"}, diesel_basis: weekly}
profit_share: [{ratio: "0.2"}]`},
		{"bad date", `
regimes:
  - name: x
    effective_from: "01/11/2025"
    commission: {gasoline: {rate: "0.1"}, diesel: {rate: "0.1"}}
    admin_fee: {gasoline: {rate: "0.1"}, diesel: {rate: "0.1"}}
profit_share: [{ratio: "0.2"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.ParseSchedule([]byte(tt.yml))
			assert.Error(t, err)
		})
	}
}

func TestLoadSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(defaultYAML), 0o600))

	s, err := factory.LoadSchedule(path)
	require.NoError(t, err)
	assert.Len(t, s.Rates, 2)

	_, err = factory.LoadSchedule(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadSchedule_ShippedRatesFile(t *testing.T) {
	s, err := factory.LoadSchedule(filepath.Join("..", "rates.yaml"))
	require.NoError(t, err)

	builtin := fuel.DefaultSchedule()
	for _, d := range []time.Time{
		generic.NewDate(2025, time.October, 31),
		generic.NewDate(2025, time.November, 1),
		generic.NewDate(2028, time.January, 1),
	} {
		want, got := builtin.Resolve(d), s.Resolve(d)
		assert.Equal(t, want.Name, got.Name)
		assert.True(t, want.ProfitShare.Equal(got.ProfitShare))
		for i := range want.Commission.Gasoline {
			assert.True(t, want.Commission.Gasoline[i].Rate.Equal(got.Commission.Gasoline[i].Rate))
		}
	}
}
