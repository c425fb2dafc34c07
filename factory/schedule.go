/*
Package factory provides YAML to Go rate schedule conversion.

PURPOSE:
  Converts a rate schedule file into a fuel.Schedule. A rate change is a
  file edit plus a recompute, not a release.

YAML SCHEMA:
  regimes:
    - name: legacy                      # first version: open-ended backwards
      commission:
        gasoline: {rate: "0.150"}
        diesel:
          tiers:
            - {up_to: "200000", rate: "0.03"}
            - {up_to: "500000", rate: "0.02"}
            - {rate: "0.01"}            # last tier has no up_to
      admin_fee:
        gasoline:
          tiers:
            - {up_to: "450000", rate: "0.015"}
            - {rate: "0.01"}
        diesel: {rate: "0.01"}
        diesel_basis: batch             # batch | cumulative
    - name: current
      effective_from: "2025-11-01"
      ...
  profit_share:
    - {ratio: "0.20"}
    - {effective_from: "2028-01-01", ratio: "0.25"}

  Numbers are quoted strings so they parse straight into decimals.

SEE ALSO:
  - fuel/schedule.go: Schedule and DefaultSchedule
*/
package factory

import (
	"fmt"
	"os"
	"time"

	"github.com/kasb/fuel-revenue-engine/fuel"
	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// YAML SCHEMA TYPES
// =============================================================================

// ScheduleYAML is the file representation of a rate schedule.
type ScheduleYAML struct {
	Regimes     []RegimeYAML `yaml:"regimes"`
	ProfitShare []ShareYAML  `yaml:"profit_share"`
}

// RegimeYAML is one commission/fee regime.
type RegimeYAML struct {
	Name          string         `yaml:"name"`
	EffectiveFrom string         `yaml:"effective_from,omitempty"`
	Commission    GroupTableYAML `yaml:"commission"`
	AdminFee      AdminFeeYAML   `yaml:"admin_fee"`
}

// GroupTableYAML holds one table per tiering group.
type GroupTableYAML struct {
	Gasoline TableYAML `yaml:"gasoline"`
	Diesel   TableYAML `yaml:"diesel"`
}

// AdminFeeYAML adds the diesel basis flag.
type AdminFeeYAML struct {
	Gasoline    TableYAML `yaml:"gasoline"`
	Diesel      TableYAML `yaml:"diesel"`
	DieselBasis string    `yaml:"diesel_basis,omitempty"`
}

// TableYAML is either a flat rate or a list of tiers, never both.
type TableYAML struct {
	Rate  string     `yaml:"rate,omitempty"`
	Tiers []TierYAML `yaml:"tiers,omitempty"`
}

type TierYAML struct {
	UpTo string `yaml:"up_to,omitempty"`
	Rate string `yaml:"rate"`
}

type ShareYAML struct {
	EffectiveFrom string `yaml:"effective_from,omitempty"`
	Ratio         string `yaml:"ratio"`
}

// =============================================================================
// PARSING
// =============================================================================

// LoadSchedule reads and parses a schedule file.
func LoadSchedule(path string) (*fuel.Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule %s: %w", path, err)
	}
	s, err := ParseSchedule(data)
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", path, err)
	}
	return s, nil
}

// ParseSchedule converts YAML into a validated fuel.Schedule.
func ParseSchedule(data []byte) (*fuel.Schedule, error) {
	var raw ScheduleYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	schedule := &fuel.Schedule{}
	for i, r := range raw.Regimes {
		v, err := parseRegime(r)
		if err != nil {
			return nil, fmt.Errorf("regimes[%d]: %w", i, err)
		}
		schedule.Rates = append(schedule.Rates, v)
	}
	for i, s := range raw.ProfitShare {
		from, err := parseEffective(s.EffectiveFrom)
		if err != nil {
			return nil, fmt.Errorf("profit_share[%d]: %w", i, err)
		}
		ratio, err := parseDecimal("ratio", s.Ratio)
		if err != nil {
			return nil, fmt.Errorf("profit_share[%d]: %w", i, err)
		}
		schedule.Shares = append(schedule.Shares, fuel.ShareVersion{EffectiveFrom: from, Ratio: ratio})
	}

	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	return schedule, nil
}

func parseRegime(r RegimeYAML) (fuel.RateVersion, error) {
	from, err := parseEffective(r.EffectiveFrom)
	if err != nil {
		return fuel.RateVersion{}, err
	}

	set := fuel.RateSet{Name: r.Name}
	tables := []struct {
		name string
		in   TableYAML
		out  *generic.TierTable
	}{
		{"commission.gasoline", r.Commission.Gasoline, &set.Commission.Gasoline},
		{"commission.diesel", r.Commission.Diesel, &set.Commission.Diesel},
		{"admin_fee.gasoline", r.AdminFee.Gasoline, &set.AdminFee.Gasoline},
		{"admin_fee.diesel", r.AdminFee.Diesel, &set.AdminFee.Diesel},
	}
	for _, t := range tables {
		table, err := parseTable(t.in)
		if err != nil {
			return fuel.RateVersion{}, fmt.Errorf("%s: %w", t.name, err)
		}
		*t.out = table
	}

	set.AdminFee.DieselBasis = fuel.BasisBatch
	if r.AdminFee.DieselBasis != "" {
		set.AdminFee.DieselBasis = fuel.FeeBasis(r.AdminFee.DieselBasis)
	}

	return fuel.RateVersion{EffectiveFrom: from, Rates: set}, nil
}

func parseTable(t TableYAML) (generic.TierTable, error) {
	switch {
	case t.Rate != "" && len(t.Tiers) > 0:
		return nil, fmt.Errorf("set either rate or tiers, not both: %w", generic.ErrInvalidInput)
	case t.Rate != "":
		rate, err := parseDecimal("rate", t.Rate)
		if err != nil {
			return nil, err
		}
		return generic.Flat(rate), nil
	case len(t.Tiers) == 0:
		return nil, fmt.Errorf("rate or tiers required: %w", generic.ErrInvalidInput)
	}

	var bounds, rates []decimal.Decimal
	for i, tier := range t.Tiers {
		rate, err := parseDecimal(fmt.Sprintf("tiers[%d].rate", i), tier.Rate)
		if err != nil {
			return nil, err
		}
		rates = append(rates, rate)

		last := i == len(t.Tiers)-1
		if last != (tier.UpTo == "") {
			return nil, fmt.Errorf("tiers[%d]: only the last tier omits up_to: %w", i, generic.ErrInvalidTierTable)
		}
		if !last {
			bound, err := parseDecimal(fmt.Sprintf("tiers[%d].up_to", i), tier.UpTo)
			if err != nil {
				return nil, err
			}
			bounds = append(bounds, bound)
		}
	}
	return generic.Tiered(bounds, rates), nil
}

func parseEffective(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return generic.ParseDate(s)
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &generic.FieldError{Field: field, Message: fmt.Sprintf("not a number: %q", s)}
	}
	return v, nil
}
