/*
Package fuel implements the fuel-retail revenue calculation engine.

PURPOSE:
  A station operator submits one record per trading day: liters sold and
  sales per fuel product. The engine prices the day's volume against the
  month's running total (commission tiers), charges the administrative
  (SEDC) fee once per month on the closing record, allocates the month's
  operating costs, and splits net profit with the reporting entity (KASB).

KEY CONCEPTS:
  - Category: A fuel product code; grouped into Gasoline, Diesel, Other
  - DailyRecord: One day's entries plus optional month-closing costs
  - Schedule: Date-versioned rates (commission/fee regime, profit share)
  - Tracker: Running Gasoline/Diesel volume per month during replay
  - Driver: Rebuilds every stored result from raw records, in date order

ORDERING:
  Tier pricing depends on what was sold earlier in the month, so records of
  one month must be priced in ascending date order. The Driver is the only
  component that advances the Tracker.

SEE ALSO:
  - schedule.go: Rate schedule and resolver
  - commission.go: Tiered commission calculator
  - overhead.go: Administrative fee and cost allocation
  - tracker.go: Monthly cumulative tracker
  - recompute.go: Recomputation driver
*/
package fuel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CATEGORY
// =============================================================================

// Category is a fuel product code.
type Category string

const (
	PremiumGasolineTierA Category = "premium_gasoline_a"
	PremiumGasolineTierB Category = "premium_gasoline_b"
	DieselTierA          Category = "diesel_a"
	DieselTierB          Category = "diesel_b"
	Other                Category = "other"
)

// Group is the tiering group a category belongs to.
type Group string

const (
	GroupGasoline Group = "gasoline"
	GroupDiesel   Group = "diesel"
	GroupOther    Group = "other"
)

var categories = []Category{PremiumGasolineTierA, PremiumGasolineTierB, DieselTierA, DieselTierB, Other}

// Categories returns all categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func (c Category) Group() Group {
	switch c {
	case PremiumGasolineTierA, PremiumGasolineTierB:
		return GroupGasoline
	case DieselTierA, DieselTierB:
		return GroupDiesel
	default:
		return GroupOther
	}
}

func (c Category) Valid() bool {
	for _, k := range categories {
		if c == k {
			return true
		}
	}
	return false
}

// Product names as they appear on station reports.
var productAliases = map[string]Category{
	"ron95":         PremiumGasolineTierA,
	"ron 95":        PremiumGasolineTierA,
	"ron97":         PremiumGasolineTierB,
	"ron 97":        PremiumGasolineTierB,
	"diesel":        DieselTierA,
	"diesel b10":    DieselTierA,
	"diesel b7":     DieselTierB,
	"diesel euro 5": DieselTierB,
}

var labels = map[Category]string{
	PremiumGasolineTierA: "RON 95",
	PremiumGasolineTierB: "RON 97",
	DieselTierA:          "Diesel B10",
	DieselTierB:          "Diesel Euro 5",
	Other:                "Other",
}

// Label is the product name printed on statements.
func (c Category) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return string(c)
}

// ParseCategory accepts either a category code or a product name. Unknown
// product names (lubricants, shop sales) map to Other.
func ParseCategory(s string) Category {
	key := strings.ToLower(strings.TrimSpace(s))
	if c := Category(key); c.Valid() {
		return c
	}
	if c, ok := productAliases[key]; ok {
		return c
	}
	return Other
}

// =============================================================================
// RECORD TYPES
// =============================================================================

// FuelEntry is one product line of a daily record.
type FuelEntry struct {
	Category    Category
	Volume      decimal.Decimal // liters
	SalesAmount decimal.Decimal
}

// DynamicCost is a free-form cost line entered on a closing record.
type DynamicCost struct {
	Category    string
	Description string
	Amount      decimal.Decimal
}

// OverheadCosts is the month-closing cost breakdown.
type OverheadCosts struct {
	Fixed   map[string]decimal.Decimal
	Dynamic []DynamicCost
}

// Total sums fixed and dynamic lines. Fixed lines are summed in name order
// so the result never depends on map iteration.
func (c *OverheadCosts) Total() decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, name := range c.FixedNames() {
		total = total.Add(c.Fixed[name])
	}
	for _, d := range c.Dynamic {
		total = total.Add(d.Amount)
	}
	return total
}

// FixedNames returns fixed line names sorted.
func (c *OverheadCosts) FixedNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Fixed))
	for name := range c.Fixed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasAmounts reports whether any line carries a non-zero amount.
func (c *OverheadCosts) HasAmounts() bool {
	if c == nil {
		return false
	}
	for _, v := range c.Fixed {
		if !v.IsZero() {
			return true
		}
	}
	for _, d := range c.Dynamic {
		if !d.Amount.IsZero() {
			return true
		}
	}
	return false
}

// DailyRecord is one day's submission.
type DailyRecord struct {
	ID      string
	Date    time.Time
	Entries []FuelEntry
	Costs   *OverheadCosts
	Note    string
}

// IsClosing reports whether this record closes its month. Only closing
// records carry the administrative fee and operating costs.
func (r DailyRecord) IsClosing() bool {
	return r.Costs.HasAmounts()
}

func (r DailyRecord) Month() generic.MonthKey {
	return generic.MonthOf(r.Date)
}

// Volumes returns the batch volume per tiering group.
func (r DailyRecord) Volumes() (gasoline, diesel decimal.Decimal) {
	return groupVolumes(r.Entries)
}

func groupVolumes(entries []FuelEntry) (gasoline, diesel decimal.Decimal) {
	gasoline, diesel = decimal.Zero, decimal.Zero
	for _, e := range entries {
		switch e.Category.Group() {
		case GroupGasoline:
			gasoline = gasoline.Add(e.Volume)
		case GroupDiesel:
			diesel = diesel.Add(e.Volume)
		}
	}
	return gasoline, diesel
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the record at the collaborator boundary. The engine itself
// assumes validated, non-negative input.
func (r DailyRecord) Validate() error {
	if r.Date.IsZero() {
		return &ValidationError{Field: "date", Message: "required"}
	}
	if len(r.Entries) == 0 {
		return &ValidationError{Field: "entries", Message: "at least one entry required"}
	}
	for i, e := range r.Entries {
		field := fmt.Sprintf("entries[%d]", i)
		if !e.Category.Valid() {
			return &ValidationError{Field: field + ".category", Message: fmt.Sprintf("unknown category %q", e.Category)}
		}
		if e.Volume.IsNegative() {
			return &ValidationError{Field: field + ".volume", Message: "must not be negative"}
		}
		if e.SalesAmount.IsNegative() {
			return &ValidationError{Field: field + ".sales_amount", Message: "must not be negative"}
		}
	}
	if r.Costs != nil {
		for _, name := range r.Costs.FixedNames() {
			if strings.TrimSpace(name) == "" {
				return &ValidationError{Field: "costs.fixed", Message: "line name required"}
			}
			if r.Costs.Fixed[name].IsNegative() {
				return &ValidationError{Field: "costs.fixed." + name, Message: "must not be negative"}
			}
		}
		for i, d := range r.Costs.Dynamic {
			if d.Amount.IsNegative() {
				return &ValidationError{Field: fmt.Sprintf("costs.dynamic[%d].amount", i), Message: "must not be negative"}
			}
		}
	}
	return nil
}

// =============================================================================
// RESULT
// =============================================================================

// EntryResult is the per-entry allocation, in the order of the record's entries.
type EntryResult struct {
	Category   Category
	Volume     decimal.Decimal
	Commission decimal.Decimal
	Overhead   decimal.Decimal
	NetProfit  decimal.Decimal
}

// Result is the stored outcome of pricing one record.
type Result struct {
	RecordID         string
	Date             time.Time
	Regime           string
	ProfitShareRatio decimal.Decimal

	Entries []EntryResult

	GasolineVolume     decimal.Decimal
	DieselVolume       decimal.Decimal
	GasolineCommission decimal.Decimal
	DieselCommission   decimal.Decimal
	GrossCommission    decimal.Decimal
	GasolineSEDCFee    decimal.Decimal
	DieselSEDCFee      decimal.Decimal
	SEDCFee            decimal.Decimal
	OperatingCosts     decimal.Decimal
	TotalOverhead      decimal.Decimal
	NetProfit          decimal.Decimal
	KASBShare          decimal.Decimal
	Closing            bool
	CumulativeGasoline decimal.Decimal // month total after this record
	CumulativeDiesel   decimal.Decimal
}
