/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	station data. Each scenario submits daily records through fuel.Service,
	so every record is validated, stored and priced exactly as a real
	submission would be.

AVAILABLE SCENARIOS:

	petros-2025:    August to October 2025, three batches a month, closing
	                record with operating costs on the last day
	regime-change:  October and November 2025, same volumes priced under the
	                legacy and the current regime
	tier-crossing:  A diesel-heavy month whose running total crosses both
	                diesel commission tiers

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Build the scenario's daily records
 3. Submit them in date order

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "petros-2025"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase
  - fuel/service.go: Submit
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kasb/fuel-revenue-engine/fuel"
	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "petros-2025",
		Name:        "Petros 2025",
		Description: "Three months of legacy-regime sales with month-end closing costs",
	},
	{
		ID:          "regime-change",
		Name:        "Regime Change",
		Description: "October under the legacy rates, November under the current rates",
	},
	{
		ID:          "tier-crossing",
		Name:        "Tier Crossing",
		Description: "Diesel running total crosses the 200,000 L and 500,000 L tiers mid-month",
	},
}

var scenarioLoaders = map[string]func(*Handler, context.Context) error{
	"petros-2025":   (*Handler).loadPetros2025Scenario,
	"regime-change": (*Handler).loadRegimeChangeScenario,
	"tier-crossing": (*Handler).loadTierCrossingScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()

	h.mu.Lock()
	defer h.mu.Unlock()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(h, ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// monthVolumes are a month's sales per product, split evenly over three
// batches (10th, 20th, last day).
type monthVolumes struct {
	month      generic.MonthKey
	ron95      int64
	ron97      int64
	diesel     int64
	lubricants int64 // sales amount only
	costs      *fuel.OverheadCosts
}

func (h *Handler) loadPetros2025Scenario(ctx context.Context) error {
	months := []monthVolumes{
		{month: generic.MonthKey{Year: 2025, Month: time.August}, ron95: 12000, ron97: 5000, diesel: 20000, lubricants: 900, costs: stationCosts("1000", "450")},
		{month: generic.MonthKey{Year: 2025, Month: time.September}, ron95: 12500, ron97: 5100, diesel: 21000, costs: stationCosts("1100", "0")},
		{month: generic.MonthKey{Year: 2025, Month: time.October}, ron95: 11000, ron97: 4800, diesel: 19000, costs: stationCosts("900", "120")},
	}
	for _, m := range months {
		if err := h.submitAll(ctx, monthRecords(m)); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadRegimeChangeScenario(ctx context.Context) error {
	for _, month := range []time.Month{time.October, time.November} {
		m := monthVolumes{
			month:  generic.MonthKey{Year: 2025, Month: month},
			ron95:  150000,
			ron97:  60000,
			diesel: 240000,
			costs:  stationCosts("4000", "800"),
		}
		if err := h.submitAll(ctx, monthRecords(m)); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadTierCrossingScenario(ctx context.Context) error {
	month := generic.MonthKey{Year: 2025, Month: time.July}
	diesel := []int64{150000, 100000, 200000, 150000}
	days := []int{7, 14, 21, 31}

	records := make([]fuel.DailyRecord, len(days))
	for i, day := range days {
		records[i] = fuel.DailyRecord{
			ID:   fmt.Sprintf("%s-d%02d", month, day),
			Date: generic.NewDate(month.Year, month.Month, day),
			Entries: []fuel.FuelEntry{
				{Category: fuel.DieselTierA, Volume: decimal.NewFromInt(diesel[i]), SalesAmount: decimal.NewFromInt(diesel[i]).Mul(dieselPrice)},
				{Category: fuel.PremiumGasolineTierA, Volume: decimal.NewFromInt(5000), SalesAmount: decimal.NewFromInt(5000).Mul(ron95Price)},
			},
		}
	}
	records[len(records)-1].Costs = stationCosts("6000", "1500")
	return h.submitAll(ctx, records)
}

// =============================================================================
// HELPERS
// =============================================================================

var (
	ron95Price  = decimal.RequireFromString("2.05")
	ron97Price  = decimal.RequireFromString("3.47")
	dieselPrice = decimal.RequireFromString("2.15")
)

func stationCosts(salary, repairs string) *fuel.OverheadCosts {
	c := &fuel.OverheadCosts{
		Fixed: map[string]decimal.Decimal{
			"salary":      decimal.RequireFromString(salary),
			"electricity": decimal.RequireFromString("350"),
		},
	}
	if r := decimal.RequireFromString(repairs); r.IsPositive() {
		c.Dynamic = append(c.Dynamic, fuel.DynamicCost{Category: "repair", Description: "pump maintenance", Amount: r})
	}
	return c
}

// monthRecords splits a month's volumes over three batches; the last batch
// carries the closing costs.
func monthRecords(m monthVolumes) []fuel.DailyRecord {
	days := []int{10, 20, m.month.End().Day()}
	third := decimal.NewFromInt(3)
	share := func(total int64, i int) decimal.Decimal {
		t := decimal.NewFromInt(total)
		base := t.Div(third).Floor()
		if i == len(days)-1 {
			return t.Sub(base.Mul(decimal.NewFromInt(int64(len(days) - 1))))
		}
		return base
	}

	records := make([]fuel.DailyRecord, len(days))
	for i, day := range days {
		ron95, ron97, diesel := share(m.ron95, i), share(m.ron97, i), share(m.diesel, i)
		rec := fuel.DailyRecord{
			ID:   fmt.Sprintf("%s-d%02d", m.month, day),
			Date: generic.NewDate(m.month.Year, m.month.Month, day),
			Entries: []fuel.FuelEntry{
				{Category: fuel.PremiumGasolineTierA, Volume: ron95, SalesAmount: ron95.Mul(ron95Price)},
				{Category: fuel.PremiumGasolineTierB, Volume: ron97, SalesAmount: ron97.Mul(ron97Price)},
				{Category: fuel.DieselTierA, Volume: diesel, SalesAmount: diesel.Mul(dieselPrice)},
			},
		}
		if m.lubricants > 0 && i == 0 {
			rec.Entries = append(rec.Entries, fuel.FuelEntry{
				Category:    fuel.Other,
				Volume:      decimal.Zero,
				SalesAmount: decimal.NewFromInt(m.lubricants),
			})
		}
		records[i] = rec
	}
	records[len(records)-1].Costs = m.costs
	return records
}

func (h *Handler) submitAll(ctx context.Context, records []fuel.DailyRecord) error {
	for _, rec := range records {
		if _, err := h.Service.Submit(ctx, rec); err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
	}
	return nil
}
