/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

NUMBERS:
  Volumes, rates and money are decimal.Decimal. They encode as JSON strings
  ("1650.00") and decode from either strings or numbers.

VALIDATION:
  Validation is done by fuel.DailyRecord.Validate, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/kasb/fuel-revenue-engine/fuel"
	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/kasb/fuel-revenue-engine/report"
	"github.com/shopspring/decimal"
)

// =============================================================================
// RECORDS
// =============================================================================

// EntryDTO is one product line. Product may be a category code ("diesel_a")
// or a product name as printed on station reports ("RON 95").
type EntryDTO struct {
	Product     string          `json:"product"`
	Category    fuel.Category   `json:"category,omitempty"`
	Volume      decimal.Decimal `json:"volume"`
	SalesAmount decimal.Decimal `json:"sales_amount"`
}

type DynamicCostDTO struct {
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

// CostsDTO carries the month's operating costs on a closing record.
type CostsDTO struct {
	Fixed   map[string]decimal.Decimal `json:"fixed,omitempty"`
	Dynamic []DynamicCostDTO           `json:"dynamic,omitempty"`
}

// RecordRequest is the body of POST /api/records.
type RecordRequest struct {
	ID      string     `json:"id,omitempty"`
	Date    string     `json:"date"`
	Note    string     `json:"note,omitempty"`
	Entries []EntryDTO `json:"entries"`
	Costs   *CostsDTO  `json:"costs,omitempty"`
}

// RecordDTO represents a stored record.
type RecordDTO struct {
	ID      string     `json:"id"`
	Date    string     `json:"date"`
	Note    string     `json:"note,omitempty"`
	Closing bool       `json:"closing"`
	Entries []EntryDTO `json:"entries"`
	Costs   *CostsDTO  `json:"costs,omitempty"`
}

// RecordDetailDTO pairs a record with its result, if it has been priced.
type RecordDetailDTO struct {
	Record RecordDTO  `json:"record"`
	Result *ResultDTO `json:"result,omitempty"`
}

func (req RecordRequest) toRecord() (fuel.DailyRecord, error) {
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		return fuel.DailyRecord{}, &fuel.ValidationError{Field: "date", Message: "use YYYY-MM-DD"}
	}
	rec := fuel.DailyRecord{
		ID:      req.ID,
		Date:    date,
		Note:    req.Note,
		Entries: make([]fuel.FuelEntry, len(req.Entries)),
	}
	for i, e := range req.Entries {
		category := e.Category
		if category == "" {
			category = fuel.ParseCategory(e.Product)
		}
		rec.Entries[i] = fuel.FuelEntry{
			Category:    category,
			Volume:      e.Volume,
			SalesAmount: e.SalesAmount,
		}
	}
	if req.Costs != nil {
		rec.Costs = &fuel.OverheadCosts{Fixed: req.Costs.Fixed}
		for _, d := range req.Costs.Dynamic {
			rec.Costs.Dynamic = append(rec.Costs.Dynamic, fuel.DynamicCost{
				Category:    d.Category,
				Description: d.Description,
				Amount:      d.Amount,
			})
		}
	}
	return rec, nil
}

func toRecordDTO(r fuel.DailyRecord) RecordDTO {
	dto := RecordDTO{
		ID:      r.ID,
		Date:    r.Date.Format(generic.DateLayout),
		Note:    r.Note,
		Closing: r.IsClosing(),
		Entries: make([]EntryDTO, len(r.Entries)),
	}
	for i, e := range r.Entries {
		dto.Entries[i] = EntryDTO{
			Product:     e.Category.Label(),
			Category:    e.Category,
			Volume:      e.Volume,
			SalesAmount: e.SalesAmount,
		}
	}
	if r.Costs != nil {
		dto.Costs = &CostsDTO{Fixed: r.Costs.Fixed}
		for _, d := range r.Costs.Dynamic {
			dto.Costs.Dynamic = append(dto.Costs.Dynamic, DynamicCostDTO(d))
		}
	}
	return dto
}

// =============================================================================
// RESULTS
// =============================================================================

type EntryResultDTO struct {
	Category   fuel.Category   `json:"category"`
	Product    string          `json:"product"`
	Volume     decimal.Decimal `json:"volume"`
	Commission decimal.Decimal `json:"commission"`
	Overhead   decimal.Decimal `json:"overhead"`
	NetProfit  decimal.Decimal `json:"net_profit"`
}

// ResultDTO represents a priced record.
type ResultDTO struct {
	RecordID           string           `json:"record_id"`
	Date               string           `json:"date"`
	Regime             string           `json:"regime"`
	ProfitShareRatio   decimal.Decimal  `json:"profit_share_ratio"`
	GasolineVolume     decimal.Decimal  `json:"gasoline_volume"`
	DieselVolume       decimal.Decimal  `json:"diesel_volume"`
	GasolineCommission decimal.Decimal  `json:"gasoline_commission"`
	DieselCommission   decimal.Decimal  `json:"diesel_commission"`
	GrossCommission    decimal.Decimal  `json:"gross_commission"`
	GasolineSEDCFee    decimal.Decimal  `json:"gasoline_sedc_fee"`
	DieselSEDCFee      decimal.Decimal  `json:"diesel_sedc_fee"`
	SEDCFee            decimal.Decimal  `json:"sedc_fee"`
	OperatingCosts     decimal.Decimal  `json:"operating_costs"`
	TotalOverhead      decimal.Decimal  `json:"total_overhead"`
	NetProfit          decimal.Decimal  `json:"net_profit"`
	KASBShare          decimal.Decimal  `json:"kasb_share"`
	Closing            bool             `json:"closing"`
	CumulativeGasoline decimal.Decimal  `json:"cumulative_gasoline"`
	CumulativeDiesel   decimal.Decimal  `json:"cumulative_diesel"`
	Entries            []EntryResultDTO `json:"entries"`
}

func toResultDTO(r fuel.Result) ResultDTO {
	dto := ResultDTO{
		RecordID:           r.RecordID,
		Date:               r.Date.Format(generic.DateLayout),
		Regime:             r.Regime,
		ProfitShareRatio:   r.ProfitShareRatio,
		GasolineVolume:     r.GasolineVolume,
		DieselVolume:       r.DieselVolume,
		GasolineCommission: r.GasolineCommission,
		DieselCommission:   r.DieselCommission,
		GrossCommission:    r.GrossCommission,
		GasolineSEDCFee:    r.GasolineSEDCFee,
		DieselSEDCFee:      r.DieselSEDCFee,
		SEDCFee:            r.SEDCFee,
		OperatingCosts:     r.OperatingCosts,
		TotalOverhead:      r.TotalOverhead,
		NetProfit:          r.NetProfit,
		KASBShare:          r.KASBShare,
		Closing:            r.Closing,
		CumulativeGasoline: r.CumulativeGasoline,
		CumulativeDiesel:   r.CumulativeDiesel,
		Entries:            make([]EntryResultDTO, len(r.Entries)),
	}
	for i, e := range r.Entries {
		dto.Entries[i] = EntryResultDTO{
			Category:   e.Category,
			Product:    e.Category.Label(),
			Volume:     e.Volume,
			Commission: e.Commission,
			Overhead:   e.Overhead,
			NetProfit:  e.NetProfit,
		}
	}
	return dto
}

// =============================================================================
// RECOMPUTE RUNS
// =============================================================================

type RunDTO struct {
	ID         string `json:"id"`
	Trigger    string `json:"trigger"`
	Status     string `json:"status"`
	Records    int    `json:"records"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

func toRunDTO(r fuel.RecomputeRun) RunDTO {
	dto := RunDTO{
		ID:        r.ID,
		Trigger:   r.Trigger,
		Status:    string(r.Status),
		Records:   r.Records,
		Error:     r.Error,
		StartedAt: r.StartedAt.Format(time.RFC3339),
	}
	if !r.FinishedAt.IsZero() {
		dto.FinishedAt = r.FinishedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// REPORTS
// =============================================================================

type CategoryLineDTO struct {
	Category   fuel.Category   `json:"category"`
	Product    string          `json:"product"`
	Volume     decimal.Decimal `json:"volume"`
	Commission decimal.Decimal `json:"commission"`
	Cost       decimal.Decimal `json:"cost"`
	Profit     decimal.Decimal `json:"profit"`
}

// MonthSummaryDTO is one month's income statement.
type MonthSummaryDTO struct {
	Month           string            `json:"month"`
	Note            string            `json:"note"`
	Records         int               `json:"records"`
	Closed          bool              `json:"closed"`
	Lines           []CategoryLineDTO `json:"lines"`
	GrossCommission decimal.Decimal   `json:"gross_commission"`
	SEDCFee         decimal.Decimal   `json:"sedc_fee"`
	OperatingCosts  decimal.Decimal   `json:"operating_costs"`
	TotalProfit     decimal.Decimal   `json:"total_profit"`
	KASBShare       decimal.Decimal   `json:"kasb_share"`
}

func toMonthSummaryDTO(s report.MonthSummary) MonthSummaryDTO {
	dto := MonthSummaryDTO{
		Month:           s.Month.String(),
		Note:            s.Note,
		Records:         s.Records,
		Closed:          s.Closed,
		Lines:           make([]CategoryLineDTO, len(s.Lines)),
		GrossCommission: s.GrossCommission.Value,
		SEDCFee:         s.SEDCFee.Value,
		OperatingCosts:  s.OperatingCosts.Value,
		TotalProfit:     s.TotalProfit.Value,
		KASBShare:       s.KASBShare.Value,
	}
	for i, l := range s.Lines {
		dto.Lines[i] = CategoryLineDTO{
			Category:   l.Category,
			Product:    l.Category.Label(),
			Volume:     l.Volume.Value,
			Commission: l.Commission.Value,
			Cost:       l.Cost.Value,
			Profit:     l.Profit.Value,
		}
	}
	return dto
}

// =============================================================================
// SCHEDULE
// =============================================================================

type TierDTO struct {
	From decimal.Decimal  `json:"from"`
	UpTo *decimal.Decimal `json:"up_to,omitempty"`
	Rate decimal.Decimal  `json:"rate"`
}

// RatesDTO is the rate set in force on a date.
type RatesDTO struct {
	Date               string          `json:"date"`
	Regime             string          `json:"regime"`
	ProfitShare        decimal.Decimal `json:"profit_share"`
	GasolineCommission []TierDTO       `json:"gasoline_commission"`
	DieselCommission   []TierDTO       `json:"diesel_commission"`
	GasolineAdminFee   []TierDTO       `json:"gasoline_admin_fee"`
	DieselAdminFee     []TierDTO       `json:"diesel_admin_fee"`
	DieselFeeBasis     string          `json:"diesel_fee_basis"`
}

func toRatesDTO(date time.Time, r fuel.Rates) RatesDTO {
	return RatesDTO{
		Date:               date.Format(generic.DateLayout),
		Regime:             r.Name,
		ProfitShare:        r.ProfitShare,
		GasolineCommission: toTierDTOs(r.Commission.Gasoline),
		DieselCommission:   toTierDTOs(r.Commission.Diesel),
		GasolineAdminFee:   toTierDTOs(r.AdminFee.Gasoline),
		DieselAdminFee:     toTierDTOs(r.AdminFee.Diesel),
		DieselFeeBasis:     string(r.AdminFee.DieselBasis),
	}
}

func toTierDTOs(t generic.TierTable) []TierDTO {
	out := make([]TierDTO, len(t))
	for i, tier := range t {
		out[i] = TierDTO{From: tier.From, Rate: tier.Rate}
		if !tier.Unbounded {
			to := tier.To
			out[i].UpTo = &to
		}
	}
	return out
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
