/*
Package report rolls stored results up into monthly income statements.

PURPOSE:
  The station's income is booked once a month as a single line ("Petros
  Income August 2025") with a breakdown per fuel category. Summarize builds
  that view from per-record results; it never reprices anything.

SEE ALSO:
  - fuel/engine.go: Result, the only input
  - xlsx.go: Workbook export of a summary
*/
package report

import (
	"fmt"
	"sort"

	"github.com/kasb/fuel-revenue-engine/fuel"
	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/shopspring/decimal"
)

// IncomeSource names the income stream in statement notes.
const IncomeSource = "Petros"

// CategoryLine is one fuel category's share of a month.
type CategoryLine struct {
	Category   fuel.Category
	Volume     generic.Amount
	Commission generic.Amount
	Cost       generic.Amount // SEDC fee and operating costs allocated to the category
	Profit     generic.Amount
}

// MonthSummary is a month's income statement.
type MonthSummary struct {
	Month   generic.MonthKey
	Note    string
	Records int
	Closed  bool // a closing record has been entered
	Lines   []CategoryLine

	GrossCommission generic.Amount
	SEDCFee         generic.Amount
	OperatingCosts  generic.Amount
	TotalProfit     generic.Amount
	KASBShare       generic.Amount
}

// Note returns the statement note for month.
func Note(month generic.MonthKey) string {
	return fmt.Sprintf("%s Income %s %d", IncomeSource, month.Month, month.Year)
}

// Summarize groups results by month, oldest first. Category lines follow
// fuel.Categories order and only list categories that appear in the month.
//
// Totals are sums of the stored per-record figures, except KASBShare, which
// is booked once on the month's total profit. Category costs can sum to less
// than the month's overhead when an SEDC fee was charged on a batch with no
// volume in that group.
func Summarize(results []fuel.Result) []MonthSummary {
	byMonth := make(map[generic.MonthKey]*monthAcc)
	for _, r := range results {
		month := generic.MonthOf(r.Date)
		acc, ok := byMonth[month]
		if !ok {
			acc = newMonthAcc(month)
			byMonth[month] = acc
		}
		acc.add(r)
	}

	months := make([]generic.MonthKey, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	out := make([]MonthSummary, len(months))
	for i, m := range months {
		out[i] = byMonth[m].summary()
	}
	return out
}

type monthAcc struct {
	sum   MonthSummary
	ratio decimal.Decimal
	lines map[fuel.Category]*CategoryLine
}

func newMonthAcc(month generic.MonthKey) *monthAcc {
	zero := generic.Ringgit(decimal.Zero)
	return &monthAcc{
		sum: MonthSummary{
			Month:           month,
			Note:            Note(month),
			GrossCommission: zero,
			SEDCFee:         zero,
			OperatingCosts:  zero,
			TotalProfit:     zero,
		},
		lines: make(map[fuel.Category]*CategoryLine),
	}
}

func (a *monthAcc) add(r fuel.Result) {
	s := &a.sum
	if s.Records == 0 {
		a.ratio = r.ProfitShareRatio
	}
	s.Records++
	s.Closed = s.Closed || r.Closing
	s.GrossCommission = s.GrossCommission.Add(generic.Ringgit(r.GrossCommission))
	s.SEDCFee = s.SEDCFee.Add(generic.Ringgit(r.SEDCFee))
	s.OperatingCosts = s.OperatingCosts.Add(generic.Ringgit(r.OperatingCosts))
	s.TotalProfit = s.TotalProfit.Add(generic.Ringgit(r.NetProfit))

	for _, e := range r.Entries {
		line, ok := a.lines[e.Category]
		if !ok {
			zero := generic.Ringgit(decimal.Zero)
			line = &CategoryLine{
				Category:   e.Category,
				Volume:     generic.Liters(decimal.Zero),
				Commission: zero,
				Cost:       zero,
				Profit:     zero,
			}
			a.lines[e.Category] = line
		}
		line.Volume = line.Volume.Add(generic.Liters(e.Volume))
		line.Commission = line.Commission.Add(generic.Ringgit(e.Commission))
		line.Cost = line.Cost.Add(generic.Ringgit(e.Overhead))
		line.Profit = line.Profit.Add(generic.Ringgit(e.NetProfit))
	}
}

func (a *monthAcc) summary() MonthSummary {
	s := a.sum
	s.KASBShare = generic.Ringgit(fuel.ProfitShare(s.TotalProfit.Value, a.ratio))
	for _, c := range fuel.Categories() {
		if line, ok := a.lines[c]; ok {
			s.Lines = append(s.Lines, *line)
		}
	}
	return s
}

// ForMonth returns the summary for month, or false if it has no results.
func ForMonth(summaries []MonthSummary, month generic.MonthKey) (MonthSummary, bool) {
	for _, s := range summaries {
		if s.Month == month {
			return s, true
		}
	}
	return MonthSummary{}, false
}
