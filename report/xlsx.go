package report

import (
	"bytes"
	"fmt"

	"github.com/kasb/fuel-revenue-engine/fuel"
	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "summary"
	dailySheet   = "daily"
)

// BuildMonthXLSX renders a month's statement: the category breakdown and
// totals on one sheet, and one row per record on another.
func BuildMonthXLSX(s MonthSummary, results []fuel.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(dailySheet); err != nil {
		return nil, err
	}

	if err := f.SetCellValue(summarySheet, "A1", s.Note); err != nil {
		return nil, err
	}
	heading := [][]any{
		{"Month", s.Month.String()},
		{"Closed", s.Closed},
	}
	for i, values := range heading {
		if err := f.SetSheetRow(summarySheet, cell("A", i+2), &values); err != nil {
			return nil, err
		}
	}

	header := []any{"Product", "Volume (L)", "Commission", "Cost", "Profit"}
	if err := f.SetSheetRow(summarySheet, "A5", &header); err != nil {
		return nil, err
	}
	row := 6
	for _, line := range s.Lines {
		values := []any{
			line.Category.Label(),
			number(line.Volume),
			number(line.Commission),
			number(line.Cost),
			number(line.Profit),
		}
		if err := f.SetSheetRow(summarySheet, cell("A", row), &values); err != nil {
			return nil, err
		}
		row++
	}

	row++
	totals := []struct {
		label string
		value generic.Amount
	}{
		{"Gross Commission", s.GrossCommission},
		{"SEDC Fee", s.SEDCFee},
		{"Operating Costs", s.OperatingCosts},
		{"Total Profit", s.TotalProfit},
		{"KASB Share", s.KASBShare},
	}
	for _, t := range totals {
		values := []any{t.label, number(t.value)}
		if err := f.SetSheetRow(summarySheet, cell("A", row), &values); err != nil {
			return nil, err
		}
		row++
	}

	daily := []any{"Date", "Record", "Regime", "Gasoline (L)", "Diesel (L)", "Commission", "SEDC Fee", "Operating Costs", "Net Profit", "KASB Share"}
	if err := f.SetSheetRow(dailySheet, "A1", &daily); err != nil {
		return nil, err
	}
	for i, r := range results {
		values := []any{
			r.Date.Format(generic.DateLayout),
			r.RecordID,
			r.Regime,
			r.GasolineVolume.InexactFloat64(),
			r.DieselVolume.InexactFloat64(),
			r.GrossCommission.InexactFloat64(),
			r.SEDCFee.InexactFloat64(),
			r.OperatingCosts.InexactFloat64(),
			r.NetProfit.InexactFloat64(),
			r.KASBShare.InexactFloat64(),
		}
		if err := f.SetSheetRow(dailySheet, cell("A", i+2), &values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func number(a generic.Amount) float64 {
	return a.Value.InexactFloat64()
}
