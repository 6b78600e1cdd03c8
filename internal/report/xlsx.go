package report

import (
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary = "Summary"
	sheetEquity  = "Equity"
	sheetPairs   = "Pairs"
)

// WriteXLSX saves the summary, the equity curve and the per-pair table as a workbook.
func WriteXLSX(path string, s Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	rows := [][]any{
		{"Run ID", s.RunID},
		{"Start", dateCell(s.Start)},
		{"End", dateCell(s.End)},
		{"Years", cell(s.Years)},
		{"Sharpe", cell(s.Sharpe)},
		{"Total return", cell(s.TotalReturn)},
		{"Max drawdown", cell(s.MaxDrawdown)},
		{"Capital", s.Capital.StringFixed(2)},
		{"Final equity", s.FinalEquity.StringFixed(2)},
		{"Net P&L", s.NetPnL.StringFixed(2)},
		{"Costs", s.TotalCosts.StringFixed(2)},
		{"Candidates", s.Candidates},
	}
	if err := writeRows(f, sheetSummary, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(sheetEquity); err != nil {
		return fmt.Errorf("add sheet %s: %w", sheetEquity, err)
	}
	equity := make([][]any, 0, len(s.Curve)+1)
	equity = append(equity, []any{"Date", "PnL", "Equity"})
	for _, pt := range s.Curve {
		equity = append(equity, []any{dateCell(pt.Date), cell(pt.PnL), cell(pt.Equity)})
	}
	if err := writeRows(f, sheetEquity, equity); err != nil {
		return err
	}

	if _, err := f.NewSheet(sheetPairs); err != nil {
		return fmt.Errorf("add sheet %s: %w", sheetPairs, err)
	}
	pairs := [][]any{{"Pair", "Method", "Rank score", "Half-life", "Z window", "Trades", "Gross P&L", "Costs", "Sharpe"}}
	for _, p := range s.Pairs {
		pairs = append(pairs, []any{
			p.Pair, p.Method, cell(p.RankingScore), cell(p.HalfLife), p.ZWindow, p.Trades,
			p.GrossPnL.StringFixed(2), p.Costs.StringFixed(2), cell(p.Sharpe),
		})
	}
	if err := writeRows(f, sheetPairs, pairs); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, addr, &r); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// cell leaves undefined numbers blank; spreadsheets have no NaN.
func cell(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return v
}

func dateCell(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
