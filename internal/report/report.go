// Package report renders a finished backtest for people: console summary, workbook
// export and an equity curve chart.
package report

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/backtest"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/paper"
)

// PairSummary is the per-pair line of a report.
type PairSummary struct {
	Pair         string
	Method       string
	RankingScore float64
	HalfLife     float64
	ZWindow      int
	Trades       int
	GrossPnL     decimal.Decimal
	Costs        decimal.Decimal
	Sharpe       float64
}

// Summary is the headline view of a run. Money fields are rounded to cents.
type Summary struct {
	RunID       string
	Start       time.Time
	End         time.Time
	Years       float64
	Sharpe      float64
	TotalReturn float64
	MaxDrawdown float64
	Capital     decimal.Decimal
	FinalEquity decimal.Decimal
	NetPnL      decimal.Decimal
	TotalCosts  decimal.Decimal
	Candidates  int
	Pairs       []PairSummary
	Curve       []paper.EquityPoint
}

// Summarize extracts the report view from a backtest result.
func Summarize(res *backtest.Result) Summary {
	capital := money(res.Options.Capital)
	s := Summary{
		RunID:       res.RunID,
		Years:       res.Years,
		Sharpe:      res.Sharpe,
		TotalReturn: res.TotalReturn,
		MaxDrawdown: res.MaxDrawdown,
		Capital:     capital,
		FinalEquity: money(res.Options.Capital * (1 + res.TotalReturn)),
		NetPnL:      money(res.Options.Capital * res.TotalReturn),
		Candidates:  len(res.Candidates()),
		Curve:       res.Equity,
	}
	if n := len(res.Dates); n > 0 {
		s.Start, s.End = res.Dates[0], res.Dates[n-1]
	}
	total := decimal.Zero
	for _, p := range res.Pairs {
		costs := money(p.TotalCost)
		total = total.Add(costs)
		s.Pairs = append(s.Pairs, PairSummary{
			Pair:         p.Name(),
			Method:       string(p.Method),
			RankingScore: p.RankingScore,
			HalfLife:     p.HalfLife,
			ZWindow:      p.ZWindow,
			Trades:       p.Trades,
			GrossPnL:     money(p.GrossPnL),
			Costs:        costs,
			Sharpe:       p.Sharpe,
		})
	}
	s.TotalCosts = total
	return s
}

func money(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Round(2)
}

func ratio(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

// Print writes the console summary. Colors follow fatih/color's terminal detection.
func Print(w io.Writer, s Summary) error {
	head := color.New(color.Bold)
	good := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	tone := func(v float64) *color.Color {
		if v < 0 {
			return bad
		}
		return good
	}

	if _, err := head.Fprintf(w, "Trading %d of %d candidate pairs (run %s)\n", len(s.Pairs), s.Candidates, s.RunID); err != nil {
		return err
	}
	for _, p := range s.Pairs {
		if _, err := fmt.Fprintf(w, "  %-10s %-8s hl=%-7s z=%-4d trades=%-4d gross=%s cost=%s sharpe=%s\n",
			p.Pair, p.Method, ratio(p.HalfLife), p.ZWindow, p.Trades,
			p.GrossPnL.StringFixed(2), p.Costs.StringFixed(2), ratio(p.Sharpe)); err != nil {
			return err
		}
	}
	if _, err := tone(s.Sharpe).Fprintf(w, "\nPortfolio Sharpe : %s\n", ratio(s.Sharpe)); err != nil {
		return err
	}
	if _, err := tone(s.TotalReturn).Fprintf(w, "Total return     : %.1f%%  over %.1f yrs\n", s.TotalReturn*100, s.Years); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Max drawdown     : %.1f%%\nNet P&L          : %s on %s (costs %s)\n",
		s.MaxDrawdown*100, s.NetPnL.StringFixed(2), s.Capital.StringFixed(2), s.TotalCosts.StringFixed(2))
	return err
}
