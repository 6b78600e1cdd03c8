// Package market loads daily closes from a data provider and aligns them into a
// date x instrument table for the screener.
package market

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/signal"
)

// MinObservations is the history an instrument needs to enter the universe.
const MinObservations = 252

// Provider supplies daily adjusted closes for a list of instruments over [start, end).
// A symbol with no data is simply absent from the result.
type Provider interface {
	Name() string
	FetchCloses(ctx context.Context, symbols []string, start, end time.Time) (map[string][]signal.Bar, error)
}

// ExclusionReason explains why an instrument did not make it into the universe.
type ExclusionReason string

const (
	// NoData marks an instrument the provider returned nothing for.
	NoData ExclusionReason = "no_data"
	// InsufficientHistory marks an instrument with fewer than MinObservations closes.
	InsufficientHistory ExclusionReason = "insufficient_history"
)

// Inclusion is the per-instrument outcome of loading the universe.
type Inclusion struct {
	Symbol       string
	Included     bool
	Reason       ExclusionReason
	Observations int
}

// Table holds closes aligned on a shared calendar. Missing closes are NaN.
type Table struct {
	Dates   []time.Time
	Symbols []string
	closes  map[string][]float64
}

// NewTable validates that every column matches the calendar length.
func NewTable(dates []time.Time, symbols []string, closes map[string][]float64) (*Table, error) {
	for _, sym := range symbols {
		col, ok := closes[sym]
		if !ok {
			return nil, fmt.Errorf("missing column %s", sym)
		}
		if len(col) != len(dates) {
			return nil, fmt.Errorf("column %s has %d rows, calendar has %d", sym, len(col), len(dates))
		}
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("calendar not strictly increasing at %s", dates[i].Format(time.DateOnly))
		}
	}
	return &Table{Dates: dates, Symbols: symbols, closes: closes}, nil
}

// Len returns the number of calendar rows.
func (t *Table) Len() int { return len(t.Dates) }

// Closes returns the column for sym, or nil when it is not in the table.
func (t *Table) Closes(sym string) []float64 { return t.closes[sym] }

// Has reports whether sym is a column of the table.
func (t *Table) Has(sym string) bool {
	_, ok := t.closes[sym]
	return ok
}

// Pair returns the dates on which both a and b have a close, with the matching prices.
func (t *Table) Pair(a, b string) ([]time.Time, []float64, []float64) {
	ca, cb := t.closes[a], t.closes[b]
	if ca == nil || cb == nil {
		return nil, nil, nil
	}
	var dates []time.Time
	var pa, pb []float64
	for i, d := range t.Dates {
		if math.IsNaN(ca[i]) || math.IsNaN(cb[i]) {
			continue
		}
		dates = append(dates, d)
		pa = append(pa, ca[i])
		pb = append(pb, cb[i])
	}
	return dates, pa, pb
}

// Index maps each calendar date to its row.
func (t *Table) Index() map[time.Time]int {
	idx := make(map[time.Time]int, len(t.Dates))
	for i, d := range t.Dates {
		idx[d] = i
	}
	return idx
}
