package market

import (
	"context"
	"strings"
	"time"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/signal"
)

// StaticProvider serves bars held in memory.
type StaticProvider struct {
	bars map[string][]signal.Bar
}

// NewStaticProvider copies the supplied bars, keyed by upper-cased symbol.
func NewStaticProvider(bars map[string][]signal.Bar) *StaticProvider {
	cp := make(map[string][]signal.Bar, len(bars))
	for sym, series := range bars {
		cp[strings.ToUpper(sym)] = append([]signal.Bar(nil), series...)
	}
	return &StaticProvider{bars: cp}
}

// NewStaticProviderFromCloses builds bars from parallel date/close slices per symbol.
func NewStaticProviderFromCloses(dates []time.Time, closes map[string][]float64) *StaticProvider {
	bars := make(map[string][]signal.Bar, len(closes))
	for sym, col := range closes {
		series := make([]signal.Bar, 0, len(col))
		for i, px := range col {
			if i >= len(dates) {
				break
			}
			series = append(series, signal.Bar{Symbol: sym, Date: dates[i], Close: px})
		}
		bars[sym] = series
	}
	return NewStaticProvider(bars)
}

// Name identifies the provider in logs.
func (p *StaticProvider) Name() string { return "static" }

// FetchCloses returns the bars of the requested symbols that fall inside [start, end).
func (p *StaticProvider) FetchCloses(ctx context.Context, symbols []string, start, end time.Time) (map[string][]signal.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string][]signal.Bar, len(symbols))
	for _, sym := range symbols {
		series, ok := p.bars[strings.ToUpper(sym)]
		if !ok {
			continue
		}
		var kept []signal.Bar
		for _, b := range series {
			if !start.IsZero() && b.Date.Before(start) {
				continue
			}
			if !end.IsZero() && !b.Date.Before(end) {
				continue
			}
			kept = append(kept, b)
		}
		if len(kept) > 0 {
			out[sym] = kept
		}
	}
	return out, nil
}
