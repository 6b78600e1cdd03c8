package market

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/metrics"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/signal"
)

// Store is the price-series store: it fetches the universe once and filters it by history length.
type Store struct {
	provider Provider
	log      zerolog.Logger
	minObs   int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMinObservations overrides the history requirement.
func WithMinObservations(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.minObs = n
		}
	}
}

// NewStore wraps a provider.
func NewStore(provider Provider, log zerolog.Logger, opts ...StoreOption) *Store {
	s := &Store{provider: provider, log: log, minObs: MinObservations}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches closes for the universe and aligns them. Instruments without enough
// history are reported in the inclusion list and left out of the table.
func (s *Store) Load(ctx context.Context, universe []string, start, end time.Time) (*Table, []Inclusion, error) {
	symbols := normalizeSymbols(universe)
	bars, err := s.provider.FetchCloses(ctx, symbols, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch closes from %s: %w", s.provider.Name(), err)
	}
	table, incl, err := BuildTable(bars, symbols, start, end, s.minObs)
	if err != nil {
		return nil, nil, err
	}
	for _, in := range incl {
		if in.Included {
			continue
		}
		metrics.InstrumentsExcluded.WithLabelValues(string(in.Reason)).Inc()
		s.log.Debug().Str("symbol", in.Symbol).Str("reason", string(in.Reason)).Int("observations", in.Observations).Msg("instrument excluded")
	}
	s.log.Info().Strs("universe", table.Symbols).Int("rows", table.Len()).Msg("universe after data check")
	return table, incl, nil
}

// BuildTable aligns bars on the union of their dates within [start, end). Zero start/end
// leave the range open. Duplicate dates keep the last bar; non-positive closes are ignored.
func BuildTable(bars map[string][]signal.Bar, universe []string, start, end time.Time, minObs int) (*Table, []Inclusion, error) {
	if minObs <= 0 {
		minObs = MinObservations
	}
	start, end = normalizeBound(start), normalizeBound(end)

	perSymbol := make(map[string]map[time.Time]float64, len(universe))
	incl := make([]Inclusion, 0, len(universe))
	var kept []string
	for _, sym := range universe {
		obs := make(map[time.Time]float64)
		for _, b := range bars[sym] {
			if b.Close <= 0 || math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
				continue
			}
			d := signal.NormalizeDate(b.Date)
			if !start.IsZero() && d.Before(start) {
				continue
			}
			if !end.IsZero() && !d.Before(end) {
				continue
			}
			obs[d] = b.Close
		}
		in := Inclusion{Symbol: sym, Observations: len(obs)}
		switch {
		case len(obs) == 0:
			in.Reason = NoData
		case len(obs) < minObs:
			in.Reason = InsufficientHistory
		default:
			in.Included = true
			kept = append(kept, sym)
			perSymbol[sym] = obs
		}
		incl = append(incl, in)
	}

	seen := make(map[time.Time]struct{})
	for _, obs := range perSymbol {
		for d := range obs {
			seen[d] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	closes := make(map[string][]float64, len(kept))
	for _, sym := range kept {
		col := make([]float64, len(dates))
		obs := perSymbol[sym]
		for i, d := range dates {
			if px, ok := obs[d]; ok {
				col[i] = px
			} else {
				col[i] = math.NaN()
			}
		}
		closes[sym] = col
	}
	table, err := NewTable(dates, kept, closes)
	if err != nil {
		return nil, nil, fmt.Errorf("align universe: %w", err)
	}
	return table, incl, nil
}

func normalizeBound(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return signal.NormalizeDate(t)
}

// normalizeSymbols trims, upper-cases and de-duplicates while keeping the configured order.
func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}
