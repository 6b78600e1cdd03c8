package market

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/metrics"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/signal"
)

// CSVProvider reads one file per symbol from a directory: SYMBOL.csv or SYMBOL_data.csv,
// with a header containing Date and either "Adj Close" or "Close".
type CSVProvider struct {
	dir string
	log zerolog.Logger
}

// NewCSVProvider points the provider at dir.
func NewCSVProvider(dir string, log zerolog.Logger) *CSVProvider {
	return &CSVProvider{dir: dir, log: log}
}

// Name identifies the provider in logs.
func (p *CSVProvider) Name() string { return "csv" }

// FetchCloses loads every symbol that has a file. Missing files are skipped; malformed files are errors.
func (p *CSVProvider) FetchCloses(ctx context.Context, symbols []string, start, end time.Time) (map[string][]signal.Bar, error) {
	out := make(map[string][]signal.Bar, len(symbols))
	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, ok := p.locate(sym)
		if !ok {
			metrics.ProviderRequests.WithLabelValues(p.Name(), "missing").Inc()
			p.log.Debug().Str("symbol", sym).Str("dir", p.dir).Msg("no csv for symbol")
			continue
		}
		bars, err := readCSV(path, sym)
		if err != nil {
			metrics.ProviderRequests.WithLabelValues(p.Name(), "error").Inc()
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		metrics.ProviderRequests.WithLabelValues(p.Name(), "ok").Inc()
		var kept []signal.Bar
		for _, b := range bars {
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

func (p *CSVProvider) locate(sym string) (string, bool) {
	for _, name := range []string{sym + ".csv", sym + "_data.csv"} {
		path := filepath.Join(p.dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

var csvDateLayouts = []string{time.DateOnly, "2006-01-02 15:04:05", time.RFC3339, "01/02/2006"}

func readCSV(path, sym string) ([]signal.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	dateCol, closeCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date", "datetime", "price":
			if dateCol < 0 {
				dateCol = i
			}
		case "adj close", "adj_close", "adjclose":
			closeCol = i
		case "close":
			if closeCol < 0 {
				closeCol = i
			}
		}
	}
	if dateCol < 0 || closeCol < 0 {
		return nil, errors.New("header needs Date and Close columns")
	}

	var bars []signal.Bar
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if dateCol >= len(rec) || closeCol >= len(rec) {
			continue
		}
		d, ok := parseCSVDate(rec[dateCol])
		if !ok {
			// yfinance writes ticker/units rows under the header
			continue
		}
		px, err := strconv.ParseFloat(strings.TrimSpace(rec[closeCol]), 64)
		if err != nil || px <= 0 {
			continue
		}
		bars = append(bars, signal.Bar{Symbol: sym, Date: d, Close: px})
	}
	return bars, nil
}

func parseCSVDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return signal.NormalizeDate(t), true
		}
	}
	return time.Time{}, false
}
