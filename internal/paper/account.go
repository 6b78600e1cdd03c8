package paper

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// EquityPoint is the portfolio value, as a multiple of starting capital, at a date.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	PnL    float64   `json:"pnl"`
	Equity float64   `json:"equity"`
}

// Account compounds daily portfolio P&L into an append-only equity curve.
type Account struct {
	mu           sync.Mutex
	startingCash float64
	equity       float64
	peak         float64
	maxDrawdown  float64
	curve        []EquityPoint
}

// NewAccount constructs an account with the capital daily P&L is measured against.
func NewAccount(startingCash float64) (*Account, error) {
	if !(startingCash > 0) {
		return nil, errors.New("starting cash must be positive")
	}
	return &Account{startingCash: startingCash, equity: 1, peak: 1}, nil
}

// StartingCash returns the initial bankroll.
func (a *Account) StartingCash() float64 { return a.startingCash }

// Apply compounds one day: equity *= 1 + pnl/startingCash. Undefined P&L counts as zero
// and dates must strictly increase.
func (a *Account) Apply(date time.Time, pnl float64) (EquityPoint, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n := len(a.curve); n > 0 && !date.After(a.curve[n-1].Date) {
		return EquityPoint{}, fmt.Errorf("equity %s is not after %s", date.Format(time.DateOnly), a.curve[n-1].Date.Format(time.DateOnly))
	}
	if math.IsNaN(pnl) || math.IsInf(pnl, 0) {
		pnl = 0
	}
	a.equity *= 1 + pnl/a.startingCash
	if a.equity > a.peak {
		a.peak = a.equity
	}
	if a.peak > 0 {
		if dd := 1 - a.equity/a.peak; dd > a.maxDrawdown {
			a.maxDrawdown = dd
		}
	}
	pt := EquityPoint{Date: date, PnL: pnl, Equity: a.equity}
	a.curve = append(a.curve, pt)
	return pt, nil
}

// Equity returns the latest equity multiple (1 before any day is applied).
func (a *Account) Equity() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.equity
}

// TotalReturn is the latest equity minus one.
func (a *Account) TotalReturn() float64 { return a.Equity() - 1 }

// MaxDrawdown is the largest peak-to-trough decline as a fraction of the peak.
func (a *Account) MaxDrawdown() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maxDrawdown
}

// Curve returns a copy of the equity points.
func (a *Account) Curve() []EquityPoint {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]EquityPoint, len(a.curve))
	copy(out, a.curve)
	return out
}

// Years is the calendar span of the curve in 365-day years.
func (a *Account) Years() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.curve) < 2 {
		return 0
	}
	span := a.curve[len(a.curve)-1].Date.Sub(a.curve[0].Date)
	return span.Hours() / 24 / 365
}
