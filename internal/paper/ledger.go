package paper

import (
	"fmt"
	"sync"
	"time"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/signal"
)

// PositionState is the book for one pair at the close of one date.
type PositionState struct {
	Date     time.Time       `json:"date"`
	Pair     string          `json:"pair"`
	Position signal.Position `json:"position"`
	Notional float64         `json:"notional"`
	Beta     float64         `json:"beta"`
	SharesA  float64         `json:"shares_a"`
	SharesB  float64         `json:"shares_b"`
	PnL      float64         `json:"pnl"`
	Cost     float64         `json:"cost"`
}

// StateRecorder captures position states for later inspection.
type StateRecorder interface {
	Record(PositionState)
}

// Ledger stores position states in memory. Each pair's history is append-only and
// strictly ordered by date.
type Ledger struct {
	mu     sync.Mutex
	states []PositionState
	last   map[string]time.Time
	sinks  []StateRecorder
}

// NewLedger creates an empty ledger optionally pre-sizing storage. Every appended state
// is forwarded to sinks.
func NewLedger(capacity int, sinks ...StateRecorder) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{
		states: make([]PositionState, 0, capacity),
		last:   make(map[string]time.Time),
		sinks:  sinks,
	}
}

// Append adds a state. A date at or before the pair's latest entry is rejected.
func (l *Ledger) Append(state PositionState) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.last[state.Pair]; ok && !state.Date.After(prev) {
		return fmt.Errorf("ledger %s: %s is not after %s", state.Pair, state.Date.Format(time.DateOnly), prev.Format(time.DateOnly))
	}
	l.last[state.Pair] = state.Date
	l.states = append(l.states, state)
	for _, sink := range l.sinks {
		sink.Record(state)
	}
	return nil
}

// Snapshot returns a copy of the recorded states.
func (l *Ledger) Snapshot() []PositionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]PositionState, len(l.states))
	copy(out, l.states)
	return out
}

// Pair returns the states recorded for one pair in date order.
func (l *Ledger) Pair(name string) []PositionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []PositionState
	for _, s := range l.states {
		if s.Pair == name {
			out = append(out, s)
		}
	}
	return out
}

// Len reports how many states are stored.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.states)
}
