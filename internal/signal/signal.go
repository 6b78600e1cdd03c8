// Package signal standardizes payloads shared between data ingestion and strategy layers.
package signal

import (
	"fmt"
	"time"
)

// Bar is one daily adjusted close for an instrument.
type Bar struct {
	Symbol string
	Date   time.Time
	Close  float64
}

// Position is the directional state of a pair trade: long the spread, short the spread, or flat.
type Position int

const (
	// Short sells leg A and buys beta units of leg B.
	Short Position = -1
	// Flat holds nothing.
	Flat Position = 0
	// Long buys leg A and sells beta units of leg B.
	Long Position = 1
)

// Sign returns the position as a multiplier for notional exposure.
func (p Position) Sign() float64 { return float64(p) }

func (p Position) String() string {
	switch p {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	case Flat:
		return "FLAT"
	default:
		return fmt.Sprintf("Position(%d)", int(p))
	}
}

// Transitions counts the dates on which the position differs from the previous date.
func Transitions(positions []Position) int {
	n := 0
	prev := Flat
	for _, p := range positions {
		if p != prev {
			n++
		}
		prev = p
	}
	return n
}

// NormalizeDate truncates a timestamp to its UTC calendar day.
func NormalizeDate(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
