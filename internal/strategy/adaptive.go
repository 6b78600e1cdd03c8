package strategy

// AdaptiveBand trades the spread z-score against trailing quantile bands, with the
// z-score lookback scaled to the spread's half-life.
type AdaptiveBand struct {
	params Params
}

// NewAdaptiveBand builds the adaptive band policy, filling unset knobs with defaults.
func NewAdaptiveBand(params Params) *AdaptiveBand {
	return &AdaptiveBand{params: params.withDefaults()}
}

// Name returns the configured identifier for logging.
func (a *AdaptiveBand) Name() string { return ModeAdaptiveBand }

// Signals runs half-life, z-score, bands and the transition fold over the spread.
func (a *AdaptiveBand) Signals(spread []float64) Output {
	p := a.params
	hl := HalfLife(spread)
	w := ZWindow(hl, p.HalfLifeMult, p.MinZWindow, p.MaxZWindow)
	z := ZScore(spread, w)
	entry, exit := Bands(z, p.BandWindow, p.EntryQuantile, p.ExitQuantile)
	return Output{
		Positions: Fold(z, entry, exit),
		Z:         z,
		Entry:     entry,
		Exit:      exit,
		HalfLife:  hl,
		ZWindow:   w,
	}
}
