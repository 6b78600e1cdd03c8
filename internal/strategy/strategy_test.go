package strategy

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/signal"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/stats"
)

func arSpread(seed int64, n int, phi, sigma float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := 1; i < n; i++ {
		out[i] = phi*out[i-1] + sigma*rng.NormFloat64()
	}
	return out
}

func TestSpreadRejectsMisaligned(t *testing.T) {
	if _, err := Spread([]float64{1, 2}, []float64{1, 2}, []float64{1}); err == nil {
		t.Fatalf("expected misaligned error")
	}
	s, err := Spread([]float64{3, 5}, []float64{1, 2}, []float64{2, 2})
	if err != nil {
		t.Fatalf("Spread error: %v", err)
	}
	if s[0] != 1 || s[1] != 1 {
		t.Fatalf("unexpected spread %v", s)
	}
}

func TestHalfLifeMeanReverting(t *testing.T) {
	hl := HalfLife(arSpread(1, 2000, 0.9, 1))
	// slope near phi-1 = -0.1 gives ln2/0.1 ~ 6.9
	if hl < 4 || hl > 12 {
		t.Fatalf("expected half-life near 6.9, got %.2f", hl)
	}
}

func TestHalfLifeNonRevertingIsInfinite(t *testing.T) {
	explosive := make([]float64, 50)
	explosive[0] = 1
	for i := 1; i < len(explosive); i++ {
		explosive[i] = 1.1 * explosive[i-1]
	}
	if hl := HalfLife(explosive); !math.IsInf(hl, 1) {
		t.Fatalf("expected +Inf for explosive spread, got %v", hl)
	}
	if hl := HalfLife([]float64{1}); !math.IsInf(hl, 1) {
		t.Fatalf("expected +Inf for empty regression sample, got %v", hl)
	}
}

func TestZWindowStaysInBounds(t *testing.T) {
	cases := []struct {
		hl   float64
		want int
	}{
		{0, 60},
		{math.Inf(1), 240},
		{math.NaN(), 240},
		{30, 90},
		{33.5, 100},
		{100, 240},
	}
	for _, c := range cases {
		if got := ZWindow(c.hl, 3, 60, 240); got != c.want {
			t.Fatalf("ZWindow(%v) = %d, want %d", c.hl, got, c.want)
		}
	}
}

func TestZScoreWarmup(t *testing.T) {
	s := arSpread(2, 100, 0.5, 1)
	z := ZScore(s, 20)
	for i := 0; i < 19; i++ {
		if !math.IsNaN(z[i]) {
			t.Fatalf("expected undefined z during warm-up at %d", i)
		}
	}
	for i := 19; i < len(z); i++ {
		if math.IsNaN(z[i]) {
			t.Fatalf("expected defined z at %d", i)
		}
	}
	flat := ZScore([]float64{1, 1, 1, 1}, 2)
	if !math.IsNaN(flat[3]) {
		t.Fatalf("zero deviation window should give undefined z, got %v", flat[3])
	}
}

func TestBandsAreLagged(t *testing.T) {
	z := arSpread(3, 40, 0.3, 1)
	entry, exit := Bands(z, 10, 0.95, 0.5)
	if !math.IsNaN(entry[9]) || !math.IsNaN(exit[9]) {
		t.Fatalf("band at index 9 must wait for a full lagged window")
	}
	for _, i := range []int{10, 25, 39} {
		win := stats.Abs(z[i-10 : i])
		sort.Float64s(win)
		if want := stats.Quantile(win, 0.95); math.Abs(entry[i]-want) > 1e-12 {
			t.Fatalf("entry[%d] = %v, want %v", i, entry[i], want)
		}
		if want := stats.Quantile(win, 0.5); math.Abs(exit[i]-want) > 1e-12 {
			t.Fatalf("exit[%d] = %v, want %v", i, exit[i], want)
		}
	}
}

func TestTransitionRules(t *testing.T) {
	cases := []struct {
		name           string
		prev           signal.Position
		z, entry, exit float64
		want           signal.Position
	}{
		{"long entry", signal.Flat, -2, 1.5, 0.5, signal.Long},
		{"short entry", signal.Flat, 2, 1.5, 0.5, signal.Short},
		{"flat wins over entry", signal.Long, 0.3, 0.2, 0.5, signal.Flat},
		{"hold between bands", signal.Short, 1, 1.5, 0.5, signal.Short},
		{"reverse directly", signal.Short, -2, 1.5, 0.5, signal.Long},
		{"undefined z holds", signal.Long, math.NaN(), 1.5, 0.5, signal.Long},
		{"undefined band holds", signal.Short, 0.1, math.NaN(), math.NaN(), signal.Short},
		{"infinite z holds", signal.Flat, math.Inf(-1), 1.5, 0.5, signal.Flat},
	}
	for _, c := range cases {
		if got := Transition(c.prev, c.z, c.entry, c.exit); got != c.want {
			t.Fatalf("%s: got %s want %s", c.name, got, c.want)
		}
	}
}

func TestFoldStartsFlat(t *testing.T) {
	nan := math.NaN()
	z := []float64{nan, 1, -2, -1, 0.1, 3}
	entry := []float64{nan, nan, 1.5, 1.5, 1.5, 1.5}
	exit := []float64{nan, nan, 0.5, 0.5, 0.5, 0.5}
	got := Fold(z, entry, exit)
	want := []signal.Position{signal.Flat, signal.Flat, signal.Long, signal.Long, signal.Flat, signal.Short}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestAdaptiveBandTradesSpikes(t *testing.T) {
	spread := arSpread(4, 900, 0.5, 0.3)
	for i := 600; i < 603; i++ {
		spread[i] += 5
	}
	for i := 700; i < 703; i++ {
		spread[i] -= 5
	}
	policy := Build("adaptive_band", DefaultParams())
	out := policy.Signals(spread)
	if policy.Name() != ModeAdaptiveBand {
		t.Fatalf("unexpected policy name %s", policy.Name())
	}
	if out.ZWindow < 60 || out.ZWindow > 240 {
		t.Fatalf("z window out of bounds: %d", out.ZWindow)
	}
	if out.Positions[600] != signal.Short {
		t.Fatalf("expected SHORT on upward spike, got %s (z=%.2f entry=%.2f)", out.Positions[600], out.Z[600], out.Entry[600])
	}
	if out.Positions[700] != signal.Long {
		t.Fatalf("expected LONG on downward spike, got %s (z=%.2f entry=%.2f)", out.Positions[700], out.Z[700], out.Entry[700])
	}
	flattened := false
	for i := 603; i < 700; i++ {
		if out.Positions[i] == signal.Flat {
			flattened = true
			break
		}
	}
	if !flattened {
		t.Fatalf("expected position to flatten between spikes")
	}
	if signal.Transitions(out.Positions) < 3 {
		t.Fatalf("expected at least three position changes")
	}
}

func TestSinusoidalSpreadCrossings(t *testing.T) {
	const period = 60
	omega := 2 * math.Pi / period
	spread := make([]float64, 8*period+1)
	for i := range spread {
		spread[i] = 0.05 * math.Sin(omega*float64(i))
	}

	hl := HalfLife(spread)
	want := math.Ln2 / (1 - math.Cos(omega))
	if math.Abs(hl-want) > 1e-4*want {
		t.Fatalf("expected analytic half-life %.4f, got %.4f", want, hl)
	}
	w := ZWindow(hl, 3, 60, 240)
	if w != 240 {
		t.Fatalf("expected clamped window 240, got %d", w)
	}

	z := ZScore(spread, w)
	entry := make([]float64, len(z))
	exit := make([]float64, len(z))
	for i := range z {
		entry[i], exit[i] = 1, 0.5
	}
	positions := Fold(z, entry, exit)
	for i := 0; i < w-1; i++ {
		if positions[i] != signal.Flat {
			t.Fatalf("expected FLAT during warm-up at %d, got %s", i, positions[i])
		}
	}
	for i := w - 1; i < len(z); i++ {
		expected := signal.Flat
		switch phase := i % period; {
		case phase >= 8 && phase <= 26:
			expected = signal.Short
		case phase >= 38 && phase <= 56:
			expected = signal.Long
		}
		if positions[i] != expected {
			t.Fatalf("day %d: expected %s got %s (z=%.3f)", i, expected, positions[i], z[i])
		}
	}
	if signal.Transitions(positions) < 8 {
		t.Fatalf("expected repeated entries and exits, got %d transitions", signal.Transitions(positions))
	}
}

func TestSignReversionLeansAgainstZ(t *testing.T) {
	spread := arSpread(5, 300, 0.7, 1)
	out := Build("SIGN_REVERSION", Params{ReversionWindow: 50}).Signals(spread)
	if out.ZWindow != 50 {
		t.Fatalf("expected window 50, got %d", out.ZWindow)
	}
	for i, p := range out.Positions {
		z := out.Z[i]
		switch {
		case math.IsNaN(z) && p != signal.Flat:
			t.Fatalf("undefined z must be flat at %d", i)
		case z > 0 && p != signal.Short:
			t.Fatalf("positive z must be short at %d", i)
		case z < 0 && p != signal.Long:
			t.Fatalf("negative z must be long at %d", i)
		}
	}
}

func TestBuildUnknownModeDefaults(t *testing.T) {
	if Build("mystery", Params{}).Name() != ModeAdaptiveBand {
		t.Fatalf("unknown mode should fall back to adaptive band")
	}
}
