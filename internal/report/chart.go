package report

import (
	"fmt"
	"math"
	"os"
	"time"

	charts "github.com/vicanso/go-charts/v2"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/paper"
)

// RenderEquityPNG draws the equity curve as a PNG line chart.
func RenderEquityPNG(curve []paper.EquityPoint, sharpe float64) ([]byte, error) {
	if len(curve) < 2 {
		return nil, fmt.Errorf("equity curve needs at least two points, got %d", len(curve))
	}
	values := make([]float64, len(curve))
	labels := make([]string, len(curve))
	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for i, pt := range curve {
		values[i] = pt.Equity
		labels[i] = pt.Date.Format(time.DateOnly)
		minVal = math.Min(minVal, pt.Equity)
		maxVal = math.Max(maxVal, pt.Equity)
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = maxVal * 0.05
	}
	yMin, yMax := minVal-padding, maxVal+padding

	title := fmt.Sprintf("Pairs-portfolio equity curve - Sharpe %s", ratio(sharpe))
	p, err := charts.LineRender(
		[][]float64{values},
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			SplitNumber: 6,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1100),
		charts.HeightOptionFunc(400),
	)
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("chart bytes: %w", err)
	}
	return buf, nil
}

// WriteEquityPNG renders the curve and writes it to path.
func WriteEquityPNG(path string, s Summary) error {
	buf, err := RenderEquityPNG(s.Curve, s.Sharpe)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}
