package report

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/vicanso/go-charts/v2"
	"gonum.org/v1/gonum/floats"

	"github.com/rustyeddy/marketlab/backtest"
	"github.com/rustyeddy/marketlab/journal"
	"github.com/rustyeddy/marketlab/market"
)

const (
	chartWidth  = 1000
	chartHeight = 500
	rollingDays = 63
)

var errTooFewPoints = errors.New("not enough data points")

// series is one chart line with its date labels.
type series struct {
	labels []string
	values []float64
}

// finite drops NaN points, keeping labels aligned.
func (s series) finite() series {
	out := series{}
	for i, v := range s.values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out.labels = append(out.labels, s.labels[i])
		out.values = append(out.values, v)
	}
	return out
}

// writeCharts renders the equity, drawdown and rolling volatility charts.
// A chart without at least two points is skipped. It returns the files written.
func writeCharts(dir string, snaps []journal.EquitySnapshot) ([]string, error) {
	labels := make([]string, len(snaps))
	for i, s := range snaps {
		labels[i] = s.Date.Format(market.DateLayout)
	}
	eq := backtest.EquitySeries(snaps)

	returns := backtest.DailyReturns(eq)
	var rv series
	if len(eq) > 1 && len(returns) == len(eq)-1 {
		rv = series{labels: labels[1:], values: backtest.RollingVolatility(returns, rollingDays)}
	}

	plots := []struct {
		file  string
		title string
		s     series
	}{
		{EquityPNG, "Equity curve", series{labels, eq}},
		{DrawdownPNG, "Drawdown", series{labels, backtest.DrawdownSeries(eq)}},
		{RollingPNG, fmt.Sprintf("Rolling volatility (%dd)", rollingDays), rv},
	}

	var written []string
	for _, c := range plots {
		png, err := LineChart(c.title, c.s.labels, c.s.values)
		if errors.Is(err, errTooFewPoints) {
			continue
		}
		if err != nil {
			return written, fmt.Errorf("render %s: %w", c.file, err)
		}
		if err := os.WriteFile(filepath.Join(dir, c.file), png, 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", c.file, err)
		}
		written = append(written, c.file)
	}
	return written, nil
}

// LineChart renders one PNG line chart. Non-finite values are dropped.
func LineChart(title string, labels []string, values []float64) ([]byte, error) {
	s := series{labels: labels, values: values}.finite()
	if len(s.values) < 2 {
		return nil, errTooFewPoints
	}

	yMin, yMax := floats.Min(s.values), floats.Max(s.values)
	pad := (yMax - yMin) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(yMax)*0.01, 0.01)
	}
	yMin -= pad
	yMax += pad

	split := 10
	if len(s.labels) < split {
		split = len(s.labels)
	}

	painter, err := charts.LineRender([][]float64{s.values},
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: s.labels, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(chartWidth),
		charts.HeightOptionFunc(chartHeight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}
