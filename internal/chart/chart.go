package chart

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"trendlens/internal/analysis"
	"trendlens/internal/dataset"
)

// Kind selects which view a chart renders.
type Kind string

const (
	KindTrend    Kind = "trend"
	KindForecast Kind = "forecast"
)

// ParseKind validates a chart kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindTrend, KindForecast:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

var (
	ErrUnknownKind     = errors.New("unknown chart kind")
	ErrNotEnoughPoints = errors.New("values for at least 2 distinct months are needed to draw a chart")
)

// Options sets the image size in pixels.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions is the size used by the HTTP chart endpoint.
var DefaultOptions = Options{Width: 1024, Height: 512}

var (
	colorActual   = drawing.ColorFromHex("1f77b4")
	colorFitted   = drawing.ColorFromHex("ff7f0e")
	colorInterval = drawing.ColorFromHex("ff7f0e").WithAlpha(90)
)

// TrendPNG draws the topic series. Missing months break the line.
func TrendPNG(s *analysis.TrendSeries, opts Options) ([]byte, error) {
	months := make([]time.Time, len(s.Points))
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		months[i] = p.Month
		values[i] = p.Value
	}

	if distinctMonths(months, values) < 2 {
		return nil, ErrNotEnoughPoints
	}
	series := segments(months, values, chart.Style{StrokeColor: colorActual, StrokeWidth: 2})
	return render(s.Topic, s.Topic, series, flatRange(values), opts)
}

// ForecastPNG draws history, fitted values and the forecast interval.
func ForecastPNG(s *analysis.ForecastSeries, opts Options) ([]byte, error) {
	n := len(s.Points)
	months := make([]time.Time, n)
	actual := make([]float64, n)
	fitted := make([]float64, n)
	lower := make([]float64, n)
	upper := make([]float64, n)
	for i, p := range s.Points {
		months[i] = p.Month
		actual[i] = p.Actual
		fitted[i] = p.Fitted
		lower[i] = p.Lower
		upper[i] = p.Upper
	}
	if distinctMonths(months, actual, fitted) < 2 {
		return nil, ErrNotEnoughPoints
	}

	band := chart.Style{StrokeColor: colorInterval, StrokeWidth: 1, StrokeDashArray: []float64{4, 4}}
	var series []chart.Series
	series = append(series, segments(months, upper, band)...)
	series = append(series, segments(months, lower, band)...)
	series = append(series, segments(months, fitted, chart.Style{StrokeColor: colorFitted, StrokeWidth: 2})...)
	series = append(series, segments(months, actual, chart.Style{StrokeColor: colorActual, StrokeWidth: 2})...)

	return render(s.Topic+" forecast", s.Topic, series, flatRange(actual, fitted, lower, upper), opts)
}

func render(title, yName string, series []chart.Series, yRange chart.Range, opts Options) ([]byte, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = DefaultOptions
	}

	graph := chart.Chart{
		Title:  title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding:     chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
			FillColor:   drawing.ColorWhite,
			StrokeWidth: 1,
			StrokeColor: drawing.ColorFromHex("efefef"),
		},
		XAxis: chart.XAxis{
			Name:           dataset.MonthColumn,
			ValueFormatter: chart.TimeValueFormatterWithFormat(dataset.MonthLayout),
		},
		YAxis: chart.YAxis{
			Name: yName,
			ValueFormatter: func(v interface{}) string {
				if vf, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f", vf)
				}
				return ""
			},
		},
		Series: series,
	}
	if yRange != nil {
		graph.YAxis.Range = yRange
	}

	buffer := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering chart: %w", err)
	}
	return buffer.Bytes(), nil
}

// segments splits a series at NaN values so gaps are not bridged. A lone
// point between gaps is drawn as a dot.
func segments(months []time.Time, values []float64, style chart.Style) []chart.Series {
	var out []chart.Series
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		s := style
		if end-start == 1 {
			s.StrokeWidth = chart.Disabled
			s.DotWidth = 3
			s.DotColor = style.StrokeColor
		}
		out = append(out, chart.TimeSeries{
			XValues: months[start:end],
			YValues: values[start:end],
			Style:   s,
		})
		start = -1
	}
	for i, v := range values {
		if math.IsNaN(v) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(values))
	return out
}

// flatRange returns a fixed y range around a constant series, whose
// automatic range would be empty. It returns nil otherwise.
func flatRange(columns ...[]float64) chart.Range {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, values := range columns {
		for _, v := range values {
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if lo != hi || math.IsInf(lo, 0) {
		return nil
	}
	return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
}

// distinctMonths counts the months holding a value in any column. Fewer
// than two leaves the time axis without a range.
func distinctMonths(months []time.Time, columns ...[]float64) int {
	seen := make(map[time.Time]struct{}, len(months))
	for i, m := range months {
		for _, values := range columns {
			if !math.IsNaN(values[i]) {
				seen[m] = struct{}{}
				break
			}
		}
	}
	return len(seen)
}
