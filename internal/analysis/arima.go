package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sartorproj/goarima/autoarima"
	"github.com/sartorproj/goarima/timeseries"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MinARIMAObservations is the shortest monthly grid handed to the ARIMA
// search. Shorter histories go to the fallback forecaster.
const MinARIMAObservations = 12

// SeasonalPeriod is the season length, in months, of a seasonal model.
const SeasonalPeriod = 12

var errNoARIMAModel = errors.New("no ARIMA model could be fitted")

// ARIMAForecaster selects an ARIMA model with goarima's stepwise auto-ARIMA
// search and predicts from it. Histories of three or more years also try a
// seasonal (period 12) model. The history is placed on a regular monthly grid
// first: repeated months are averaged and gaps are linearly interpolated.
//
// Histories that are too short, or that no model fits, are forecast with
// Fallback.
type ARIMAForecaster struct {
	Fallback Forecaster
	Config   func() *autoarima.Config
}

// NewARIMAForecaster returns the default Forecaster. It falls back to
// SeasonalTrendForecaster.
func NewARIMAForecaster() *ARIMAForecaster {
	return &ARIMAForecaster{
		Fallback: NewSeasonalTrendForecaster(),
		Config:   autoarima.DefaultConfig,
	}
}

// Forecast implements Forecaster.
func (f *ARIMAForecaster) Forecast(ctx context.Context, history []Observation, future []time.Time) (*ForecastResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(future) == 0 {
		return f.fallback(ctx, history, future, errors.New("no future months requested"))
	}

	g, ok := monthlyGrid(history)
	if !ok || len(g.values) < MinARIMAObservations {
		return f.fallback(ctx, history, future, errTooFewObservations)
	}

	result, err := f.fit(g.values)
	if err != nil {
		return f.fallback(ctx, history, future, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	steps := monthIndex(g.origin, future[len(future)-1]) - float64(len(g.values)-1)
	mean, lower, upper, err := predict(result, int(steps))
	if err != nil {
		return f.fallback(ctx, history, future, err)
	}

	out := &ForecastResult{
		Fitted: make([]float64, len(history)),
		Future: make([]Prediction, len(future)),
	}
	fitted := g.fitted(result.Residuals())
	for i, obs := range history {
		out.Fitted[i] = g.at(fitted, obs.Month)
	}
	last := float64(len(g.values) - 1)
	for h, m := range future {
		k := int(monthIndex(g.origin, m)-last) - 1
		if k < 0 || k >= len(mean) {
			return nil, fmt.Errorf("future month %s is not after the history", m.Format("2006-01"))
		}
		out.Future[h] = Prediction{Month: m, Value: mean[k], Lower: lower[k], Upper: upper[k]}
	}
	return out, nil
}

// fit runs the auto-ARIMA search. A panic inside the search is returned as
// an error.
func (f *ARIMAForecaster) fit(values []float64) (result *autoarima.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("arima: %v", r)
		}
	}()

	series := timeseries.New(values)
	seasonal := len(values) >= 3*SeasonalPeriod
	if seasonal {
		cfg := f.Config()
		cfg.Seasonal = true
		cfg.SeasonalM = SeasonalPeriod
		if result, err = autoarima.AutoARIMA(series, cfg); err == nil && hasModel(result) {
			return result, nil
		}
	}

	result, err = autoarima.AutoARIMA(series, f.Config())
	if err != nil {
		return nil, fmt.Errorf("arima: %w", err)
	}
	if !hasModel(result) {
		return nil, errNoARIMAModel
	}
	return result, nil
}

func (f *ARIMAForecaster) fallback(ctx context.Context, history []Observation, future []time.Time, cause error) (*ForecastResult, error) {
	if f.Fallback == nil {
		return nil, cause
	}
	return f.Fallback.Forecast(ctx, history, future)
}

func hasModel(r *autoarima.Result) bool {
	if r == nil {
		return false
	}
	if r.IsSeasonal {
		return r.SeasonalModel != nil
	}
	return r.Model != nil
}

// predict returns the point forecast and the IntervalCoverage interval for
// the next steps months. Seasonal models carry their own interval; for the
// others it is normal with the residual deviation growing with sqrt(h).
func predict(r *autoarima.Result, steps int) (mean, lower, upper []float64, err error) {
	if r.IsSeasonal {
		mean, lower, upper, err = r.SeasonalModel.PredictWithInterval(steps, IntervalCoverage)
	} else {
		mean, err = r.Predict(steps)
		if err == nil {
			sigma := stat.StdDev(finite(r.Residuals()), nil)
			z := distuv.UnitNormal.Quantile(0.5 + IntervalCoverage/2)
			lower = make([]float64, len(mean))
			upper = make([]float64, len(mean))
			for h, v := range mean {
				half := z * sigma * math.Sqrt(float64(h+1))
				lower[h], upper[h] = v-half, v+half
			}
		}
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("arima predict: %w", err)
	}
	if len(mean) != steps || len(lower) != steps || len(upper) != steps {
		return nil, nil, nil, fmt.Errorf("arima predict: %d values for %d steps", len(mean), steps)
	}
	for h := range mean {
		if !isFinite(mean[h]) || !isFinite(lower[h]) || !isFinite(upper[h]) {
			return nil, nil, nil, errors.New("arima predict: non-finite forecast")
		}
	}
	return mean, lower, upper, nil
}

type grid struct {
	origin time.Time
	values []float64
}

// monthlyGrid spreads the present observations over every month from the
// first to the last one. ok is false when fewer than two months are present.
func monthlyGrid(history []Observation) (grid, bool) {
	var first, last time.Time
	present := 0
	for _, obs := range history {
		if math.IsNaN(obs.Value) {
			continue
		}
		if present == 0 || obs.Month.Before(first) {
			first = obs.Month
		}
		if present == 0 || obs.Month.After(last) {
			last = obs.Month
		}
		present++
	}
	if present == 0 || !last.After(first) {
		return grid{}, false
	}

	n := int(monthIndex(first, last)) + 1
	sums := make([]float64, n)
	counts := make([]int, n)
	for _, obs := range history {
		if math.IsNaN(obs.Value) {
			continue
		}
		i := int(monthIndex(first, obs.Month))
		sums[i] += obs.Value
		counts[i]++
	}

	values := make([]float64, n)
	prev := -1
	for i := range values {
		if counts[i] == 0 {
			continue
		}
		values[i] = sums[i] / float64(counts[i])
		if prev >= 0 && i-prev > 1 {
			step := (values[i] - values[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				values[j] = values[prev] + step*float64(j-prev)
			}
		}
		prev = i
	}
	return grid{origin: first, values: values}, true
}

// fitted returns the one-step in-sample fit for every grid month. Residuals
// belong to the tail of the grid; the months before them, lost to
// differencing, stay NaN. History months outside the grid are NaN as well.
func (g grid) fitted(residuals []float64) []float64 {
	out := make([]float64, len(g.values))
	offset := len(g.values) - len(residuals)
	for i := range g.values {
		out[i] = math.NaN()
		if k := i - offset; k >= 0 && k < len(residuals) && isFinite(residuals[k]) {
			out[i] = g.values[i] - residuals[k]
		}
	}
	return out
}

func (g grid) at(values []float64, m time.Time) float64 {
	i := int(monthIndex(g.origin, m))
	if i < 0 || i >= len(values) {
		return math.NaN()
	}
	return values[i]
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}
