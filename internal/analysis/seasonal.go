package analysis

import (
	"context"
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MinSeasonalObservations is the history length from which a month-of-year
// seasonal term is estimated.
const MinSeasonalObservations = 24

// IntervalCoverage is the central probability of the prediction interval.
const IntervalCoverage = 0.8

var errTooFewObservations = errors.New("at least 2 observations in distinct months are required")

// SeasonalTrendForecaster fits an ordinary least squares trend over the
// month index plus, with enough history, an additive month-of-year term
// estimated from the trend residuals. The prediction interval is normal,
// scaled by the residual standard deviation and widening with the horizon.
type SeasonalTrendForecaster struct{}

// NewSeasonalTrendForecaster returns the default Forecaster.
func NewSeasonalTrendForecaster() *SeasonalTrendForecaster {
	return &SeasonalTrendForecaster{}
}

// Forecast implements Forecaster.
func (f *SeasonalTrendForecaster) Forecast(ctx context.Context, history []Observation, future []time.Time) (*ForecastResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, errTooFewObservations
	}
	origin := history[0].Month

	var xs, ys []float64
	var moys []time.Month
	distinct := make(map[float64]struct{})
	for _, obs := range history {
		if math.IsNaN(obs.Value) {
			continue
		}
		x := monthIndex(origin, obs.Month)
		xs = append(xs, x)
		ys = append(ys, obs.Value)
		moys = append(moys, obs.Month.Month())
		distinct[x] = struct{}{}
	}
	if len(xs) < 2 || len(distinct) < 2 {
		return nil, errTooFewObservations
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return nil, errors.New("trend fit is undefined")
	}

	seasonal := make(map[time.Month]float64, 12)
	if len(xs) >= MinSeasonalObservations {
		sums := make(map[time.Month]float64, 12)
		counts := make(map[time.Month]int, 12)
		for i, x := range xs {
			sums[moys[i]] += ys[i] - (alpha + beta*x)
			counts[moys[i]]++
		}
		for m, n := range counts {
			seasonal[m] = sums[m] / float64(n)
		}
	}

	predict := func(m time.Time) float64 {
		return alpha + beta*monthIndex(origin, m) + seasonal[m.Month()]
	}

	sse := 0.0
	for i, x := range xs {
		r := ys[i] - (alpha + beta*x + seasonal[moys[i]])
		sse += r * r
	}
	dof := len(xs) - 2
	if dof < 1 {
		dof = 1
	}
	sigma := math.Sqrt(sse / float64(dof))
	z := distuv.UnitNormal.Quantile(0.5 + IntervalCoverage/2)

	result := &ForecastResult{
		Fitted: make([]float64, len(history)),
		Future: make([]Prediction, len(future)),
	}
	for i, obs := range history {
		result.Fitted[i] = predict(obs.Month)
	}
	n := float64(len(xs))
	for h, m := range future {
		v := predict(m)
		half := z * sigma * math.Sqrt(1+float64(h+1)/n)
		result.Future[h] = Prediction{Month: m, Value: v, Lower: v - half, Upper: v + half}
	}
	return result, nil
}

func monthIndex(origin, m time.Time) float64 {
	return float64((m.Year()-origin.Year())*12 + int(m.Month()) - int(origin.Month()))
}
