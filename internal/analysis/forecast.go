package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"trendlens/internal/dataset"
)

// Horizon is the number of monthly periods a forecast extends past the last
// observed month.
const Horizon = 12

// Observation is one month of history. Value is NaN when missing.
type Observation struct {
	Month time.Time
	Value float64
}

// Prediction is a forecast value with its interval bounds.
type Prediction struct {
	Month time.Time
	Value float64
	Lower float64
	Upper float64
}

// ForecastResult is what a Forecaster returns: one in-sample fitted value
// per observation and one prediction per requested future month.
type ForecastResult struct {
	Fitted []float64
	Future []Prediction
}

// Forecaster fits history and predicts the future months. Observations with
// a NaN value must be skipped by the fit.
type Forecaster interface {
	Forecast(ctx context.Context, history []Observation, future []time.Time) (*ForecastResult, error)
}

// ForecastPoint is one month of the combined series. Historical points carry
// Actual and Fitted; forecast points carry Fitted and the interval.
type ForecastPoint struct {
	Month    time.Time
	Actual   float64
	Fitted   float64
	Lower    float64
	Upper    float64
	Forecast bool
}

// MarshalJSON writes the month as YYYY-MM and absent values as null.
func (p ForecastPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Month    string   `json:"month"`
		Actual   *float64 `json:"actual"`
		Fitted   *float64 `json:"fitted"`
		Lower    *float64 `json:"lower"`
		Upper    *float64 `json:"upper"`
		Forecast bool     `json:"forecast"`
	}{
		Month:    p.Month.Format(dataset.MonthLayout),
		Actual:   nullable(p.Actual),
		Fitted:   nullable(p.Fitted),
		Lower:    nullable(p.Lower),
		Upper:    nullable(p.Upper),
		Forecast: p.Forecast,
	})
}

// ForecastSeries is the history of a topic followed by Horizon forecast
// months.
type ForecastSeries struct {
	Topic   string          `json:"topic"`
	Horizon int             `json:"horizon"`
	Points  []ForecastPoint `json:"points"`
}

// History returns the observed part of the series.
func (s *ForecastSeries) History() []ForecastPoint {
	return s.Points[:len(s.Points)-s.Horizon]
}

// Future returns the forecast part of the series.
func (s *ForecastSeries) Future() []ForecastPoint {
	return s.Points[len(s.Points)-s.Horizon:]
}

// Forecast builds the (month, value) history of the topic in month order,
// asks forecaster for the Horizon calendar months after the last observed
// month and returns history and forecast as one series. Any forecaster
// failure is reported as ErrForecastFailed.
func Forecast(ctx context.Context, table *dataset.NormalizedTable, req ViewRequest, forecaster Forecaster) (*ForecastSeries, error) {
	values, err := resolveTopic(table, req.Topic)
	if err != nil {
		return nil, err
	}
	history := make([]Observation, len(values))
	for i, m := range table.Months() {
		history[i] = Observation{Month: m, Value: values[i]}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Month.Before(history[j].Month)
	})
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: no observations for %q", ErrForecastFailed, req.Topic)
	}

	last := history[len(history)-1].Month
	future := make([]time.Time, Horizon)
	for h := range future {
		future[h] = last.AddDate(0, h+1, 0)
	}

	result, err := forecaster.Forecast(ctx, history, future)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrForecastFailed, err)
	}
	if len(result.Fitted) != len(history) || len(result.Future) != Horizon {
		return nil, fmt.Errorf("%w: forecaster returned %d fitted and %d future values",
			ErrForecastFailed, len(result.Fitted), len(result.Future))
	}

	series := &ForecastSeries{
		Topic:   req.Topic,
		Horizon: Horizon,
		Points:  make([]ForecastPoint, 0, len(history)+Horizon),
	}
	for i, obs := range history {
		series.Points = append(series.Points, ForecastPoint{
			Month:  obs.Month,
			Actual: obs.Value,
			Fitted: result.Fitted[i],
			Lower:  math.NaN(),
			Upper:  math.NaN(),
		})
	}
	for h, p := range result.Future {
		series.Points = append(series.Points, ForecastPoint{
			Month:    future[h],
			Actual:   math.NaN(),
			Fitted:   p.Value,
			Lower:    p.Lower,
			Upper:    p.Upper,
			Forecast: true,
		})
	}
	return series, nil
}
