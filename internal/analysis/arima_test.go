package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trendlens/internal/shared/testutil"
)

func monthlyHistory(n int) []Observation {
	history := make([]Observation, n)
	for i := range history {
		history[i] = Observation{
			Month: month("2019-01").AddDate(0, i, 0),
			Value: testutil.MonthlyValue(i, 0),
		}
	}
	return history
}

func TestARIMAForecaster(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{name: "two years, non-seasonal search", n: 24},
		{name: "four years, seasonal search", n: 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := monthlyHistory(tt.n)
			future := futureMonths(history[tt.n-1].Month, Horizon)

			result, err := NewARIMAForecaster().Forecast(context.Background(), history, future)
			require.NoError(t, err)
			require.Len(t, result.Fitted, tt.n)
			require.Len(t, result.Future, Horizon)

			for h, p := range result.Future {
				assert.Equal(t, future[h], p.Month)
				assert.False(t, math.IsNaN(p.Value))
				assert.LessOrEqual(t, p.Lower, p.Value)
				assert.GreaterOrEqual(t, p.Upper, p.Value)
			}
		})
	}
}

func TestARIMAForecasterShortHistoryUsesFallback(t *testing.T) {
	history := linearHistory(6)
	future := futureMonths(history[5].Month, 2)

	want := &ForecastResult{
		Fitted: make([]float64, 6),
		Future: []Prediction{{Month: future[0]}, {Month: future[1]}},
	}
	fallback := new(MockForecaster)
	fallback.On("Forecast", mock.Anything, history, future).Return(want, nil).Once()

	f := NewARIMAForecaster()
	f.Fallback = fallback

	got, err := f.Forecast(context.Background(), history, future)
	require.NoError(t, err)
	assert.Same(t, want, got)
	fallback.AssertExpectations(t)
}

func TestARIMAForecasterWithoutFallback(t *testing.T) {
	f := &ARIMAForecaster{Config: NewARIMAForecaster().Config}
	history := linearHistory(3)

	_, err := f.Forecast(context.Background(), history, futureMonths(history[2].Month, 1))
	assert.ErrorIs(t, err, errTooFewObservations)
}

func TestARIMAForecasterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewARIMAForecaster().Forecast(ctx, monthlyHistory(24), futureMonths(month("2020-12"), 1))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMonthlyGrid(t *testing.T) {
	history := []Observation{
		{Month: month("2020-01"), Value: 10},
		{Month: month("2020-04"), Value: 40},
		{Month: month("2020-01"), Value: 20},
		{Month: month("2020-05"), Value: math.NaN()},
	}

	g, ok := monthlyGrid(history)
	require.True(t, ok)
	assert.Equal(t, month("2020-01"), g.origin)
	assert.InDeltaSlice(t, []float64{15, 70.0 / 3, 95.0 / 3, 40}, g.values, 1e-9)

	assert.True(t, math.IsNaN(g.at(g.values, month("2020-05"))))
	assert.Equal(t, 40.0, g.at(g.values, month("2020-04")))

	_, ok = monthlyGrid([]Observation{{Month: month("2020-01"), Value: 1}, {Month: month("2020-01"), Value: 2}})
	assert.False(t, ok, "a single distinct month is not a series")
}

func TestGridFitted(t *testing.T) {
	g := grid{origin: month("2020-01"), values: []float64{1, 2, 4, 8}}

	fitted := g.fitted([]float64{0.5, -1, 2})

	assert.True(t, math.IsNaN(fitted[0]), "month lost to differencing")
	assert.Equal(t, []float64{1.5, 5, 6}, fitted[1:])
}

var _ Forecaster = (*ARIMAForecaster)(nil)
