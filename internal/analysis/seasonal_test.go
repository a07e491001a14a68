package analysis

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendlens/internal/shared/testutil"
)

func linearHistory(n int) []Observation {
	history := make([]Observation, n)
	for i := range history {
		history[i] = Observation{Month: month("2020-01").AddDate(0, i, 0), Value: 2*float64(i) + 1}
	}
	return history
}

func futureMonths(last time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for h := range out {
		out[h] = last.AddDate(0, h+1, 0)
	}
	return out
}

func TestSeasonalTrendForecasterLinear(t *testing.T) {
	history := linearHistory(10)

	result, err := NewSeasonalTrendForecaster().Forecast(context.Background(), history, futureMonths(history[9].Month, 3))
	require.NoError(t, err)

	for i, obs := range history {
		assert.InDelta(t, obs.Value, result.Fitted[i], 1e-9)
	}
	for h, p := range result.Future {
		want := 2*float64(10+h) + 1
		assert.InDelta(t, want, p.Value, 1e-9)
		assert.InDelta(t, want, p.Lower, 1e-6)
		assert.InDelta(t, want, p.Upper, 1e-6)
	}
}

func TestSeasonalTrendForecasterSkipsMissing(t *testing.T) {
	history := linearHistory(6)
	history[2].Value = math.NaN()

	result, err := NewSeasonalTrendForecaster().Forecast(context.Background(), history, futureMonths(history[5].Month, 1))
	require.NoError(t, err)

	assert.InDelta(t, 5.0, result.Fitted[2], 1e-9)
	assert.InDelta(t, 13.0, result.Future[0].Value, 1e-9)
}

func TestSeasonalTrendForecasterSeasonality(t *testing.T) {
	table := loadTable(t, testutil.MonthlyCSV(36, "Cats"))
	series, err := Forecast(context.Background(), table, ViewRequest{Topic: "Cats"}, NewSeasonalTrendForecaster())
	require.NoError(t, err)

	future := series.Future()
	// The generated wave peaks in April and bottoms out in October.
	assert.Equal(t, time.April, future[3].Month.Month())
	assert.Greater(t, future[3].Fitted, future[9].Fitted)

	for i, p := range series.History() {
		assert.InDelta(t, p.Actual, p.Fitted, 3.0, "month %d", i)
	}

	first := future[0].Upper - future[0].Lower
	last := future[len(future)-1].Upper - future[len(future)-1].Lower
	assert.Greater(t, last, first)
}

func TestSeasonalTrendForecasterErrors(t *testing.T) {
	f := NewSeasonalTrendForecaster()

	_, err := f.Forecast(context.Background(), nil, nil)
	assert.ErrorIs(t, err, errTooFewObservations)

	_, err = f.Forecast(context.Background(), linearHistory(1), nil)
	assert.ErrorIs(t, err, errTooFewObservations)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Forecast(ctx, linearHistory(5), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
