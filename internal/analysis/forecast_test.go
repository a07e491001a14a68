package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trendlens/internal/dataset"
	"trendlens/internal/shared/testutil"
)

// MockForecaster is a mock implementation of Forecaster
type MockForecaster struct {
	mock.Mock
}

func (m *MockForecaster) Forecast(ctx context.Context, history []Observation, future []time.Time) (*ForecastResult, error) {
	args := m.Called(ctx, history, future)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ForecastResult), args.Error(1)
}

func month(s string) time.Time {
	m, err := dataset.ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

func TestForecastTwentyFourMonths(t *testing.T) {
	table := loadTable(t, testutil.MonthlyCSV(24, "Cats"))

	series, err := Forecast(context.Background(), table, NewViewRequest("Cats", 0), NewSeasonalTrendForecaster())
	require.NoError(t, err)

	require.Len(t, series.Points, 36)
	assert.Equal(t, Horizon, series.Horizon)
	assert.Len(t, series.History(), 24)
	assert.Len(t, series.Future(), 12)

	for i, p := range series.History() {
		assert.False(t, p.Forecast)
		assert.Equal(t, testutil.MonthlyValue(i, 0), p.Actual)
		assert.False(t, math.IsNaN(p.Fitted))
	}
	for h, p := range series.Future() {
		assert.True(t, p.Forecast)
		assert.Equal(t, month("2021-01").AddDate(0, h, 0), p.Month)
		assert.True(t, math.IsNaN(p.Actual))
		assert.Less(t, p.Lower, p.Fitted)
		assert.Greater(t, p.Upper, p.Fitted)
	}
}

func TestForecastPassesSortedHistoryAndFutureMonths(t *testing.T) {
	table := loadTable(t, "Month,Cats\n2020-03,3\n2020-01,1\n2020-02,\n")
	history := []Observation{
		{Month: month("2020-01"), Value: 1},
		{Month: month("2020-02"), Value: math.NaN()},
		{Month: month("2020-03"), Value: 3},
	}

	forecaster := new(MockForecaster)
	forecaster.On("Forecast", mock.Anything, mock.MatchedBy(func(got []Observation) bool {
		if len(got) != len(history) {
			return false
		}
		for i := range got {
			if !got[i].Month.Equal(history[i].Month) {
				return false
			}
		}
		return got[0].Value == 1 && math.IsNaN(got[1].Value) && got[2].Value == 3
	}), mock.MatchedBy(func(future []time.Time) bool {
		return len(future) == Horizon &&
			future[0].Equal(month("2020-04")) &&
			future[Horizon-1].Equal(month("2021-03"))
	})).Return(&ForecastResult{
		Fitted: []float64{1, 2, 3},
		Future: make([]Prediction, Horizon),
	}, nil)

	series, err := Forecast(context.Background(), table, ViewRequest{Topic: "Cats"}, forecaster)
	require.NoError(t, err)
	forecaster.AssertExpectations(t)

	require.Len(t, series.Points, 15)
	assert.Equal(t, month("2020-01"), series.Points[0].Month)
	assert.Equal(t, 2.0, series.Points[1].Fitted)
	assert.True(t, math.IsNaN(series.Points[1].Actual))
}

func TestForecastFailures(t *testing.T) {
	tests := []struct {
		name   string
		result *ForecastResult
		err    error
	}{
		{name: "forecaster error", err: errors.New("cannot fit")},
		{name: "wrong fitted length", result: &ForecastResult{Fitted: []float64{1}, Future: make([]Prediction, Horizon)}},
		{name: "wrong horizon", result: &ForecastResult{Fitted: []float64{1, 2, 3}, Future: make([]Prediction, 3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forecaster := new(MockForecaster)
			if tt.result != nil {
				forecaster.On("Forecast", mock.Anything, mock.Anything, mock.Anything).Return(tt.result, nil)
			} else {
				forecaster.On("Forecast", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			_, err := Forecast(context.Background(), loadTable(t, testutil.PetsCSV), ViewRequest{Topic: "Cats"}, forecaster)
			assert.ErrorIs(t, err, ErrForecastFailed)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestForecastUnknownTopic(t *testing.T) {
	forecaster := new(MockForecaster)
	_, err := Forecast(context.Background(), loadTable(t, testutil.PetsCSV), ViewRequest{Topic: "Birds"}, forecaster)
	assert.ErrorIs(t, err, ErrUnknownTopic)
	forecaster.AssertNotCalled(t, "Forecast", mock.Anything, mock.Anything, mock.Anything)
}

func TestForecastTooFewObservations(t *testing.T) {
	tests := []string{
		"Month,Cats\n2020-01,5\n2020-02,\n",
		"Month,Cats\n2020-01,5\n2020-01,6\n",
	}
	for _, input := range tests {
		_, err := Forecast(context.Background(), loadTable(t, input), ViewRequest{Topic: "Cats"}, NewSeasonalTrendForecaster())
		assert.ErrorIs(t, err, ErrForecastFailed, input)
	}
}

func TestForecastPointJSON(t *testing.T) {
	p := ForecastPoint{Month: month("2021-01"), Actual: math.NaN(), Fitted: 4, Lower: 3, Upper: 5, Forecast: true}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"month":"2021-01","actual":null,"fitted":4,"lower":3,"upper":5,"forecast":true}`, string(data))
}
