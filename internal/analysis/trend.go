package analysis

import (
	"encoding/json"
	"math"
	"time"

	"trendlens/internal/dataset"
)

// TrendPoint is one month of a topic. Value is NaN for a missing cell.
type TrendPoint struct {
	Month time.Time
	Value float64
}

// MarshalJSON writes the month as YYYY-MM and a missing value as null.
func (p TrendPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Month string   `json:"month"`
		Value *float64 `json:"value"`
	}{
		Month: p.Month.Format(dataset.MonthLayout),
		Value: nullable(p.Value),
	})
}

// TrendSeries is the line-chart data of one topic.
type TrendSeries struct {
	Topic  string       `json:"topic"`
	Points []TrendPoint `json:"points"`
}

// Trend returns the topic's values in table row order without resampling,
// interpolation or gap filling.
func Trend(table *dataset.NormalizedTable, req ViewRequest) (*TrendSeries, error) {
	values, err := resolveTopic(table, req.Topic)
	if err != nil {
		return nil, err
	}
	months := table.Months()

	series := &TrendSeries{
		Topic:  req.Topic,
		Points: make([]TrendPoint, len(values)),
	}
	for i, v := range values {
		series.Points[i] = TrendPoint{Month: months[i], Value: v}
	}
	return series, nil
}

// Present returns the number of non-missing points.
func (s *TrendSeries) Present() int {
	n := 0
	for _, p := range s.Points {
		if !math.IsNaN(p.Value) {
			n++
		}
	}
	return n
}
