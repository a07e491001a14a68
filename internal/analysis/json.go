package analysis

import "math"

// nullable maps NaN to nil so encoding/json writes null instead of failing.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nullableRow(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = nullable(v)
	}
	return out
}
