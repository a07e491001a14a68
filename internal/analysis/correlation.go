package analysis

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"trendlens/internal/dataset"
)

// CorrelationMatrix is a symmetric matrix indexed by column name on both
// axes. Values[i][j] is the correlation of Columns[i] and Columns[j]; NaN
// marks an undefined pair.
type CorrelationMatrix struct {
	Columns []string
	Values  [][]float64
}

// At returns the correlation of columns a and b.
func (m *CorrelationMatrix) At(a, b string) (float64, bool) {
	i, j := -1, -1
	for k, name := range m.Columns {
		if name == a {
			i = k
		}
		if name == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return math.NaN(), false
	}
	return m.Values[i][j], true
}

// MarshalJSON writes undefined correlations as null.
func (m *CorrelationMatrix) MarshalJSON() ([]byte, error) {
	values := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = nullableRow(row)
	}
	return json.Marshal(struct {
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
	}{m.Columns, values})
}

// Correlation computes pairwise Pearson correlation over the numeric
// columns. Each pair uses the rows where both values are present. A pair with
// fewer than two such rows, or with zero variance on either side, is NaN.
func Correlation(table *dataset.NormalizedTable) (*CorrelationMatrix, error) {
	names := table.NumericColumns()
	if len(names) == 0 {
		return nil, ErrNoNumericColumns
	}

	cols := make([][]float64, len(names))
	for i, name := range names {
		values, err := table.Numeric(name)
		if err != nil {
			return nil, fmt.Errorf("correlation: %w", err)
		}
		cols[i] = values
	}

	n := len(names)
	m := &CorrelationMatrix{Columns: names, Values: make([][]float64, n)}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			r := pearson(cols[i], cols[j])
			if i == j && !math.IsNaN(r) {
				r = 1
			}
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m, nil
}

func pearson(a, b []float64) float64 {
	x := make([]float64, 0, len(a))
	y := make([]float64, 0, len(b))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		x = append(x, a[i])
		y = append(y, b[i])
	}
	if len(x) < 2 || constant(x) || constant(y) {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	return math.Max(-1, math.Min(1, r))
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
