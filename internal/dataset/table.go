package dataset

import (
	"fmt"
	"math"
	"time"
)

// MonthColumn is the only column name the validator treats as the time key.
const MonthColumn = "Month"

// ClusterColumn is reserved for cluster output. An uploaded column with this
// name is carried but never selected as a numeric feature.
const ClusterColumn = "Cluster"

// MonthLayout is the accepted textual form of a Month value.
const MonthLayout = "2006-01"

// ValueType is the type a reader inferred for a raw column.
type ValueType string

const (
	ValueNumeric ValueType = "numeric"
	ValueText    ValueType = "text"
)

// RawColumn holds one column exactly as read. Missing[i] marks an absent
// cell; for numeric columns Numbers[i] is NaN at the same index.
type RawColumn struct {
	Name    string
	Type    ValueType
	Text    []string
	Numbers []float64
	Missing []bool
}

// RawTable is an uploaded table before validation.
type RawTable struct {
	Columns []RawColumn
	Rows    int
}

// Column returns the raw column with the given name.
func (t *RawTable) Column(name string) (*RawColumn, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// ColumnKind is the schema tag assigned once by the validator.
type ColumnKind string

const (
	KindDate    ColumnKind = "date"
	KindNumeric ColumnKind = "numeric"
	KindText    ColumnKind = "text"
	// KindOutput marks a column name reserved for derived results.
	KindOutput ColumnKind = "output"
)

// ColumnInfo describes a column of a NormalizedTable.
type ColumnInfo struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

type column struct {
	info   ColumnInfo
	months []time.Time
	values []float64
	text   []string
}

// NormalizedTable is a validated table with a tagged-column schema. It is
// immutable: accessors return copies.
type NormalizedTable struct {
	columns []column
	index   map[string]int
	rows    int
}

func newNormalizedTable(rows int, cols []column) *NormalizedTable {
	t := &NormalizedTable{
		columns: cols,
		index:   make(map[string]int, len(cols)),
		rows:    rows,
	}
	for i, c := range cols {
		t.index[c.info.Name] = i
	}
	return t
}

// Rows returns the number of data rows.
func (t *NormalizedTable) Rows() int { return t.rows }

// Schema lists every column in header order.
func (t *NormalizedTable) Schema() []ColumnInfo {
	out := make([]ColumnInfo, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.info
	}
	return out
}

// Months returns the Month value of every row in row order.
func (t *NormalizedTable) Months() []time.Time {
	c := t.columns[t.index[MonthColumn]]
	return append([]time.Time(nil), c.months...)
}

// NumericColumns returns the names of the numeric feature columns in
// header order. Month, text and output columns are never included.
func (t *NormalizedTable) NumericColumns() []string {
	var names []string
	for _, c := range t.columns {
		if c.info.Kind == KindNumeric {
			names = append(names, c.info.Name)
		}
	}
	return names
}

// Topics is the set of selectable topics: the numeric columns.
func (t *NormalizedTable) Topics() []string {
	return t.NumericColumns()
}

// Numeric returns a copy of a numeric column. Missing cells are NaN.
func (t *NormalizedTable) Numeric(name string) ([]float64, error) {
	i, ok := t.index[name]
	if !ok || t.columns[i].info.Kind != KindNumeric {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, name)
	}
	return append([]float64(nil), t.columns[i].values...), nil
}

// MonthRange returns the first and last month in row order. ok is false for
// an empty table.
func (t *NormalizedTable) MonthRange() (first, last time.Time, ok bool) {
	months := t.columns[t.index[MonthColumn]].months
	if len(months) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = months[0], months[0]
	for _, m := range months[1:] {
		if m.Before(first) {
			first = m
		}
		if m.After(last) {
			last = m
		}
	}
	return first, last, true
}

// PreviewRow is one row rendered for display. Missing numeric cells are nil.
type PreviewRow map[string]interface{}

// Preview returns up to n leading rows.
func (t *NormalizedTable) Preview(n int) []PreviewRow {
	if n > t.rows {
		n = t.rows
	}
	if n < 0 {
		n = 0
	}
	rows := make([]PreviewRow, n)
	for r := 0; r < n; r++ {
		row := make(PreviewRow, len(t.columns))
		for _, c := range t.columns {
			switch c.info.Kind {
			case KindDate:
				row[c.info.Name] = c.months[r].Format(MonthLayout)
			case KindNumeric:
				if math.IsNaN(c.values[r]) {
					row[c.info.Name] = nil
				} else {
					row[c.info.Name] = c.values[r]
				}
			default:
				row[c.info.Name] = c.text[r]
			}
		}
		rows[r] = row
	}
	return rows
}

// Clone returns a deep copy that shares no backing arrays with t.
func (t *NormalizedTable) Clone() *NormalizedTable {
	cols := make([]column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = column{
			info:   c.info,
			months: append([]time.Time(nil), c.months...),
			values: append([]float64(nil), c.values...),
			text:   append([]string(nil), c.text...),
		}
	}
	return newNormalizedTable(t.rows, cols)
}
