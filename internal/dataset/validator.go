package dataset

import (
	"math"
	"strings"
	"time"
)

// Validate turns a RawTable into a NormalizedTable or rejects it whole.
//
// The Month column must exist and every value must parse as YYYY-MM. Any
// failure returns ErrInvalidDataset and no partial table. Numeric columns
// keep NaN for missing cells; other columns are tagged text, and a column
// named Cluster is tagged output.
func Validate(raw *RawTable) (*NormalizedTable, error) {
	if raw == nil {
		return nil, ErrInvalidDataset
	}
	monthCol, ok := raw.Column(MonthColumn)
	if !ok {
		return nil, ErrInvalidDataset
	}

	months, ok := parseMonths(monthCol, raw.Rows)
	if !ok {
		return nil, ErrInvalidDataset
	}

	cols := make([]column, 0, len(raw.Columns))
	for _, rc := range raw.Columns {
		if rc.Name == MonthColumn {
			cols = append(cols, column{
				info:   ColumnInfo{Name: rc.Name, Kind: KindDate},
				months: months,
			})
			continue
		}
		cols = append(cols, normalizeColumn(rc, raw.Rows))
	}

	return newNormalizedTable(raw.Rows, cols), nil
}

// parseMonths parses every Month cell. Numeric Month columns are rejected:
// a bare number carries no year/month split.
func parseMonths(col *RawColumn, rows int) ([]time.Time, bool) {
	if rows > 0 && col.Type != ValueText {
		return nil, false
	}
	months := make([]time.Time, rows)
	for i := 0; i < rows; i++ {
		if col.Missing[i] {
			return nil, false
		}
		m, err := ParseMonth(col.Text[i])
		if err != nil {
			return nil, false
		}
		months[i] = m
	}
	return months, true
}

// monthParseLayout also takes an unpadded month such as 2020-1.
const monthParseLayout = "2006-1"

// ParseMonth parses a YYYY-MM value into the first instant of that month, UTC.
func ParseMonth(s string) (time.Time, error) {
	return time.Parse(monthParseLayout, strings.TrimSpace(s))
}

func normalizeColumn(rc RawColumn, rows int) column {
	if rc.Name == ClusterColumn {
		return column{
			info: ColumnInfo{Name: rc.Name, Kind: KindOutput},
			text: textCells(rc, rows),
		}
	}

	if rc.Type == ValueNumeric {
		values := make([]float64, rows)
		for i := 0; i < rows; i++ {
			if rc.Missing[i] {
				values[i] = math.NaN()
			} else {
				values[i] = rc.Numbers[i]
			}
		}
		return column{
			info:   ColumnInfo{Name: rc.Name, Kind: KindNumeric},
			values: values,
		}
	}

	return column{
		info: ColumnInfo{Name: rc.Name, Kind: KindText},
		text: textCells(rc, rows),
	}
}

func textCells(rc RawColumn, rows int) []string {
	text := make([]string, rows)
	copy(text, rc.Text)
	return text
}
