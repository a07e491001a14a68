package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// missingTokens are the cell texts read as missing values
var missingTokens = []string{"", "NA", "N/A", "NaN", "nan", "null"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Read dispatches on the file extension of name.
func Read(name string, r io.Reader) (*RawTable, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt", "":
		return ReadCSV(r)
	case ".xlsx":
		return ReadXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// ReadCSV reads comma-separated text with a header row.
func ReadCSV(r io.Reader) (*RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return fromRecords(records)
}

// ReadXLSX reads the first worksheet of a workbook. Its first row is the
// header.
func ReadXLSX(r io.Reader) (*RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyInput
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	// GetRows drops trailing empty cells, so rows can be shorter than the header
	if len(rows) > 0 {
		width := len(rows[0])
		for i, row := range rows {
			for len(row) < width {
				row = append(row, "")
			}
			rows[i] = row[:width]
		}
	}
	return fromRecords(rows)
}

// fromRecords infers column types with gota and converts the frame into a
// RawTable.
func fromRecords(records [][]string) (*RawTable, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrEmptyInput
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.TrimSpace(name)
	}

	if len(records) == 1 {
		return headerOnly(header), nil
	}

	records[0] = header
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(missingTokens),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("load records: %w", df.Err)
	}

	table := &RawTable{Rows: df.Nrow()}
	for _, name := range df.Names() {
		s := df.Col(name)
		if s.Err != nil {
			return nil, fmt.Errorf("column %s: %w", name, s.Err)
		}
		table.Columns = append(table.Columns, toRawColumn(name, s))
	}
	return table, nil
}

func toRawColumn(name string, s series.Series) RawColumn {
	col := RawColumn{
		Name:    name,
		Missing: s.IsNaN(),
		Text:    s.Records(),
	}
	switch {
	case s.Type() == series.Int, s.Type() == series.Float:
		col.Type = ValueNumeric
		col.Numbers = s.Float()
	case allMissing(col.Missing):
		// A column with no values at all is numeric and entirely NaN.
		col.Type = ValueNumeric
		col.Numbers = make([]float64, len(col.Missing))
		for i := range col.Numbers {
			col.Numbers[i] = math.NaN()
		}
	default:
		col.Type = ValueText
	}
	for i, missing := range col.Missing {
		if missing {
			col.Text[i] = ""
		}
	}
	return col
}

func allMissing(missing []bool) bool {
	for _, m := range missing {
		if !m {
			return false
		}
	}
	return len(missing) > 0
}

func headerOnly(header []string) *RawTable {
	table := &RawTable{}
	for _, name := range header {
		table.Columns = append(table.Columns, RawColumn{Name: name, Type: ValueText})
	}
	return table
}
