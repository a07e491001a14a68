package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"trendlens/internal/analysis"
	"trendlens/internal/dataset"
)

// Sheet names of the report workbook.
const (
	SheetData        = "Data"
	SheetCorrelation = "Correlation"
	SheetClusters    = "Clusters"
	SheetForecast    = "Forecast"
)

// Report collects the views written to the workbook. Table is required; a
// nil view is left out.
type Report struct {
	Table       *dataset.NormalizedTable
	Correlation *analysis.CorrelationMatrix
	Clusters    *analysis.ClusterAssignment
	Forecast    *analysis.ForecastSeries
}

// WriteReport writes r as an xlsx workbook to w.
func WriteReport(w io.Writer, r Report) error {
	if r.Table == nil {
		return fmt.Errorf("report: nil table")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetData); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	b := &workbook{f: f, header: header}
	b.data(r.Table, r.Clusters)
	if r.Correlation != nil {
		b.correlation(r.Correlation)
	}
	if r.Clusters != nil {
		b.clusters(r.Clusters)
	}
	if r.Forecast != nil {
		b.forecast(r.Forecast)
	}
	if b.err != nil {
		return b.err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// workbook keeps the first error so sheet builders read straight through.
type workbook struct {
	f      *excelize.File
	header int
	err    error
}

func (b *workbook) sheet(name string) {
	if b.err != nil || name == SheetData {
		return
	}
	if _, err := b.f.NewSheet(name); err != nil {
		b.err = fmt.Errorf("new sheet %s: %w", name, err)
	}
}

func (b *workbook) row(sheet string, r int, values []interface{}) {
	if b.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, r)
	if err == nil {
		err = b.f.SetSheetRow(sheet, cell, &values)
	}
	if err != nil {
		b.err = fmt.Errorf("%s row %d: %w", sheet, r, err)
	}
}

func (b *workbook) headerRow(sheet string, values []string) {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	b.row(sheet, 1, row)
	if b.err != nil || len(values) == 0 {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(values), 1)
	if err == nil {
		err = b.f.SetCellStyle(sheet, "A1", last, b.header)
	}
	if err != nil {
		b.err = fmt.Errorf("%s header style: %w", sheet, err)
	}
}

func (b *workbook) data(table *dataset.NormalizedTable, clusters *analysis.ClusterAssignment) {
	var names []string
	var kinds []dataset.ColumnKind
	for _, col := range table.Schema() {
		if col.Kind == dataset.KindOutput {
			continue
		}
		names = append(names, col.Name)
		kinds = append(kinds, col.Kind)
	}
	withClusters := clusters != nil && len(clusters.Labels) == table.Rows()
	header := names
	if withClusters {
		header = append(append([]string(nil), names...), dataset.ClusterColumn)
	}
	b.headerRow(SheetData, header)

	for i, row := range table.Preview(table.Rows()) {
		values := make([]interface{}, 0, len(header))
		for j, name := range names {
			if kinds[j] == dataset.KindNumeric {
				if v, ok := row[name].(float64); ok {
					values = append(values, v)
				} else {
					values = append(values, nil)
				}
				continue
			}
			values = append(values, row[name])
		}
		if withClusters {
			values = append(values, clusters.Labels[i])
		}
		b.row(SheetData, i+2, values)
	}
}

func (b *workbook) correlation(m *analysis.CorrelationMatrix) {
	b.sheet(SheetCorrelation)
	b.headerRow(SheetCorrelation, append([]string{""}, m.Columns...))
	for i, name := range m.Columns {
		values := []interface{}{name}
		for _, v := range m.Values[i] {
			values = append(values, cellValue(v))
		}
		b.row(SheetCorrelation, i+2, values)
	}
	if b.err != nil || len(m.Columns) == 0 {
		return
	}

	last, err := excelize.CoordinatesToCellName(len(m.Columns)+1, len(m.Columns)+1)
	if err == nil {
		err = b.f.SetConditionalFormat(SheetCorrelation, "B2:"+last, []excelize.ConditionalFormatOptions{{
			Type:     "3_color_scale",
			Criteria: "=",
			MinType:  "num",
			MinValue: "-1",
			MinColor: "#5A8AC6",
			MidType:  "num",
			MidValue: "0",
			MidColor: "#FFFFFF",
			MaxType:  "num",
			MaxValue: "1",
			MaxColor: "#F8696B",
		}})
	}
	if err != nil {
		b.err = fmt.Errorf("correlation heatmap: %w", err)
	}
}

func (b *workbook) clusters(c *analysis.ClusterAssignment) {
	b.sheet(SheetClusters)
	header := []string{"Cluster", "Size", "Top topic"}
	for _, name := range c.Columns {
		header = append(header, "Mean "+name)
	}
	for _, name := range c.Columns {
		header = append(header, "Centroid "+name)
	}
	b.headerRow(SheetClusters, header)

	for i, s := range c.Clusters {
		values := []interface{}{s.ID, s.Size, s.TopTopic}
		for _, v := range s.Means {
			values = append(values, cellValue(v))
		}
		for _, v := range s.Centroid {
			values = append(values, cellValue(v))
		}
		b.row(SheetClusters, i+2, values)
	}
}

func (b *workbook) forecast(s *analysis.ForecastSeries) {
	b.sheet(SheetForecast)
	b.headerRow(SheetForecast, []string{dataset.MonthColumn, s.Topic, "Fitted", "Lower", "Upper", "Forecast"})
	for i, p := range s.Points {
		b.row(SheetForecast, i+2, []interface{}{
			p.Month.Format(dataset.MonthLayout),
			cellValue(p.Actual),
			cellValue(p.Fitted),
			cellValue(p.Lower),
			cellValue(p.Upper),
			p.Forecast,
		})
	}
}
