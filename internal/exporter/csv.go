package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"trendlens/internal/analysis"
	"trendlens/internal/dataset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes headers and records to out
func (w *CSVWriter) WriteCSV(out io.Writer, options WriteOptions) error {
	w.logger.Debug("Writing CSV",
		slog.Int("header_count", len(options.Headers)),
		slog.Int("record_count", len(options.Records)))

	if options.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ClusterCSV writes the table with a trailing Cluster column holding each
// row's cluster id. An uploaded column named Cluster is replaced.
func (w *CSVWriter) ClusterCSV(out io.Writer, table *dataset.NormalizedTable, clusters *analysis.ClusterAssignment) error {
	if len(clusters.Labels) != table.Rows() {
		return fmt.Errorf("cluster labels cover %d rows, table has %d", len(clusters.Labels), table.Rows())
	}

	headers, records := tableRecords(table)
	headers = append(headers, dataset.ClusterColumn)
	for i := range records {
		records[i] = append(records[i], formatInt(clusters.Labels[i]))
	}

	return w.WriteCSV(out, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// tableRecords renders every non-output column of table as text.
func tableRecords(table *dataset.NormalizedTable) ([]string, [][]string) {
	var headers []string
	for _, col := range table.Schema() {
		if col.Kind == dataset.KindOutput {
			continue
		}
		headers = append(headers, col.Name)
	}

	rows := table.Preview(table.Rows())
	records := make([][]string, len(rows))
	for i, row := range rows {
		record := make([]string, len(headers))
		for j, name := range headers {
			record[j] = formatCell(row[name])
		}
		records[i] = record
	}
	return headers, records
}
