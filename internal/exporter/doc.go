// Package exporter writes dataset views as downloadable files.
//
// CSVWriter writes delimited text with an optional UTF-8 BOM so spreadsheet
// tools detect the encoding. ClusterCSV is the uploaded table with the
// Cluster id appended to every row.
//
// WriteReport builds an xlsx workbook with one sheet per view:
//
//	Data         the uploaded table, plus Cluster when clusters are given
//	Correlation  the correlation matrix
//	Clusters     size, top topic and per-topic mean of every cluster
//	Forecast     history and forecast of the selected topic
//
// Example usage:
//
//	report := exporter.Report{Table: table, Correlation: corr, Clusters: clusters}
//	if err := exporter.WriteReport(w, report); err != nil {
//		return err
//	}
package exporter
