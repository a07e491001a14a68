// Package analysis derives the dashboard views from a validated
// dataset.NormalizedTable.
//
// # Views
//
//   - Trend: the (month, value) series of one topic in row order. Gaps stay
//     gaps.
//   - Correlation: pairwise Pearson correlation of every numeric column.
//   - Clusters: rows grouped into K clusters over standardized numeric
//     columns, with centroids and per-cluster means.
//   - Forecast: the history of one topic extended by Horizon monthly periods.
//
// Every view is a pure function of the table and a ViewRequest. Clustering
// and forecasting are delegated to the Clusterer and Forecaster ports;
// KMeans and SeasonalTrendForecaster are the default implementations.
//
// Missing values are NaN in memory and null in JSON.
package analysis
