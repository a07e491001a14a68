// Package shared holds helpers used across TrendLens packages that belong to
// no single layer.
//
// The testutil subpackage provides a capturing slog handler and dataset
// fixtures (small CSV tables and generated monthly series) for tests. It must
// not import any other internal package so every package can use it.
package shared
