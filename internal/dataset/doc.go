// Package dataset reads uploaded topic tables and validates them into a
// NormalizedTable with an explicit column schema. Validation is all or
// nothing: a table whose Month column is missing or has any value that is
// not YYYY-MM (an unpadded month such as 2020-1 is accepted) is rejected
// with ErrInvalidDataset.
package dataset
