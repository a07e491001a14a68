package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"trendlens/internal/dataset"
)

func loadTable(t *testing.T, csvText string) *dataset.NormalizedTable {
	t.Helper()
	raw, err := dataset.ReadCSV(strings.NewReader(csvText))
	require.NoError(t, err)
	table, err := dataset.Validate(raw)
	require.NoError(t, err)
	return table
}
