package exporter

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"trendlens/internal/analysis"
	"trendlens/internal/shared/testutil"
)

func TestWriteReport(t *testing.T) {
	table := loadTable(t, testutil.MonthlyCSV(24, "Cats", "Dogs"))
	ctx := context.Background()

	corr, err := analysis.Correlation(table)
	require.NoError(t, err)
	clusters, err := analysis.Clusters(ctx, table, analysis.ViewRequest{K: 3}, analysis.DefaultKMeans())
	require.NoError(t, err)
	forecast, err := analysis.Forecast(ctx, table, analysis.ViewRequest{Topic: "Cats"}, analysis.NewSeasonalTrendForecaster())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, Report{
		Table:       table,
		Correlation: corr,
		Clusters:    clusters,
		Forecast:    forecast,
	}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetData, SheetCorrelation, SheetClusters, SheetForecast}, f.GetSheetList())

	data, err := f.GetRows(SheetData)
	require.NoError(t, err)
	require.Len(t, data, 25)
	assert.Equal(t, []string{"Month", "Cats", "Dogs", "Cluster"}, data[0])
	assert.Equal(t, "2019-01", data[1][0])

	corrRows, err := f.GetRows(SheetCorrelation)
	require.NoError(t, err)
	require.Len(t, corrRows, 3)
	assert.Equal(t, []string{"", "Cats", "Dogs"}, corrRows[0])
	assert.Equal(t, "1", corrRows[1][1])

	clusterRows, err := f.GetRows(SheetClusters)
	require.NoError(t, err)
	require.Len(t, clusterRows, 4)
	assert.Equal(t, "Top topic", clusterRows[0][2])

	forecastRows, err := f.GetRows(SheetForecast)
	require.NoError(t, err)
	assert.Len(t, forecastRows, 37)
	assert.Equal(t, "2021-12", forecastRows[36][0])
}

func TestWriteReportTableOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, Report{Table: loadTable(t, testutil.PetsCSV)}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetData}, f.GetSheetList())
	rows, err := f.GetRows(SheetData)
	require.NoError(t, err)
	assert.Equal(t, []string{"Month", "Cats", "Dogs"}, rows[0])
	assert.Equal(t, []string{"2020-02", "20", "15"}, rows[2])
}

func TestWriteReportRequiresTable(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteReport(&buf, Report{}))
}
