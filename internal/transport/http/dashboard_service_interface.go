package http

import (
	"context"
	"io"

	"trendlens/internal/analysis"
	"trendlens/internal/chart"
	"trendlens/internal/services"
	api "trendlens/pkg/contracts/api/v1"
)

// DashboardServiceInterface defines the dataset and view operations served
// over HTTP
type DashboardServiceInterface interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*api.DatasetSummary, error)
	Get(ctx context.Context, id string) (*api.DatasetSummary, error)
	Delete(ctx context.Context, id string) error

	Trend(ctx context.Context, id string, req analysis.ViewRequest) (*analysis.TrendSeries, error)
	Correlation(ctx context.Context, id string) (*analysis.CorrelationMatrix, error)
	Clusters(ctx context.Context, id string, req analysis.ViewRequest) (*analysis.ClusterAssignment, error)
	Forecast(ctx context.Context, id string, req analysis.ViewRequest) (*analysis.ForecastSeries, error)
	Overview(ctx context.Context, id string, req analysis.ViewRequest) (*api.OverviewResponse, error)

	Report(ctx context.Context, id string, req analysis.ViewRequest, format string) (*services.ReportFile, error)
	Chart(ctx context.Context, id string, req analysis.ViewRequest, kind chart.Kind) ([]byte, error)
}
