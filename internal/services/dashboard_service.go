package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"trendlens/internal/analysis"
	"trendlens/internal/chart"
	"trendlens/internal/config"
	"trendlens/internal/dataset"
	"trendlens/internal/exporter"
	"trendlens/internal/infrastructure"
	"trendlens/internal/session"
	api "trendlens/pkg/contracts/api/v1"
)

// View names used in logs, metrics and the overview response
const (
	ViewTrend       = "trend"
	ViewCorrelation = "correlation"
	ViewClusters    = "clusters"
	ViewForecast    = "forecast"
)

// Report formats
const (
	ReportXLSX = "xlsx"
	ReportCSV  = "csv"
)

// DatasetStore holds validated datasets between requests
type DatasetStore interface {
	Put(filename string, table *dataset.NormalizedTable) (session.Dataset, error)
	Get(id string) (session.Dataset, error)
	Delete(id string) error
}

// ReportFile is a rendered download
type ReportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DashboardService runs the dataset pipeline for the HTTP and CLI surfaces
type DashboardService struct {
	store      DatasetStore
	clusterer  analysis.Clusterer
	forecaster analysis.Forecaster
	cfg        config.AnalysisConfig
	metrics    *infrastructure.PipelineMetrics
	tracer     trace.Tracer
	csv        *exporter.CSVWriter
	logger     *slog.Logger
}

// Option customises a DashboardService
type Option func(*DashboardService)

// WithClusterer replaces the default k-means clusterer
func WithClusterer(c analysis.Clusterer) Option {
	return func(s *DashboardService) { s.clusterer = c }
}

// WithForecaster replaces the default ARIMA forecaster
func WithForecaster(f analysis.Forecaster) Option {
	return func(s *DashboardService) { s.forecaster = f }
}

// WithMetrics records pipeline metrics
func WithMetrics(m *infrastructure.PipelineMetrics) Option {
	return func(s *DashboardService) { s.metrics = m }
}

// WithTracer sets the tracer used for view spans
func WithTracer(t trace.Tracer) Option {
	return func(s *DashboardService) { s.tracer = t }
}

// NewDashboardService creates a dashboard service. The clusterer defaults to
// k-means seeded from cfg and the forecaster to ARIMAForecaster.
func NewDashboardService(store DatasetStore, cfg config.AnalysisConfig, logger *slog.Logger, opts ...Option) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "dashboard")

	s := &DashboardService{
		store:      store,
		clusterer:  analysis.NewKMeans(cfg.Seed, cfg.Restarts, cfg.MaxIterations),
		forecaster: analysis.NewARIMAForecaster(),
		cfg:        cfg,
		tracer:     otel.Tracer(infrastructure.ServiceName + "/services"),
		csv:        exporter.NewCSVWriter(logger),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	logger.Info("DashboardService initialized",
		slog.Int("default_k", cfg.DefaultK),
		slog.Int("max_k", cfg.MaxK),
		slog.Int64("seed", cfg.Seed))
	return s
}

// Upload reads, validates and stores a dataset. A rejected table is never
// stored and no view runs on it.
func (s *DashboardService) Upload(ctx context.Context, filename string, r io.Reader) (*api.DatasetSummary, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.upload", trace.WithAttributes(attribute.String("filename", filename)))
	defer span.End()

	raw, err := dataset.Read(filename, r)
	if err != nil {
		s.rejected(ctx, filename, "unreadable", err)
		if errors.Is(err, dataset.ErrUnsupportedFormat) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidUpload, err)
	}

	table, err := dataset.Validate(raw)
	if err != nil {
		s.rejected(ctx, filename, "invalid_month", err)
		return nil, err
	}

	stored, err := s.store.Put(filename, table)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, fmt.Errorf("store dataset: %w", err)
	}

	if s.metrics != nil {
		s.metrics.DatasetsUploaded.Add(ctx, 1)
		s.metrics.DatasetRows.Record(ctx, int64(table.Rows()))
	}
	s.logger.InfoContext(ctx, "Dataset uploaded",
		slog.String("dataset_id", stored.ID),
		slog.String("filename", filename),
		slog.Int("rows", table.Rows()),
		slog.Int("topics", len(table.Topics())))

	return s.summary(stored), nil
}

func (s *DashboardService) rejected(ctx context.Context, filename, reason string, err error) {
	infrastructure.RecordError(ctx, err)
	if s.metrics != nil {
		s.metrics.ValidationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
	s.logger.WarnContext(ctx, "Dataset rejected",
		slog.String("filename", filename),
		slog.String("reason", reason),
		slog.String("error", err.Error()))
}

// Get returns the summary of a stored dataset
func (s *DashboardService) Get(ctx context.Context, id string) (*api.DatasetSummary, error) {
	stored, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return s.summary(stored), nil
}

// Delete removes a stored dataset
func (s *DashboardService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Dataset deleted", slog.String("dataset_id", id))
	return nil
}

// Trend returns the trend view of a topic
func (s *DashboardService) Trend(ctx context.Context, id string, req analysis.ViewRequest) (*analysis.TrendSeries, error) {
	table, req, err := s.load(id, req)
	if err != nil {
		return nil, err
	}
	return s.trend(ctx, table, req)
}

// Correlation returns the correlation matrix of the numeric columns
func (s *DashboardService) Correlation(ctx context.Context, id string) (*analysis.CorrelationMatrix, error) {
	table, _, err := s.load(id, analysis.ViewRequest{})
	if err != nil {
		return nil, err
	}
	return s.correlation(ctx, table)
}

// Clusters returns the cluster view for req.K
func (s *DashboardService) Clusters(ctx context.Context, id string, req analysis.ViewRequest) (*analysis.ClusterAssignment, error) {
	table, req, err := s.load(id, req)
	if err != nil {
		return nil, err
	}
	return s.clusters(ctx, table, req)
}

// Forecast returns history and forecast of a topic
func (s *DashboardService) Forecast(ctx context.Context, id string, req analysis.ViewRequest) (*analysis.ForecastSeries, error) {
	table, req, err := s.load(id, req)
	if err != nil {
		return nil, err
	}
	return s.forecast(ctx, table, req)
}

// Overview computes all four views concurrently. A failing view is reported
// in its own outcome and does not affect the others.
func (s *DashboardService) Overview(ctx context.Context, id string, req analysis.ViewRequest) (*api.OverviewResponse, error) {
	table, req, err := s.load(id, req)
	if err != nil {
		return nil, err
	}

	views := []struct {
		name string
		run  func(context.Context) (interface{}, error)
	}{
		{ViewTrend, func(ctx context.Context) (interface{}, error) { return s.trend(ctx, table.Clone(), req) }},
		{ViewCorrelation, func(ctx context.Context) (interface{}, error) { return s.correlation(ctx, table.Clone()) }},
		{ViewClusters, func(ctx context.Context) (interface{}, error) { return s.clusters(ctx, table.Clone(), req) }},
		{ViewForecast, func(ctx context.Context) (interface{}, error) { return s.forecast(ctx, table.Clone(), req) }},
	}

	outcomes := make([]api.ViewOutcome, len(views))
	var g errgroup.Group
	for i, v := range views {
		g.Go(func() error {
			data, err := v.run(ctx)
			if err != nil {
				outcomes[i] = api.ViewOutcome{Status: api.ViewStatusError, Error: err.Error()}
				return nil
			}
			outcomes[i] = api.ViewOutcome{Status: api.ViewStatusOK, Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp := &api.OverviewResponse{
		DatasetID: id,
		Topic:     req.Topic,
		K:         req.K,
		Views:     make(map[string]api.ViewOutcome, len(views)),
	}
	for i, v := range views {
		resp.Views[v.name] = outcomes[i]
	}
	return resp, nil
}

// Report renders the dataset views as an xlsx workbook or the clustered
// table as CSV. In the workbook a failing cluster or forecast view is left
// out; the CSV needs clusters.
func (s *DashboardService) Report(ctx context.Context, id string, req analysis.ViewRequest, format string) (*ReportFile, error) {
	if format == "" {
		format = ReportXLSX
	}
	if format != ReportXLSX && format != ReportCSV {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedReport, format)
	}

	table, req, err := s.load(id, req)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case ReportCSV:
		clusters, err := s.clusters(ctx, table, req)
		if err != nil {
			return nil, err
		}
		if err := s.csv.ClusterCSV(&buf, table, clusters); err != nil {
			return nil, fmt.Errorf("write cluster csv: %w", err)
		}
		return &ReportFile{
			Filename:    fmt.Sprintf("clusters-%s.csv", id),
			ContentType: "text/csv; charset=utf-8",
			Data:        buf.Bytes(),
		}, nil
	}

	report := exporter.Report{Table: table}
	if report.Correlation, err = s.correlation(ctx, table); err != nil {
		report.Correlation = nil
	}
	if report.Clusters, err = s.clusters(ctx, table, req); err != nil {
		report.Clusters = nil
	}
	if req.Topic != "" {
		if report.Forecast, err = s.forecast(ctx, table, req); err != nil {
			report.Forecast = nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := exporter.WriteReport(&buf, report); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return &ReportFile{
		Filename:    fmt.Sprintf("trendlens-%s.xlsx", id),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	}, nil
}

// Chart renders a trend or forecast PNG
func (s *DashboardService) Chart(ctx context.Context, id string, req analysis.ViewRequest, kind chart.Kind) ([]byte, error) {
	table, req, err := s.load(id, req)
	if err != nil {
		return nil, err
	}

	switch kind {
	case chart.KindTrend:
		series, err := s.trend(ctx, table, req)
		if err != nil {
			return nil, err
		}
		return chart.TrendPNG(series, chart.DefaultOptions)
	case chart.KindForecast:
		series, err := s.forecast(ctx, table, req)
		if err != nil {
			return nil, err
		}
		return chart.ForecastPNG(series, chart.DefaultOptions)
	default:
		return nil, fmt.Errorf("%w: %q", chart.ErrUnknownKind, kind)
	}
}

// load fetches a private copy of the dataset and fills request defaults
func (s *DashboardService) load(id string, req analysis.ViewRequest) (*dataset.NormalizedTable, analysis.ViewRequest, error) {
	stored, err := s.store.Get(id)
	if err != nil {
		return nil, req, err
	}
	if req.K == 0 {
		req.K = s.cfg.DefaultK
	}
	return stored.Table, req.WithDefaults(stored.Table), nil
}

func (s *DashboardService) trend(ctx context.Context, table *dataset.NormalizedTable, req analysis.ViewRequest) (*analysis.TrendSeries, error) {
	var out *analysis.TrendSeries
	err := s.observe(ctx, ViewTrend, func(context.Context) error {
		var err error
		out, err = analysis.Trend(table, req)
		return err
	})
	return out, err
}

func (s *DashboardService) correlation(ctx context.Context, table *dataset.NormalizedTable) (*analysis.CorrelationMatrix, error) {
	var out *analysis.CorrelationMatrix
	err := s.observe(ctx, ViewCorrelation, func(context.Context) error {
		var err error
		out, err = analysis.Correlation(table)
		return err
	})
	return out, err
}

func (s *DashboardService) clusters(ctx context.Context, table *dataset.NormalizedTable, req analysis.ViewRequest) (*analysis.ClusterAssignment, error) {
	if err := s.checkK(req.K); err != nil {
		return nil, err
	}
	var out *analysis.ClusterAssignment
	err := s.observe(ctx, ViewClusters, func(ctx context.Context) error {
		var err error
		out, err = analysis.Clusters(ctx, table, req, s.clusterer)
		return err
	})
	return out, err
}

func (s *DashboardService) forecast(ctx context.Context, table *dataset.NormalizedTable, req analysis.ViewRequest) (*analysis.ForecastSeries, error) {
	var out *analysis.ForecastSeries
	err := s.observe(ctx, ViewForecast, func(ctx context.Context) error {
		var err error
		out, err = analysis.Forecast(ctx, table, req, s.forecaster)
		return err
	})
	return out, err
}

// checkK enforces the configured cluster range. K above the row count is
// left to the view itself.
func (s *DashboardService) checkK(k int) error {
	lo, hi := s.cfg.MinK, s.cfg.MaxK
	if lo < 1 {
		lo = 1
	}
	if k < lo || (hi > 0 && k > hi) {
		return fmt.Errorf("%w: k=%d, allowed %d..%d", ErrKOutOfRange, k, lo, hi)
	}
	return nil
}

// observe wraps one view computation in a span, a duration metric and a log
// line
func (s *DashboardService) observe(ctx context.Context, view string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "dashboard."+view)
	defer span.End()

	started := time.Now()
	err := fn(ctx)
	s.metrics.RecordView(ctx, view, started, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "View failed",
			slog.String("view", view),
			slog.Duration("duration", time.Since(started)),
			slog.String("error", err.Error()))
		return err
	}
	s.logger.DebugContext(ctx, "View computed",
		slog.String("view", view),
		slog.Duration("duration", time.Since(started)))
	return nil
}

func (s *DashboardService) summary(stored session.Dataset) *api.DatasetSummary {
	table := stored.Table
	out := &api.DatasetSummary{
		ID:        stored.ID,
		Filename:  stored.Filename,
		Rows:      table.Rows(),
		Topics:    table.Topics(),
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
	}
	if out.Topics == nil {
		out.Topics = []string{}
	}
	for _, col := range table.Schema() {
		out.Columns = append(out.Columns, api.ColumnInfo{Name: col.Name, Kind: string(col.Kind)})
	}
	if first, last, ok := table.MonthRange(); ok {
		out.FirstMonth = first.Format(dataset.MonthLayout)
		out.LastMonth = last.Format(dataset.MonthLayout)
	}
	preview := table.Preview(s.cfg.PreviewRows)
	out.Preview = make([]map[string]interface{}, len(preview))
	for i, row := range preview {
		out.Preview[i] = row
	}
	return out
}
