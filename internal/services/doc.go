// Package services implements the business logic layer of trendlens. It sits
// between the HTTP handlers and the analysis packages so that request
// defaults, view orchestration and error classification live in one place.
//
// # Dashboard Service
//
// DashboardService owns the upload pipeline and the four views:
//
//	svc := services.NewDashboardService(store, cfg.Analysis, logger,
//	    services.WithMetrics(metrics),
//	)
//	summary, err := svc.Upload(ctx, "pets.csv", file)
//	if errors.Is(err, dataset.ErrInvalidDataset) {
//	    // the whole table was rejected; nothing was stored
//	}
//	overview, err := svc.Overview(ctx, summary.ID, analysis.NewViewRequest("Cats", 0))
//
// Overview runs trend, correlation, clusters and forecast concurrently. Each
// view reports its own outcome, so one failing view leaves the others intact.
//
// The clusterer and forecaster are injected. By default the service uses
// seeded k-means and the seasonal trend forecaster; tests pass mocks through
// WithClusterer and WithForecaster.
//
// # Health Service
//
// HealthService answers liveness, readiness and version checks. Readiness
// includes the dataset store statistics.
package services
