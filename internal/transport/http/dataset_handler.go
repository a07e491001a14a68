package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"trendlens/internal/analysis"
	"trendlens/internal/chart"
	"trendlens/internal/dataset"
	apierrors "trendlens/internal/errors"
	"trendlens/internal/infrastructure"
	"trendlens/internal/middleware"
	"trendlens/internal/services"
	"trendlens/internal/session"
	api "trendlens/pkg/contracts/api/v1"
)

// UploadField is the multipart form field carrying the dataset file
const UploadField = "file"

// DatasetHandler handles dataset uploads and view requests with RFC 7807
// errors
type DatasetHandler struct {
	service        DashboardServiceInterface
	validator      *middleware.Validator
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service DashboardServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:        service,
		validator:      middleware.NewValidator(logger),
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// log returns the request logger set by the logging middleware, or the
// handler's own logger outside of it
func (h *DatasetHandler) log(r *http.Request) *slog.Logger {
	return infrastructure.LoggerFromContext(r.Context(), h.logger).With(slog.String("component", "dataset_handler"))
}

// Routes returns the dataset routes, mounted at /api/datasets
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(
		middleware.MaxBodySize(h.maxUploadBytes),
		middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data"),
	).Post("/", h.Upload)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Get("/trend", h.Trend)
		r.Get("/correlation", h.Correlation)
		r.Get("/clusters", h.Clusters)
		r.Get("/forecast", h.Forecast)
		r.Get("/overview", h.Overview)
		r.Get("/charts/{kind}.png", h.Chart)
		r.Get("/report", h.Report)
	})

	return r
}

// Upload handles POST /api/datasets
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile(UploadField)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.uploadError(err))
		return
	}
	defer file.Close()

	summary, err := h.service.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError("", "", err))
		return
	}

	h.log(r).InfoContext(r.Context(), "dataset uploaded",
		slog.String("dataset_id", summary.ID),
		slog.String("filename", header.Filename),
		slog.Int("rows", summary.Rows))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, summary)
}

func (h *DatasetHandler) uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apierrors.NewWithDetails(http.StatusRequestEntityTooLarge, apierrors.CodePayloadTooLarge,
			"Upload exceeds the maximum allowed size", map[string]int64{"max_bytes": maxErr.Limit})
	}
	if errors.Is(err, http.ErrMissingFile) {
		return apierrors.ErrValidation(UploadField, "a dataset file is required")
	}
	return apierrors.InvalidRequestWithError(err)
}

// Get handles GET /api/datasets/{id}
func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	path, ok := h.bindPath(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Get(r.Context(), path.ID)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(path.ID, "", err))
		return
	}
	render.JSON(w, r, summary)
}

// Delete handles DELETE /api/datasets/{id}
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	path, ok := h.bindPath(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), path.ID); err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(path.ID, "", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Trend handles GET /api/datasets/{id}/trend?topic=
func (h *DatasetHandler) Trend(w http.ResponseWriter, r *http.Request) {
	q := api.TopicQuery{DatasetPath: pathOf(r), Topic: r.URL.Query().Get("topic")}
	if !h.validate(w, r, q) {
		return
	}

	series, err := h.service.Trend(r.Context(), q.ID, analysis.ViewRequest{Topic: q.Topic})
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(q.ID, services.ViewTrend, err))
		return
	}
	render.JSON(w, r, series)
}

// Correlation handles GET /api/datasets/{id}/correlation
func (h *DatasetHandler) Correlation(w http.ResponseWriter, r *http.Request) {
	path, ok := h.bindPath(w, r)
	if !ok {
		return
	}

	matrix, err := h.service.Correlation(r.Context(), path.ID)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(path.ID, services.ViewCorrelation, err))
		return
	}
	render.JSON(w, r, matrix)
}

// Clusters handles GET /api/datasets/{id}/clusters?k=
func (h *DatasetHandler) Clusters(w http.ResponseWriter, r *http.Request) {
	k, err := middleware.QueryInt(r, "k")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	q := api.ClusterQuery{DatasetPath: pathOf(r), K: k}
	if !h.validate(w, r, q) {
		return
	}

	result, err := h.service.Clusters(r.Context(), q.ID, analysis.ViewRequest{K: q.K})
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(q.ID, services.ViewClusters, err))
		return
	}
	render.JSON(w, r, result)
}

// Forecast handles GET /api/datasets/{id}/forecast?topic=
func (h *DatasetHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	q := api.TopicQuery{DatasetPath: pathOf(r), Topic: r.URL.Query().Get("topic")}
	if !h.validate(w, r, q) {
		return
	}

	series, err := h.service.Forecast(r.Context(), q.ID, analysis.ViewRequest{Topic: q.Topic})
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(q.ID, services.ViewForecast, err))
		return
	}
	render.JSON(w, r, series)
}

// Overview handles GET /api/datasets/{id}/overview?topic=&k=
func (h *DatasetHandler) Overview(w http.ResponseWriter, r *http.Request) {
	k, err := middleware.QueryInt(r, "k")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	q := api.OverviewQuery{DatasetPath: pathOf(r), Topic: r.URL.Query().Get("topic"), K: k}
	if !h.validate(w, r, q) {
		return
	}

	resp, err := h.service.Overview(r.Context(), q.ID, analysis.ViewRequest{Topic: q.Topic, K: q.K})
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(q.ID, "", err))
		return
	}
	render.JSON(w, r, resp)
}

// Chart handles GET /api/datasets/{id}/charts/{kind}.png?topic=
func (h *DatasetHandler) Chart(w http.ResponseWriter, r *http.Request) {
	q := api.ChartQuery{
		DatasetPath: pathOf(r),
		Kind:        chi.URLParam(r, "kind"),
		Topic:       r.URL.Query().Get("topic"),
	}
	if !h.validate(w, r, q) {
		return
	}

	kind, err := chart.ParseKind(q.Kind)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(q.ID, q.Kind, err))
		return
	}

	png, err := h.service.Chart(r.Context(), q.ID, analysis.ViewRequest{Topic: q.Topic}, kind)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(q.ID, q.Kind, err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Report handles GET /api/datasets/{id}/report?format=xlsx|csv&topic=&k=
func (h *DatasetHandler) Report(w http.ResponseWriter, r *http.Request) {
	k, err := middleware.QueryInt(r, "k")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	q := api.ReportQuery{
		DatasetPath: pathOf(r),
		Format:      r.URL.Query().Get("format"),
		Topic:       r.URL.Query().Get("topic"),
		K:           k,
	}
	if !h.validate(w, r, q) {
		return
	}

	file, err := h.service.Report(r.Context(), q.ID, analysis.ViewRequest{Topic: q.Topic, K: q.K}, q.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, h.mapError(q.ID, "report", err))
		return
	}

	h.log(r).InfoContext(r.Context(), "report generated",
		slog.String("dataset_id", q.ID),
		slog.String("filename", file.Filename),
		slog.Int("bytes", len(file.Data)))

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Data)
}

func pathOf(r *http.Request) api.DatasetPath {
	return api.DatasetPath{ID: chi.URLParam(r, "id")}
}

func (h *DatasetHandler) bindPath(w http.ResponseWriter, r *http.Request) (api.DatasetPath, bool) {
	path := pathOf(r)
	return path, h.validate(w, r, path)
}

func (h *DatasetHandler) validate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := h.validator.ValidateStruct(v); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return false
	}
	return true
}

// mapError translates service errors into API errors. Errors it does not
// know pass through and end up as 500 or 504.
func (h *DatasetHandler) mapError(id, view string, err error) error {
	switch {
	case errors.Is(err, dataset.ErrInvalidDataset):
		return apierrors.InvalidDataset(dataset.InvalidMonthMessage)
	case errors.Is(err, dataset.ErrUnsupportedFormat):
		return apierrors.ErrValidation(UploadField, err.Error())
	case errors.Is(err, services.ErrInvalidUpload):
		return apierrors.InvalidRequestWithError(err)
	case errors.Is(err, session.ErrNotFound):
		return apierrors.DatasetNotFound(id)
	case errors.Is(err, analysis.ErrUnknownTopic):
		return apierrors.ErrValidation("topic", err.Error())
	case errors.Is(err, services.ErrKOutOfRange):
		return apierrors.ErrValidation("k", err.Error())
	case errors.Is(err, services.ErrUnsupportedReport):
		return apierrors.ErrValidation("format", err.Error())
	case errors.Is(err, chart.ErrUnknownKind):
		return apierrors.ErrValidation("kind", err.Error())
	case errors.Is(err, analysis.ErrInvalidK),
		errors.Is(err, analysis.ErrNoNumericColumns),
		errors.Is(err, analysis.ErrForecastFailed),
		errors.Is(err, chart.ErrNotEnoughPoints):
		return apierrors.ViewFailed(view, err)
	}
	return err
}
