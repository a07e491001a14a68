package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendlens/internal/config"
	"trendlens/internal/dataset"
	"trendlens/internal/shared/testutil"
	api "trendlens/pkg/contracts/api/v1"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	cfg := config.Default()
	cfg.Security.RateLimit.Enabled = false

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		a.Store.Stop()
		a.OTelProviders.Shutdown(context.Background())
	})
	return a
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(a *Application, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func TestApplication_UploadAndOverview(t *testing.T) {
	a := newTestApplication(t)

	w := serve(a, uploadRequest(t, "pets.csv", testutil.PetsCSV))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var summary api.DatasetSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, []string{"Cats", "Dogs"}, summary.Topics)

	w = serve(a, httptest.NewRequest(http.MethodGet, "/api/datasets/"+summary.ID+"/overview?k=2", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var overview api.OverviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &overview))
	assert.Equal(t, "Cats", overview.Topic)
	for _, view := range []string{"trend", "correlation", "clusters", "forecast"} {
		assert.Equal(t, api.ViewStatusOK, overview.Views[view].Status, view)
	}

	w = serve(a, httptest.NewRequest(http.MethodGet, "/api/datasets/"+summary.ID+"/charts/trend.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestApplication_RejectsBadMonth(t *testing.T) {
	a := newTestApplication(t)

	w := serve(a, uploadRequest(t, "pets.csv", testutil.BadMonthCSV))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, dataset.InvalidMonthMessage, problem["detail"])
	assert.Equal(t, 0, a.Store.Len())
}

func TestApplication_HealthAndMetrics(t *testing.T) {
	a := newTestApplication(t)

	w := serve(a, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(a, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(a, httptest.NewRequest(http.MethodGet, "/api/health/live/", nil))
	assert.Equal(t, http.StatusOK, w.Code, "trailing slash is stripped")

	serve(a, uploadRequest(t, "pets.csv", testutil.PetsCSV))

	w = serve(a, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "datasets_uploaded_total")
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestApplication_NotFoundIsProblem(t *testing.T) {
	a := newTestApplication(t)

	w := serve(a, httptest.NewRequest(http.MethodGet, "/api/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"status":404`)
}

func TestApplication_ServeAndStop(t *testing.T) {
	a := newTestApplication(t)
	a.Config.Server.ShutdownTimeout = 5 * time.Second

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Serve(ctx, cancel, ln))

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, a.Stop(context.Background()))
	assert.NoError(t, ctx.Err(), "clean shutdown does not cancel the run context")
}
