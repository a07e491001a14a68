package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendlens/internal/infrastructure"
)

func newTestHandler(includeStack bool) *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), includeStack)
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
		wantDetail string
	}{
		{
			name:       "invalid dataset",
			err:        InvalidDataset("The dataset must contain a valid 'Month' column in YYYY-MM format."),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeInvalidDataset,
			wantCode:   CodeInvalidDataset,
			wantDetail: "The dataset must contain a valid 'Month' column in YYYY-MM format.",
		},
		{
			name:       "dataset not found",
			err:        DatasetNotFound("abc"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeDatasetNotFound,
			wantCode:   CodeDatasetNotFound,
			wantDetail: "dataset abc not found",
		},
		{
			name:       "wrapped view failure",
			err:        fmt.Errorf("clusters: %w", ViewFailed("clusters", fmt.Errorf("k exceeds rows"))),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeViewFailed,
			wantCode:   CodeViewFailed,
			wantDetail: "k exceeds rows",
		},
		{
			name:       "validation failure",
			err:        ErrValidation("k", "must be at most 10"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   CodeValidationFailed,
		},
		{
			name:       "deadline exceeded",
			err:        fmt.Errorf("forecast: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown error hides message",
			err:        fmt.Errorf("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantDetail: "An unexpected error occurred while processing your request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(false)

			req := httptest.NewRequest(http.MethodGet, "/api/datasets/abc/clusters", nil)
			req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-1"))
			w := httptest.NewRecorder()

			h.HandleError(w, req, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/datasets/abc/clusters", body["instance"])
			assert.Equal(t, "trace-1", body["trace_id"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, body["detail"])
			}
		})
	}
}

func TestErrorHandler_HandleNilError(t *testing.T) {
	h := newTestHandler(false)
	w := httptest.NewRecorder()

	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, w.Body.Len())
}

func TestErrorHandler_IncludeStack(t *testing.T) {
	h := newTestHandler(true)
	w := httptest.NewRecorder()

	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("boom"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "stack")
	assert.NotContains(t, body, "trace_id")
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	h := newTestHandler(true)
	w := httptest.NewRecorder()

	h.HandlePanic(w, httptest.NewRequest(http.MethodPost, "/api/datasets", nil), "nil map")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "nil map", body["panic"])
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler(false)

	w := httptest.NewRecorder()
	h.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), TypeNotFound)

	w = httptest.NewRecorder()
	h.MethodNotAllowed(w, httptest.NewRequest(http.MethodPut, "/api/datasets", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), "Method PUT is not allowed")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "", "").
		WithExtension("error_code", CodeValidationFailed).
		WithExtension("status", "ignored")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, float64(http.StatusBadRequest), body["status"], "standard members win over extensions")
	assert.Equal(t, CodeValidationFailed, body["error_code"])
	assert.NotContains(t, body, "detail")
	assert.NotContains(t, body, "instance")
}

func TestAPIErrorConstructors(t *testing.T) {
	err := ErrValidation("topic", "required")
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	details, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Equal(t, []ValidationError{{Field: "topic", Message: "required"}}, details.Errors)

	invalid := InvalidRequestWithError(fmt.Errorf("no file field"))
	assert.Equal(t, "no file field", invalid.Details)
	assert.Equal(t, "Invalid request format", invalid.Error())
}
