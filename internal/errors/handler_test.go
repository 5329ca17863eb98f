package errors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(includeStack bool) (*ErrorHandler, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewErrorHandler(logger, includeStack), &buf
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantExt    map[string]interface{}
	}{
		{
			name:       "context deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "input shape",
			err:        NewInputShapeError("expected 6 columns, found 5", nil).WithContext("row", 42),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeInputShape,
			wantExt:    map[string]interface{}{"error_type": "INPUT_SHAPE", "row": float64(42)},
		},
		{
			name:       "wrapped parsing",
			err:        fmt.Errorf("upload: %w", NewParsingError("not a workbook", nil)),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeInputParse,
		},
		{
			name:       "validation",
			err:        NewAppValidationError("unknown model"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "storage hides detail",
			err:        NewStorageError("write /srv/out.csv", fmt.Errorf("disk full")),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantExt:    map[string]interface{}{"error_type": "STORAGE"},
		},
		{
			name:       "api error",
			err:        ErrUnsupportedMedia,
			wantStatus: http.StatusUnsupportedMediaType,
			wantType:   TypeUnsupportedType,
			wantExt:    map[string]interface{}{"error_code": "UNSUPPORTED_MEDIA_TYPE"},
		},
		{
			name:       "max bytes",
			err:        fmt.Errorf("parse form: %w", &http.MaxBytesError{Limit: 1024}),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
			wantExt:    map[string]interface{}{"limit_bytes": float64(1024)},
		},
		{
			name:       "plain error",
			err:        fmt.Errorf("something else"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, logs := newTestHandler(false)
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/score", nil)

			h.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "/api/score", body["instance"])
			assert.NotContains(t, body, "stack")
			for k, v := range tt.wantExt {
				assert.Equal(t, v, body[k], k)
			}
			assert.Contains(t, logs.String(), "request failed")
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	h, logs := newTestHandler(false)
	w := httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Empty(t, w.Body.String())
	assert.Empty(t, logs.String())
}

func TestErrorHandler_TraceID(t *testing.T) {
	h, _ := newTestHandler(true)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/score", nil)
	r = r.WithContext(context.WithValue(r.Context(), middleware.RequestIDKey, "req-1"))

	h.HandleError(w, r, fmt.Errorf("boom"))

	body := decodeProblem(t, w)
	assert.Equal(t, "req-1", body["trace_id"])
	assert.Contains(t, body, "stack")
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	h, logs := newTestHandler(false)

	w := httptest.NewRecorder()
	h.HandlePanic(w, httptest.NewRequest(http.MethodGet, "/api/score", nil), "index out of range")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, TypeInternal, body["type"])
	assert.NotContains(t, body, "panic")
	assert.Contains(t, logs.String(), "panic recovered")
}

func TestErrorHandler_NotFoundAndMethod(t *testing.T) {
	h, _ := newTestHandler(false)

	w := httptest.NewRecorder()
	h.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, w)["type"])

	w = httptest.NewRecorder()
	h.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/api/score", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, decodeProblem(t, w)["detail"], "DELETE")
}
