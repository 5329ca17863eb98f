package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "bad upload")
	assert.Equal(t, "bad upload", err.Error())
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
	}{
		{"invalid request", ErrInvalidRequest, http.StatusBadRequest, "INVALID_REQUEST"},
		{"validation failed", ErrValidationFailed, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"invalid parameter", ErrInvalidParameter, http.StatusBadRequest, "INVALID_PARAMETER"},
		{"unsupported media", ErrUnsupportedMedia, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE"},
		{"unavailable", ErrServiceUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestHelperConstructors(t *testing.T) {
	err := InvalidRequestWithError(fmt.Errorf("no file field"))
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "no file field", err.Details)

	v := ErrValidation("model", "must be continuous or discrete")
	assert.Equal(t, ValidationError{Field: "model", Message: "must be continuous or discrete"}, v.Details)

	p := ErrParameter("format", "format must be one of: json, csv")
	assert.Equal(t, "INVALID_PARAMETER", p.ErrorCode)
	assert.Equal(t, ValidationError{Field: "format", Message: "format must be one of: json, csv"}, p.Details)

	// Presets are shared and must not pick up details
	d := ErrUnsupportedMedia.WithDetails("run.doc")
	assert.Equal(t, "run.doc", d.Details)
	assert.Equal(t, ErrUnsupportedMedia.StatusCode, d.StatusCode)
	assert.Nil(t, ErrUnsupportedMedia.Details)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusUnprocessableEntity, TypeInputShape, "Invalid Amplification Table", "7 columns", "/api/score").
		WithExtension("row", 42).
		WithExtension("status", "ignored")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeInputShape, body["type"])
	assert.Equal(t, float64(422), body["status"], "standard members win over extensions")
	assert.Equal(t, float64(42), body["row"])
	assert.Equal(t, "/api/score", body["instance"])

	bare, err := json.Marshal(&ProblemDetails{Type: TypeInternal, Title: "x", Status: 500})
	require.NoError(t, err)
	assert.NotContains(t, string(bare), "detail")
}
