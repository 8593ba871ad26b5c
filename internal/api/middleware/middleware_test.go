package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darmiel/customtoken/internal/correlation"
)

func TestRecoverMiddleware(t *testing.T) {
	var buf bytes.Buffer
	h := CorrelationIDMiddleware(Logging(zerolog.New(&buf))(RecoverMiddleware(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "general-error", body["category"])
	assert.Equal(t, "internal server error", body["message"])

	logs := buf.String()
	assert.Contains(t, logs, "panic.recovered")
	assert.Contains(t, logs, `"status":500`)
}

func TestLogging_QuietPaths(t *testing.T) {
	var buf bytes.Buffer
	h := CorrelationIDMiddleware(Logging(zerolog.New(&buf), "/healthz")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NotEmpty(t, correlation.FromContext(r.Context()))
			if strings.HasSuffix(r.URL.Path, "fail") {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
		})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, buf.String())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api", nil))
	assert.Contains(t, buf.String(), "request.handled")
	assert.Contains(t, buf.String(), `"correlation_id":"`)
}
