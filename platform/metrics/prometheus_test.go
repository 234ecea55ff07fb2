package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Recorder(t *testing.T) {
	m := NewManager("rental")

	m.Created()
	m.SyncFailed()
	m.SyncFailed()
	m.Compensated(nil)
	m.Compensated(errors.New("db down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HousesCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SyncFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compensations.WithLabelValues("deleted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compensations.WithLabelValues("failed")))
}

func TestManager_MiddlewareAndHandler(t *testing.T) {
	m := NewManager("rental")

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/houses/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/houses/7", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `rental_http_request_duration_seconds_count{method="GET",route="/houses/{id}",status="404"} 1`), body)
}
