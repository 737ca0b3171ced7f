package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.AuthEvent("login", "success")
	m.AuthEvent("login", "success")
	m.AuthEvent("login", "invalid_password")
	m.SessionsReaped(3)
	m.SessionsReaped(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authEvents.WithLabelValues("login", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authEvents.WithLabelValues("login", "invalid_password")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.reaped))
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.AuthEvent("refresh", "unauthorized")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `cauth_auth_events_total{op="refresh",result="unauthorized"} 1`)
}
