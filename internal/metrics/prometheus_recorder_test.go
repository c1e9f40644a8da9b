package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveDispatchDuration("common/SET_CURRENT_EMPLOYEE", 150*time.Microsecond)
	pr.IncDispatchResult(ResultSuccess)
	pr.IncDispatchResult(ResultSuccess)
	pr.IncDispatchResult(ResultReducerFailure)
	pr.IncRegistration("operationsGR", false)
	pr.IncRebuild()
	pr.SetRegisteredModules(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(pr.dispatchResults.WithLabelValues(string(ResultSuccess))))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.rebuilds))
	assert.Equal(t, 3.0, testutil.ToFloat64(pr.modules))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncRebuild()

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "grdesk_reducer_rebuilds_total"))
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveDispatchDuration("x", time.Millisecond)
	r.IncDispatchResult(ResultRejected)
	r.IncRegistration("k", true)
	r.IncRebuild()
	r.SetRegisteredModules(1)
}
