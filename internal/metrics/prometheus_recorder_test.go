package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncCacheLookup(true)
	pr.IncCacheLookup(false)
	pr.IncCacheLookup(false)
	pr.IncDiskScan(ScanFind)
	pr.ObserveStageDuration("write_pages", 150*time.Millisecond)
	pr.ObservePublishDuration(500 * time.Millisecond)
	pr.IncPublishOutcome(OutcomeSuccess)
	pr.SetPagesPublished(12)

	require.Equal(t, 2.0, testutil.ToFloat64(pr.cacheLookups.WithLabelValues("false")))
	require.Equal(t, 1.0, testutil.ToFloat64(pr.diskScans.WithLabelValues("find")))
	require.Equal(t, 12.0, testutil.ToFloat64(pr.pagesPublished))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

func TestHTTPHandler_ServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncPublishOutcome(OutcomeFailed)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "sitetree_publish_outcomes_total")
}

func TestNoopRecorder_SatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncCacheLookup(true)
	r.IncDiskScan(ScanAll)
	r.SetPagesPublished(1)
}
