package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.ObserveStageDuration("render", 150*time.Millisecond)
	pr.IncBuildOutcome(OutcomeSuccess)
	pr.AddPagesRendered(12)
	pr.AddIssues(2)
	pr.IncRebuild("watch")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)

	names := make(map[string]bool, len(mfs))
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["rendar_build_duration_seconds"])
	assert.True(t, names["rendar_pages_rendered_total"])
	assert.True(t, names["rendar_rebuilds_total"])
}

func TestPrometheusRecorderNilReceiver(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveBuildDuration(time.Second)
	pr.IncBuildOutcome(OutcomeFailed)
	pr.AddPagesRendered(1)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncBuildOutcome(OutcomeWarning)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/__rendar_metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "rendar_build_outcomes_total")
}
