// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metricschecker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMetricFamilies(t *testing.T) {
	families, err := getMetricFamilies(strings.NewReader(sampleMetrics))
	require.NoError(t, err, "parsing must succeed")
	assert.Contains(t, families, "http_requests_total")
	assert.Contains(t, families, "http_requests_latency")
}

func TestSampleChecker(t *testing.T) {
	get := map[string]string{"method": "GET", "path": "/", "status": "200", "version": "1.1"}

	err := CheckText(Checker(
		NewCounterChecker("http_requests_total").WithLabels(get).WithValue(3),
		NewGaugeChecker("http_requests_active").WithLabels(map[string]string{"method": "GET", "path": "/"}).WithValue(0),
		NewHistogramChecker("http_requests_latency").WithLabels(get).WithRange(3, 4),
		NewGaugeChecker("queue_depth").WithMinimum(1).WithMaximum(10),
		NewGaugeChecker("queue_depth").WithMatcher(Approx(2.0, 0.01)),
	), sampleMetrics)
	assert.NoError(t, err)

	err = CheckText(NewCounterChecker("http_requests_total").WithLabels(get).WithValue(4), sampleMetrics)
	var checkErr *MetricsCheckError
	assert.ErrorAs(t, err, &checkErr)

	// wrong type
	assert.Error(t, CheckText(NewGaugeChecker("http_requests_total").WithLabels(get), sampleMetrics))
	// several series, no labels given
	assert.Error(t, CheckText(NewCounterChecker("http_requests_total"), sampleMetrics))
	// no such series
	assert.Error(t, CheckText(NewCounterChecker("http_requests_total").WithLabels(map[string]string{"method": "PUT"}), sampleMetrics))
	// no such metric
	assert.Error(t, CheckText(NewCounterChecker("missing_total"), sampleMetrics))
}

func TestMultiMetricsCheckerCollectsAll(t *testing.T) {
	err := CheckText(Checker(
		NewCounterChecker("missing_total"),
		NewGaugeChecker("queue_depth").WithValue(100),
	), sampleMetrics)
	var multiErr *MultiMetricsCheckError
	require.ErrorAs(t, err, &multiErr)
	assert.Len(t, multiErr.inner, 2)
}

func TestCheckUrl(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metrics" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(sampleMetrics))
	}))
	defer srv.Close()

	checker := NewGaugeChecker("queue_depth").WithValue(2)
	assert.NoError(t, CheckUrl(context.Background(), checker, srv.URL+"/metrics"))
	assert.Error(t, CheckUrl(context.Background(), checker, srv.URL+"/other"))
}

const sampleMetrics = `# HELP http_requests_active Tracks all the active http requests
# TYPE http_requests_active gauge
http_requests_active{method="GET",path="/"} 0
# HELP http_requests_latency Counts all http requests latency in seconds
# TYPE http_requests_latency histogram
http_requests_latency_bucket{method="GET",path="/",status="200",version="1.1",le="0.005"} 2
http_requests_latency_bucket{method="GET",path="/",status="200",version="1.1",le="0.01"} 3
http_requests_latency_bucket{method="GET",path="/",status="200",version="1.1",le="+Inf"} 3
http_requests_latency_sum{method="GET",path="/",status="200",version="1.1"} 0.0123
http_requests_latency_count{method="GET",path="/",status="200",version="1.1"} 3
# HELP http_requests_total Counts all the http requests
# TYPE http_requests_total counter
http_requests_total{method="GET",path="/",status="200",version="1.1"} 3
http_requests_total{method="POST",path="/items",status="201",version="2.0"} 1
# HELP queue_depth Queue depth
# TYPE queue_depth gauge
queue_depth 2
`
