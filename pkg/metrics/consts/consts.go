// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package consts

// Names of the metrics every registry carries.
const (
	RequestsTotalName   = "http_requests_total"
	RequestsActiveName  = "http_requests_active"
	RequestsLatencyName = "http_requests_latency"
)

// Label names used by the default request metrics.
const (
	MethodLabel  = "method"
	PathLabel    = "path"
	StatusLabel  = "status"
	VersionLabel = "version"
)

// PidLabel is attached to gauges merged from multiple processes.
const PidLabel = "pid"

// BuildInfoName is the name of the build information metric.
const BuildInfoName = "reqmetrics_build_info"

var (
	// RequestLabels are the labels of the request counter and latency
	// histogram.
	RequestLabels = []string{MethodLabel, PathLabel, StatusLabel, VersionLabel}
	// ActiveLabels are the labels of the in-flight requests gauge.
	ActiveLabels = []string{MethodLabel, PathLabel}
)
