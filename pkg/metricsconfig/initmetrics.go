// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metricsconfig

import (
	"regexp"

	grpcmetrics "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cilium/reqmetrics/pkg/version"
)

// NewGRPCMetrics returns the gRPC server metrics. The same value has to be
// registered and used for the server interceptors.
func NewGRPCMetrics() *grpcmetrics.ServerMetrics {
	return grpcmetrics.NewServerMetrics(
		grpcmetrics.WithServerHandlingTimeHistogram(),
	)
}

func resourcesCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(
				collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile(`^/sched/latencies:seconds`)},
			)),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
}

// Collectors returns the collectors registered next to the request
// metrics: build info, the given extra ones, and the Go runtime and process
// collectors when enableRuntime is set.
func Collectors(enableRuntime bool, extra ...prometheus.Collector) []prometheus.Collector {
	cs := []prometheus.Collector{version.NewBuildInfoCollector()}
	cs = append(cs, extra...)
	if enableRuntime {
		cs = append(cs, resourcesCollectors()...)
	}
	return cs
}
