// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package version

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cilium/reqmetrics/pkg/metrics/consts"
)

// buildInfoCollector exports a constant gauge whose labels describe the
// running binary.
type buildInfoCollector struct {
	self prometheus.Metric
}

func (b *buildInfoCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- b.self.Desc()
}

func (b *buildInfoCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- b.self
}

func NewBuildInfoCollector() prometheus.Collector {
	return newBuildInfoCollector(ReadBuildInfo())
}

func newBuildInfoCollector(info *BuildInfo) prometheus.Collector {
	return &buildInfoCollector{
		self: prometheus.MustNewConstMetric(
			prometheus.NewDesc(
				consts.BuildInfoName,
				"Build information about reqmetrics",
				nil,
				prometheus.Labels{
					"version":    info.Version,
					"go_version": info.GoVersion,
					"commit":     info.Commit,
					"time":       info.Time,
					"modified":   info.Modified,
				},
			),
			prometheus.GaugeValue,
			1),
	}
}
