// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

// counterVec is a counter that, unlike prometheus.CounterVec, can be
// decremented and set. Registered counters are expected to only grow, but
// the registry API allows both.
type counterVec struct {
	*seriesVec[atomic.Float64]
	d *prometheus.Desc
}

func newCounterVec(spec *MetricSpec) *counterVec {
	v := newSeriesVec(spec, func() *atomic.Float64 { return atomic.NewFloat64(0) })
	return &counterVec{
		seriesVec: v,
		d:         v.desc(),
	}
}

func (c *counterVec) add(lvs []string, delta float64) {
	c.get(lvs).Add(delta)
}

func (c *counterVec) set(lvs []string, value float64) {
	c.get(lvs).Store(value)
}

// Describe implements prometheus.Collector.
func (c *counterVec) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.d
}

// Collect implements prometheus.Collector.
func (c *counterVec) Collect(ch chan<- prometheus.Metric) {
	c.each(func(lvs []string, value *atomic.Float64) {
		ch <- constMetric(c.d, prometheus.CounterValue, value.Load(), lvs)
	})
}
