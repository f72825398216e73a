// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"fmt"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

// enumVec tracks which of a fixed set of states each series is in. Every
// state is exported as a sample with an extra label named after the metric,
// valued 1 for the current state and 0 for the others.
type enumVec struct {
	*seriesVec[atomic.Int32]
	states []string
	d      *prometheus.Desc
}

func newEnumVec(spec *MetricSpec) *enumVec {
	v := newSeriesVec(spec, func() *atomic.Int32 { return atomic.NewInt32(0) })
	return &enumVec{
		seriesVec: v,
		states:    slices.Clone(spec.StateNames),
		d:         v.desc(spec.Name),
	}
}

func (e *enumVec) set(lvs []string, state string) error {
	idx := slices.Index(e.states, state)
	if idx < 0 {
		return fmt.Errorf("%w: %q is not a state of %q", ErrUnknownState, state, e.name)
	}
	e.get(lvs).Store(int32(idx))
	return nil
}

// Describe implements prometheus.Collector.
func (e *enumVec) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.d
}

// Collect implements prometheus.Collector.
func (e *enumVec) Collect(ch chan<- prometheus.Metric) {
	e.each(func(lvs []string, value *atomic.Int32) {
		current := int(value.Load())
		for i, state := range e.states {
			v := 0.0
			if i == current {
				v = 1
			}
			ch <- constMetric(e.d, prometheus.GaugeValue, v, append(slices.Clone(lvs), state))
		}
	})
}
