// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"slices"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// labelValuesSep can't appear in valid UTF-8, and label values are checked
// to be valid UTF-8, so joined label values never collide.
const labelValuesSep = "\xff"

type series[V any] struct {
	lvs   []string
	value *V
}

// seriesVec stores the per label values state of a metric that is not
// backed by a prometheus vector. It's the common part of the custom
// collectors (counter, info, enum).
//
// Values are created once and then only mutated through V's own atomic
// methods, so the map lock is held for writing only when a new label
// combination shows up.
type seriesVec[V any] struct {
	name       string
	help       string
	labelNames []string
	newValue   func() *V

	mu     sync.RWMutex
	series map[string]series[V]
}

func newSeriesVec[V any](spec *MetricSpec, newValue func() *V) *seriesVec[V] {
	return &seriesVec[V]{
		name:       spec.Name,
		help:       spec.Description,
		labelNames: slices.Clone(spec.LabelNames),
		newValue:   newValue,
		series:     map[string]series[V]{},
	}
}

// get returns the value for lvs, creating it if needed.
func (v *seriesVec[V]) get(lvs []string) *V {
	key := strings.Join(lvs, labelValuesSep)

	v.mu.RLock()
	s, ok := v.series[key]
	v.mu.RUnlock()
	if ok {
		return s.value
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.series[key]; ok {
		return s.value
	}
	s = series[V]{lvs: slices.Clone(lvs), value: v.newValue()}
	v.series[key] = s
	return s.value
}

// each calls fn for every series. fn must not call get.
func (v *seriesVec[V]) each(fn func(lvs []string, value *V)) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, s := range v.series {
		fn(s.lvs, s.value)
	}
}

func (v *seriesVec[V]) desc(extraLabels ...string) *prometheus.Desc {
	labels := v.labelNames
	if len(extraLabels) > 0 {
		labels = append(slices.Clone(v.labelNames), extraLabels...)
	}
	return prometheus.NewDesc(v.name, v.help, labels, nil)
}

// constMetric builds a sample of a custom collector. Stored label values are
// validated when set, a failure here reports an invalid metric to the
// gatherer instead of panicking.
func constMetric(d *prometheus.Desc, t prometheus.ValueType, value float64, lvs []string) prometheus.Metric {
	m, err := prometheus.NewConstMetric(d, t, value, lvs...)
	if err != nil {
		return prometheus.NewInvalidMetric(d, err)
	}
	return m
}
