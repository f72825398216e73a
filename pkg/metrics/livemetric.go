// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"fmt"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
)

// LiveMetric is a registered metric: its spec plus exactly one backend
// handle matching the spec's kind.
type LiveMetric struct {
	spec MetricSpec

	counter   *counterVec
	gauge     *prometheus.GaugeVec
	histogram *prometheus.HistogramVec
	summary   *prometheus.SummaryVec
	info      *infoVec
	enum      *enumVec
}

func newLiveMetric(spec MetricSpec) (*LiveMetric, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec.LabelNames = slices.Clone(spec.LabelNames)
	spec.StateNames = slices.Clone(spec.StateNames)
	spec.Buckets = slices.Clone(spec.Buckets)

	m := &LiveMetric{spec: spec}
	switch spec.Kind {
	case KindCounter:
		m.counter = newCounterVec(&spec)
	case KindGauge:
		m.gauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: spec.Name,
			Help: spec.Description,
		}, spec.LabelNames)
	case KindHistogram:
		buckets := spec.Buckets
		if len(buckets) == 0 {
			buckets = prometheus.DefBuckets
		}
		m.histogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    spec.Name,
			Help:    spec.Description,
			Buckets: buckets,
		}, spec.LabelNames)
	case KindSummary:
		m.summary = prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name: spec.Name,
			Help: spec.Description,
		}, spec.LabelNames)
	case KindInfo:
		m.info = newInfoVec(&spec)
	case KindEnum:
		m.enum = newEnumVec(&spec)
	default:
		return nil, fmt.Errorf("%w: metric %q has unknown kind %d", ErrInvalidMetricSpec, spec.Name, int(spec.Kind))
	}
	return m, nil
}

// Name returns the name the metric was registered with.
func (m *LiveMetric) Name() string {
	return m.spec.Name
}

func (m *LiveMetric) Kind() Kind {
	return m.spec.Kind
}

// LabelNames returns a copy of the declared label names.
func (m *LiveMetric) LabelNames() []string {
	return slices.Clone(m.spec.LabelNames)
}

// Spec returns a copy of the spec the metric was built from.
func (m *LiveMetric) Spec() MetricSpec {
	s := m.spec
	s.LabelNames = slices.Clone(s.LabelNames)
	s.StateNames = slices.Clone(s.StateNames)
	s.Buckets = slices.Clone(s.Buckets)
	return s
}

func (m *LiveMetric) collector() prometheus.Collector {
	switch m.spec.Kind {
	case KindCounter:
		return m.counter
	case KindGauge:
		return m.gauge
	case KindHistogram:
		return m.histogram
	case KindSummary:
		return m.summary
	case KindInfo:
		return m.info
	case KindEnum:
		return m.enum
	}
	return nil
}

// Describe implements prometheus.Collector.
func (m *LiveMetric) Describe(ch chan<- *prometheus.Desc) {
	m.collector().Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *LiveMetric) Collect(ch chan<- prometheus.Metric) {
	m.collector().Collect(ch)
}

// Init creates the single series of a metric without labels, so it is
// exported before its first mutation.
func (m *LiveMetric) Init() {
	if len(m.spec.LabelNames) > 0 {
		return
	}
	switch m.spec.Kind {
	case KindCounter:
		m.counter.get(nil)
	case KindGauge:
		m.gauge.WithLabelValues()
	case KindHistogram:
		m.histogram.WithLabelValues()
	case KindSummary:
		m.summary.WithLabelValues()
	case KindInfo:
		m.info.get(nil)
	case KindEnum:
		m.enum.get(nil)
	}
}

func (m *LiveMetric) labelValues(labels Labels) ([]string, error) {
	return labelValues(m.spec.Name, m.spec.LabelNames, labels)
}

func (m *LiveMetric) add(op operation, delta float64, labels Labels) error {
	if !m.spec.Kind.supports(op) {
		return unsupported(m, op)
	}
	lvs, err := m.labelValues(labels)
	if err != nil {
		return err
	}
	switch m.spec.Kind {
	case KindCounter:
		m.counter.add(lvs, delta)
	case KindGauge:
		g, err := m.gauge.GetMetricWithLabelValues(lvs...)
		if err != nil {
			return err
		}
		g.Add(delta)
	}
	return nil
}

func (m *LiveMetric) observe(value float64, labels Labels) error {
	if !m.spec.Kind.supports(opObserve) {
		return unsupported(m, opObserve)
	}
	lvs, err := m.labelValues(labels)
	if err != nil {
		return err
	}
	switch m.spec.Kind {
	case KindCounter:
		m.counter.set(lvs, value)
	case KindGauge:
		g, err := m.gauge.GetMetricWithLabelValues(lvs...)
		if err != nil {
			return err
		}
		g.Set(value)
	case KindHistogram:
		o, err := m.histogram.GetMetricWithLabelValues(lvs...)
		if err != nil {
			return err
		}
		o.Observe(value)
	case KindSummary:
		o, err := m.summary.GetMetricWithLabelValues(lvs...)
		if err != nil {
			return err
		}
		o.Observe(value)
	}
	return nil
}

func (m *LiveMetric) setInfo(info map[string]string, labels Labels) error {
	if !m.spec.Kind.supports(opSetInfo) {
		return unsupported(m, opSetInfo)
	}
	lvs, err := m.labelValues(labels)
	if err != nil {
		return err
	}
	return m.info.set(lvs, info)
}

func (m *LiveMetric) setState(state string, labels Labels) error {
	if !m.spec.Kind.supports(opSetState) {
		return unsupported(m, opSetState)
	}
	lvs, err := m.labelValues(labels)
	if err != nil {
		return err
	}
	return m.enum.set(lvs, state)
}
