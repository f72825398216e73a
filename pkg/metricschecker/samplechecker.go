// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metricschecker

import (
	"fmt"
	"sort"
	"strings"

	model "github.com/prometheus/client_model/go"
)

// SampleChecker checks the value of one series of a metric family. For
// counters, gauges and untyped metrics the value is the sample value, for
// histograms and summaries it's the number of observations.
type SampleChecker struct {
	name   string
	typ    model.MetricType
	labels map[string]string
	checks []NumericMatcher[float64]
}

func newSampleChecker(name string, typ model.MetricType) *SampleChecker {
	return &SampleChecker{
		name:   name,
		typ:    typ,
		checks: []NumericMatcher[float64]{},
	}
}

func NewCounterChecker(name string) *SampleChecker {
	return newSampleChecker(name, model.MetricType_COUNTER)
}

func NewGaugeChecker(name string) *SampleChecker {
	return newSampleChecker(name, model.MetricType_GAUGE)
}

// NewHistogramChecker checks the sample count of a histogram series.
func NewHistogramChecker(name string) *SampleChecker {
	return newSampleChecker(name, model.MetricType_HISTOGRAM)
}

// WithLabels selects the series with exactly these labels. Without labels
// the family has to contain a single series.
func (checker *SampleChecker) WithLabels(labels map[string]string) *SampleChecker {
	checker.labels = labels
	return checker
}

func (checker *SampleChecker) WithMatcher(matcher NumericMatcher[float64]) *SampleChecker {
	checker.checks = append(checker.checks, matcher)
	return checker
}

func (checker *SampleChecker) WithValue(v float64) *SampleChecker {
	return checker.WithMatcher(Equal(v))
}

func (checker *SampleChecker) WithMinimum(min float64) *SampleChecker {
	return checker.WithMatcher(AtLeast(min))
}

func (checker *SampleChecker) WithMaximum(max float64) *SampleChecker {
	return checker.WithMatcher(AtMost(max))
}

func (checker *SampleChecker) WithRange(left, right float64) *SampleChecker {
	return checker.WithMatcher(Range(left, right))
}

// Check implements MetricsChecker.
func (checker *SampleChecker) Check(metrics map[string]*model.MetricFamily) error {
	family, err := getMetric(metrics, checker.name)
	if err != nil {
		return err
	}
	if family.GetType() != checker.typ {
		return fmt.Errorf("metric %s has type %s, expected %s", checker.name, family.GetType(), checker.typ)
	}
	metric, err := checker.series(family)
	if err != nil {
		return err
	}

	var value float64
	switch checker.typ {
	case model.MetricType_COUNTER:
		value = metric.GetCounter().GetValue()
	case model.MetricType_GAUGE:
		value = metric.GetGauge().GetValue()
	case model.MetricType_HISTOGRAM:
		value = float64(metric.GetHistogram().GetSampleCount())
	}

	var errs []error
	for _, check := range checker.checks {
		if err := check.Match(value); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &MetricsCheckError{name: checker.name, inner: errs}
	}
	return nil
}

func (checker *SampleChecker) series(family *model.MetricFamily) (*model.Metric, error) {
	if checker.labels == nil {
		if len(family.GetMetric()) != 1 {
			return nil, fmt.Errorf("metric %s has %d series, expected one", checker.name, len(family.GetMetric()))
		}
		return family.GetMetric()[0], nil
	}
	for _, m := range family.GetMetric() {
		if labelsEqual(m.GetLabel(), checker.labels) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("metric %s has no series {%s}", checker.name, formatLabels(checker.labels))
}

func labelsEqual(pairs []*model.LabelPair, labels map[string]string) bool {
	if len(pairs) != len(labels) {
		return false
	}
	for _, p := range pairs {
		v, ok := labels[p.GetName()]
		if !ok || v != p.GetValue() {
			return false
		}
	}
	return true
}

func formatLabels(labels map[string]string) string {
	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, fmt.Sprintf("%s=%q", k, v))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}
