// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateMetricName is returned by New when two metric specs share
	// a name.
	ErrDuplicateMetricName = errors.New("duplicate metric name")
	// ErrUnknownMetric is returned when an operation names a metric that
	// was never registered.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrUnsupportedOperation is returned when an operation is not valid for
	// the kind of the named metric.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrLabelMismatch is returned when the supplied labels do not match the
	// label names the metric was declared with.
	ErrLabelMismatch = errors.New("label mismatch")
	// ErrInvalidLabelValue is returned for label or info values that are
	// not valid UTF-8.
	ErrInvalidLabelValue = errors.New("invalid label value")
	// ErrInvalidMetricSpec is returned by New and MetricSpec.Validate for
	// specs that can't be turned into a collector.
	ErrInvalidMetricSpec = errors.New("invalid metric spec")
	// ErrUnknownState is returned by SetState for a state the enum wasn't
	// declared with.
	ErrUnknownState = errors.New("unknown enum state")
)

// LabelMismatchError describes how a set of labels differs from a metric's
// declared label names.
type LabelMismatchError struct {
	Metric  string
	Missing []string
	Extra   []string
}

func (e *LabelMismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s for metric %q", ErrLabelMismatch, e.Metric)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ", missing: %s", strings.Join(e.Missing, ","))
	}
	if len(e.Extra) > 0 {
		fmt.Fprintf(&b, ", unexpected: %s", strings.Join(e.Extra, ","))
	}
	return b.String()
}

// Is makes errors.Is(err, ErrLabelMismatch) hold for *LabelMismatchError.
func (e *LabelMismatchError) Is(target error) bool {
	return target == ErrLabelMismatch
}

func unsupported(m *LiveMetric, op operation) error {
	return fmt.Errorf("%w: cannot %s %s %q", ErrUnsupportedOperation, op, m.spec.Kind, m.spec.Name)
}
