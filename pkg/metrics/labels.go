// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"fmt"
	"slices"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"
)

// Labels maps label names to label values for a single mutation.
type Labels map[string]string

// labelValues checks that labels provides exactly the names in schema with
// valid values and returns the values in schema order.
func labelValues(metric string, schema []string, labels Labels) ([]string, error) {
	if len(labels) == len(schema) {
		lvs := make([]string, len(schema))
		complete := true
		for i, name := range schema {
			v, ok := labels[name]
			if !ok {
				complete = false
				break
			}
			lvs[i] = v
		}
		if complete {
			for i, v := range lvs {
				if err := checkLabelValue(metric, schema[i], v); err != nil {
					return nil, err
				}
			}
			return lvs, nil
		}
	}

	declared := mapset.NewThreadUnsafeSet(schema...)
	given := mapset.NewThreadUnsafeSetFromMapKeys(labels)
	missing := declared.Difference(given).ToSlice()
	extra := given.Difference(declared).ToSlice()
	slices.Sort(missing)
	slices.Sort(extra)
	return nil, &LabelMismatchError{
		Metric:  metric,
		Missing: missing,
		Extra:   extra,
	}
}

func checkLabelValue(metric, name, value string) error {
	if !utf8.ValidString(value) {
		return fmt.Errorf("%w: %q for label %q of metric %q is not valid UTF-8", ErrInvalidLabelValue, value, name, metric)
	}
	return nil
}
