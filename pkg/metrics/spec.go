// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/prometheus/common/model"
)

// MetricSpec declares a metric to be created by New.
type MetricSpec struct {
	Kind        Kind   `yaml:"kind"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// LabelNames are the names of the variable labels. Every mutation of
	// the metric has to provide exactly these labels.
	LabelNames []string `yaml:"labels,omitempty"`
	// StateNames are the possible states of an enum. The first one is the
	// initial state.
	StateNames []string `yaml:"states,omitempty"`
	// Buckets of a histogram. prometheus.DefBuckets is used if empty.
	Buckets []float64 `yaml:"buckets,omitempty"`
}

// RegistryConfig is the input of New.
type RegistryConfig struct {
	Metrics []MetricSpec `yaml:"metrics"`
	// MultiprocessDir enables multiprocess mode when not empty. It must be an
	// existing directory shared by all processes of the service.
	MultiprocessDir string `yaml:"multiprocessDir,omitempty"`
}

// Validate checks the spec before any collector is built from it.
func (s *MetricSpec) Validate() error {
	if _, ok := kindNames[s.Kind]; !ok {
		return fmt.Errorf("%w: metric %q has unknown kind %d", ErrInvalidMetricSpec, s.Name, int(s.Kind))
	}
	if !model.IsValidLegacyMetricName(model.LabelValue(s.Name)) {
		return fmt.Errorf("%w: invalid metric name %q", ErrInvalidMetricSpec, s.Name)
	}
	if err := validateLabelNames(s.Name, s.LabelNames); err != nil {
		return err
	}
	switch s.Kind {
	case KindHistogram:
		if slices.Contains(s.LabelNames, "le") {
			return fmt.Errorf("%w: histogram %q can't use reserved label \"le\"", ErrInvalidMetricSpec, s.Name)
		}
		if !slices.IsSorted(s.Buckets) || len(slices.Compact(slices.Clone(s.Buckets))) != len(s.Buckets) {
			return fmt.Errorf("%w: histogram %q buckets must be strictly increasing", ErrInvalidMetricSpec, s.Name)
		}
	case KindSummary:
		if slices.Contains(s.LabelNames, "quantile") {
			return fmt.Errorf("%w: summary %q can't use reserved label \"quantile\"", ErrInvalidMetricSpec, s.Name)
		}
	case KindInfo:
		if strings.HasSuffix(s.Name, infoSuffix) {
			return fmt.Errorf("%w: info %q must not end with %q, the suffix is added on export", ErrInvalidMetricSpec, s.Name, infoSuffix)
		}
	case KindEnum:
		if len(s.StateNames) == 0 {
			return fmt.Errorf("%w: enum %q has no states", ErrInvalidMetricSpec, s.Name)
		}
		if !model.LabelName(s.Name).IsValid() {
			return fmt.Errorf("%w: enum %q must also be a valid label name", ErrInvalidMetricSpec, s.Name)
		}
		if slices.Contains(s.LabelNames, s.Name) {
			return fmt.Errorf("%w: enum %q can't have a label named after itself", ErrInvalidMetricSpec, s.Name)
		}
		seen := make(map[string]struct{}, len(s.StateNames))
		for _, st := range s.StateNames {
			if !utf8.ValidString(st) {
				return fmt.Errorf("%w: enum %q has state %q that is not valid UTF-8", ErrInvalidMetricSpec, s.Name, st)
			}
			if _, dup := seen[st]; dup {
				return fmt.Errorf("%w: enum %q has duplicate state %q", ErrInvalidMetricSpec, s.Name, st)
			}
			seen[st] = struct{}{}
		}
	}
	return nil
}

func validateLabelNames(metric string, names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, l := range names {
		if !model.LabelName(l).IsValid() || strings.HasPrefix(l, model.ReservedLabelPrefix) {
			return fmt.Errorf("%w: metric %q has invalid label name %q", ErrInvalidMetricSpec, metric, l)
		}
		if _, dup := seen[l]; dup {
			return fmt.Errorf("%w: metric %q has duplicate label name %q", ErrInvalidMetricSpec, metric, l)
		}
		seen[l] = struct{}{}
	}
	return nil
}
