// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"fmt"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/model"
	"go.uber.org/atomic"
)

const infoSuffix = "_info"

type infoPairs struct {
	keys   []string
	values []string
}

// infoVec exposes key-value information as labels of a constant 1 sample
// named <name>_info. The info keys are only known at collection time, so
// it's an unchecked collector: Describe sends nothing.
type infoVec struct {
	*seriesVec[atomic.Pointer[infoPairs]]
}

func newInfoVec(spec *MetricSpec) *infoVec {
	v := newSeriesVec(spec, func() *atomic.Pointer[infoPairs] {
		return atomic.NewPointer(&infoPairs{})
	})
	v.name += infoSuffix
	return &infoVec{seriesVec: v}
}

func (i *infoVec) set(lvs []string, info map[string]string) error {
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	values := make([]string, len(keys))
	for n, k := range keys {
		if !model.LabelName(k).IsValid() || strings.HasPrefix(k, model.ReservedLabelPrefix) {
			return fmt.Errorf("%w: invalid info key %q for %q", ErrLabelMismatch, k, i.name)
		}
		if slices.Contains(i.labelNames, k) {
			return fmt.Errorf("%w: info key %q of %q collides with a label name", ErrLabelMismatch, k, i.name)
		}
		if err := checkLabelValue(i.name, k, info[k]); err != nil {
			return err
		}
		values[n] = info[k]
	}
	i.get(lvs).Store(&infoPairs{keys: keys, values: values})
	return nil
}

// Describe implements prometheus.Collector.
func (i *infoVec) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (i *infoVec) Collect(ch chan<- prometheus.Metric) {
	i.each(func(lvs []string, value *atomic.Pointer[infoPairs]) {
		p := value.Load()
		ch <- constMetric(i.desc(p.keys...), prometheus.GaugeValue, 1, append(slices.Clone(lvs), p.values...))
	})
}
