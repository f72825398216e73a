// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"slices"

	"github.com/cilium/reqmetrics/pkg/metrics/consts"
)

// DefaultMetrics returns the request metrics every registry carries unless
// New is given WithDefaults. It returns fresh values on every call.
func DefaultMetrics() []MetricSpec {
	return []MetricSpec{
		{
			Kind:        KindCounter,
			Name:        consts.RequestsTotalName,
			Description: "Counts all the http requests",
			LabelNames:  slices.Clone(consts.RequestLabels),
		},
		{
			Kind:        KindGauge,
			Name:        consts.RequestsActiveName,
			Description: "Tracks all the active http requests",
			LabelNames:  slices.Clone(consts.ActiveLabels),
		},
		{
			Kind:        KindHistogram,
			Name:        consts.RequestsLatencyName,
			Description: "Counts all http requests latency in seconds",
			LabelNames:  slices.Clone(consts.RequestLabels),
		},
	}
}
