// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMetricSpecValidate(t *testing.T) {
	tests := []struct {
		name  string
		spec  MetricSpec
		valid bool
	}{
		{"counter", MetricSpec{Kind: KindCounter, Name: "a_total", LabelNames: []string{"x", "y"}}, true},
		{"empty name", MetricSpec{Kind: KindCounter}, false},
		{"dash in name", MetricSpec{Kind: KindGauge, Name: "a-b"}, false},
		{"unknown kind", MetricSpec{Kind: Kind(42), Name: "a"}, false},
		{"invalid label", MetricSpec{Kind: KindGauge, Name: "a", LabelNames: []string{"1x"}}, false},
		{"reserved label", MetricSpec{Kind: KindGauge, Name: "a", LabelNames: []string{"__x"}}, false},
		{"duplicate label", MetricSpec{Kind: KindGauge, Name: "a", LabelNames: []string{"x", "x"}}, false},
		{"histogram le", MetricSpec{Kind: KindHistogram, Name: "a", LabelNames: []string{"le"}}, false},
		{"histogram buckets", MetricSpec{Kind: KindHistogram, Name: "a", Buckets: []float64{0.1, 0.5, 1}}, true},
		{"histogram unsorted buckets", MetricSpec{Kind: KindHistogram, Name: "a", Buckets: []float64{1, 0.1}}, false},
		{"histogram duplicate buckets", MetricSpec{Kind: KindHistogram, Name: "a", Buckets: []float64{1, 1}}, false},
		{"summary quantile", MetricSpec{Kind: KindSummary, Name: "a", LabelNames: []string{"quantile"}}, false},
		{"info", MetricSpec{Kind: KindInfo, Name: "build"}, true},
		{"info suffix", MetricSpec{Kind: KindInfo, Name: "build_info"}, false},
		{"enum", MetricSpec{Kind: KindEnum, Name: "state", StateNames: []string{"a", "b"}}, true},
		{"enum without states", MetricSpec{Kind: KindEnum, Name: "state"}, false},
		{"enum duplicate states", MetricSpec{Kind: KindEnum, Name: "state", StateNames: []string{"a", "a"}}, false},
		{"enum label named after metric", MetricSpec{Kind: KindEnum, Name: "state", LabelNames: []string{"state"}, StateNames: []string{"a"}}, false},
		{"enum name not a label name", MetricSpec{Kind: KindEnum, Name: "job:state", StateNames: []string{"a"}}, false},
		{"enum state not utf8", MetricSpec{Kind: KindEnum, Name: "state", StateNames: []string{"a\xff"}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.spec.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidMetricSpec)
			}
		})
	}
}

func TestKindYAML(t *testing.T) {
	var specs []MetricSpec
	err := yaml.Unmarshal([]byte(`
- kind: Histogram
  name: latency
  description: Request latency
  labels: [route]
  buckets: [0.1, 1]
- kind: enum
  name: state
  states: [up, down]
`), &specs)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, KindHistogram, specs[0].Kind)
	assert.Equal(t, []string{"route"}, specs[0].LabelNames)
	assert.Equal(t, []float64{0.1, 1}, specs[0].Buckets)
	assert.Equal(t, KindEnum, specs[1].Kind)
	assert.Equal(t, []string{"up", "down"}, specs[1].StateNames)

	err = yaml.Unmarshal([]byte(`- kind: timer`), &specs)
	assert.ErrorIs(t, err, ErrInvalidMetricSpec)

	out, err := yaml.Marshal(MetricSpec{Kind: KindSummary, Name: "s"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "kind: summary")
}

func TestLabelValues(t *testing.T) {
	schema := []string{"method", "path"}

	lvs, err := labelValues("m", schema, Labels{"path": "/", "method": "GET"})
	require.NoError(t, err)
	assert.Equal(t, []string{"GET", "/"}, lvs)

	lvs, err = labelValues("m", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, lvs)

	_, err = labelValues("m", schema, Labels{"method": "GET", "route": "/"})
	var lerr *LabelMismatchError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, []string{"path"}, lerr.Missing)
	assert.Equal(t, []string{"route"}, lerr.Extra)
	assert.Equal(t, `label mismatch for metric "m", missing: path, unexpected: route`, lerr.Error())
}
