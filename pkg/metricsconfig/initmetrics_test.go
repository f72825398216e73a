// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metricsconfig

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cilium/reqmetrics/pkg/metrics/consts"
)

func gatheredNames(t *testing.T, cs []prometheus.Collector) map[string]bool {
	reg := prometheus.NewPedanticRegistry()
	for _, c := range cs {
		require.NoError(t, reg.Register(c))
	}
	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	return names
}

func TestCollectors(t *testing.T) {
	names := gatheredNames(t, Collectors(false))
	assert.Equal(t, map[string]bool{consts.BuildInfoName: true}, names)

	names = gatheredNames(t, Collectors(true))
	assert.True(t, names[consts.BuildInfoName])
	assert.True(t, names["go_goroutines"])
}

func TestCollectorsWithGRPCMetrics(t *testing.T) {
	grpcMetrics := NewGRPCMetrics()
	cs := Collectors(false, grpcMetrics)
	require.Len(t, cs, 2)
	assert.Same(t, grpcMetrics, cs[1])
}
