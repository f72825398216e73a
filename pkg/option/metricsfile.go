// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package option

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cilium/reqmetrics/pkg/metrics"
)

type metricsFile struct {
	Metrics []metrics.MetricSpec `yaml:"metrics"`
}

// ReadMetricsFile parses the metric declarations of path. Unknown fields
// are rejected so that typos do not silently drop a label or bucket list.
func ReadMetricsFile(path string) ([]metrics.MetricSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics file: %w", err)
	}
	defer f.Close()

	specs, err := decodeMetrics(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metrics file %s: %w", path, err)
	}
	return specs, nil
}

func decodeMetrics(r io.Reader) ([]metrics.MetricSpec, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var mf metricsFile
	if err := dec.Decode(&mf); err != nil {
		// an empty file declares nothing
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	for i := range mf.Metrics {
		if err := mf.Metrics[i].Validate(); err != nil {
			return nil, err
		}
	}
	return mf.Metrics, nil
}

// RegistryConfig builds the registry input from Config.
func RegistryConfig() (metrics.RegistryConfig, error) {
	cfg := metrics.RegistryConfig{MultiprocessDir: Config.MultiprocessDir}
	if Config.MetricsFile == "" {
		return cfg, nil
	}
	specs, err := ReadMetricsFile(Config.MetricsFile)
	if err != nil {
		return metrics.RegistryConfig{}, err
	}
	cfg.Metrics = specs
	return cfg, nil
}
