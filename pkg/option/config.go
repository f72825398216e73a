// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package option

import (
	"time"

	"github.com/cilium/reqmetrics/pkg/defaults"
)

// Config contains all the configuration used by reqmetrics.
var Config = config{
	// Initialize global defaults below.
	ServerAddress:             defaults.ServerAddress,
	ScrapePort:                defaults.ScrapePort,
	ScrapePath:                defaults.ScrapePath,
	GRPCAddress:               defaults.GRPCAddress,
	MultiprocessFlushInterval: defaults.MultiprocessFlushInterval,
	ShutdownTimeout:           defaults.ShutdownTimeout,
	EnableRuntimeMetrics:      true,

	// LogOpts contains logger parameters
	LogOpts: make(map[string]string),
}

type config struct {
	Debug bool

	ServerAddress string
	ScrapePort    int
	ScrapePath    string
	GRPCAddress   string
	Upstream      string

	MetricsFile               string
	MultiprocessDir           string
	MultiprocessFlushInterval time.Duration
	MultiprocessProcLiveness  bool
	EnableRuntimeMetrics      bool

	ShutdownTimeout time.Duration
	GopsAddr        string

	LogOpts map[string]string
}
