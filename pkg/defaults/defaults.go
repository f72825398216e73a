// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package defaults

import "time"

const (
	// ServerAddress is the default address of the application listener.
	ServerAddress = ":8080"

	// ScrapePort is the default port on which the scrape path is served.
	ScrapePort = 9090

	// ScrapePath is the default HTTP path of the exposition.
	ScrapePath = "/metrics"

	// GRPCAddress is the default address of the gRPC server.
	GRPCAddress = "localhost:54321"

	// HealthPath is served by the built-in application handler.
	HealthPath = "/healthz"

	// MultiprocessFlushInterval is the default period between two shard
	// writes in multiprocess mode.
	MultiprocessFlushInterval = 5 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the listeners.
	ShutdownTimeout = 10 * time.Second

	// ConfigDir is where the daemon looks for reqmetrics.yaml.
	ConfigDir = "/etc/reqmetrics/"

	// ConfigDropIn is read as a --config-dir style directory.
	ConfigDropIn = "/etc/reqmetrics/reqmetrics.conf.d/"
)
