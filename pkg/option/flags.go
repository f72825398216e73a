// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package option

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cilium/reqmetrics/pkg/defaults"
	"github.com/cilium/reqmetrics/pkg/logger"
)

const (
	KeyConfigDir  = "config-dir"
	KeyConfigFile = "config-file"
	KeyDebug      = "debug"

	KeyLogLevel  = "log-level"
	KeyLogFormat = "log-format"

	KeyServerAddress = "server-address"
	KeyScrapePort    = "scrape-port"
	KeyScrapePath    = "scrape-path"
	KeyGRPCAddress   = "grpc-address"
	KeyUpstream      = "upstream"

	KeyMetricsFile               = "metrics-file"
	KeyMultiprocessDir           = "multiprocess-dir"
	KeyMultiprocessFlushInterval = "multiprocess-flush-interval"
	KeyMultiprocessProcLiveness  = "multiprocess-proc-liveness"
	KeyEnableRuntimeMetrics      = "enable-runtime-metrics"
	KeyShutdownTimeout           = "shutdown-timeout"
	KeyGopsAddr                  = "gops-address"
)

// MultiprocessDirEnv is read when --multiprocess-dir is not set. It is the
// variable other Prometheus multiprocess clients use for the same directory.
const MultiprocessDirEnv = "PROMETHEUS_MULTIPROC_DIR"

func ReadAndSetFlags() error {
	Config.Debug = viper.GetBool(KeyDebug)

	Config.ServerAddress = viper.GetString(KeyServerAddress)
	Config.ScrapePort = viper.GetInt(KeyScrapePort)
	if Config.ScrapePort <= 0 || Config.ScrapePort > 65535 {
		return fmt.Errorf("invalid %s %d: must be between 1 and 65535", KeyScrapePort, Config.ScrapePort)
	}
	Config.ScrapePath = viper.GetString(KeyScrapePath)
	if !strings.HasPrefix(Config.ScrapePath, "/") {
		return fmt.Errorf("invalid %s %q: must start with '/'", KeyScrapePath, Config.ScrapePath)
	}
	Config.GRPCAddress = viper.GetString(KeyGRPCAddress)

	Config.Upstream = viper.GetString(KeyUpstream)
	if Config.Upstream != "" {
		u, err := url.Parse(Config.Upstream)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", KeyUpstream, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s %q: expected an absolute URL", KeyUpstream, Config.Upstream)
		}
	}

	Config.MetricsFile = viper.GetString(KeyMetricsFile)
	Config.MultiprocessDir = viper.GetString(KeyMultiprocessDir)
	if Config.MultiprocessDir == "" {
		Config.MultiprocessDir = os.Getenv(MultiprocessDirEnv)
	}
	Config.MultiprocessFlushInterval = viper.GetDuration(KeyMultiprocessFlushInterval)
	if Config.MultiprocessFlushInterval <= 0 {
		return fmt.Errorf("invalid %s %s: must be positive", KeyMultiprocessFlushInterval, Config.MultiprocessFlushInterval)
	}
	Config.MultiprocessProcLiveness = viper.GetBool(KeyMultiprocessProcLiveness)
	Config.EnableRuntimeMetrics = viper.GetBool(KeyEnableRuntimeMetrics)

	Config.ShutdownTimeout = viper.GetDuration(KeyShutdownTimeout)
	Config.GopsAddr = viper.GetString(KeyGopsAddr)

	logLevel := viper.GetString(KeyLogLevel)
	logFormat := viper.GetString(KeyLogFormat)
	logger.PopulateLogOpts(Config.LogOpts, logLevel, logFormat)

	return nil
}

func AddFlags(flags *pflag.FlagSet) {
	flags.String(KeyConfigDir, "", "Configuration directory that contains a file for each option")
	flags.String(KeyConfigFile, "", "YAML configuration file, merged over the built-in defaults")
	flags.BoolP(KeyDebug, "d", false, "Enable debug messages. Equivalent to '--log-level=debug'")
	flags.String(KeyLogLevel, "info", "Set log level")
	flags.String(KeyLogFormat, "text", "Set log format")

	flags.String(KeyServerAddress, defaults.ServerAddress, "Application HTTP server address (e.g. ':8080')")
	flags.Int(KeyScrapePort, defaults.ScrapePort, "Port on which the scrape path serves the metrics exposition. Requests on other ports are forwarded to the application")
	flags.String(KeyScrapePath, defaults.ScrapePath, "HTTP path of the metrics exposition")
	flags.String(KeyGRPCAddress, defaults.GRPCAddress, "gRPC server address (e.g. 'localhost:54321' or 'unix:///var/run/reqmetrics/reqmetrics.sock'). An empty address disables the gRPC server")
	flags.String(KeyUpstream, "", "URL of the application to reverse proxy to (e.g. 'http://localhost:3000'). The built-in handler is used when empty")

	flags.String(KeyMetricsFile, "", "YAML file declaring additional metrics")
	flags.String(KeyMultiprocessDir, "", "Directory shared by all worker processes. Enables multiprocess mode. Defaults to $"+MultiprocessDirEnv)
	flags.Duration(KeyMultiprocessFlushInterval, defaults.MultiprocessFlushInterval, "Interval at which the process shard is written in multiprocess mode")
	flags.Bool(KeyMultiprocessProcLiveness, false, "Drop the gauges of workers missing from /proc before they are marked dead. Only valid when all workers share our pid namespace")
	flags.Bool(KeyEnableRuntimeMetrics, true, "Export Go runtime and process metrics")

	flags.Duration(KeyShutdownTimeout, defaults.ShutdownTimeout, "Time allowed for in-flight requests to finish on shutdown")
	flags.String(KeyGopsAddr, "", "gops server address (e.g. 'localhost:8118'). Disabled by default")
}
