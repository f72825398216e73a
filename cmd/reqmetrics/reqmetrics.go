// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	"github.com/cilium/reqmetrics/pkg/logger/logfields"
	"github.com/cilium/reqmetrics/pkg/metrics"
	"github.com/cilium/reqmetrics/pkg/metrics/multiproc"
	"github.com/cilium/reqmetrics/pkg/metricsconfig"
	"github.com/cilium/reqmetrics/pkg/option"
	"github.com/cilium/reqmetrics/pkg/server"
	"github.com/cilium/reqmetrics/pkg/version"
)

func serverConfig() server.Config {
	return server.Config{
		ServerAddress:   option.Config.ServerAddress,
		ScrapePort:      option.Config.ScrapePort,
		ScrapePath:      option.Config.ScrapePath,
		GRPCAddress:     option.Config.GRPCAddress,
		Upstream:        option.Config.Upstream,
		FlushInterval:   option.Config.MultiprocessFlushInterval,
		ShutdownTimeout: option.Config.ShutdownTimeout,
	}
}

func newServer() (*metrics.Registry, *server.Server, error) {
	cfg, err := option.RegistryConfig()
	if err != nil {
		return nil, nil, err
	}

	grpcMetrics := metricsconfig.NewGRPCMetrics()
	opts := []metrics.Option{
		metrics.WithCollectors(metricsconfig.Collectors(option.Config.EnableRuntimeMetrics, grpcMetrics)...),
	}
	if option.Config.MultiprocessProcLiveness {
		opts = append(opts, metrics.WithMultiprocessOptions(multiproc.WithProcLiveness()))
	}
	registry, err := metrics.New(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("metrics", registry.Names()).Info("Metrics registered")

	srv, err := server.New(registry, grpcMetrics, serverConfig())
	if err != nil {
		return nil, nil, err
	}
	return registry, srv, nil
}

func reqmetricsExecute(ctx context.Context) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, unix.SIGINT, unix.SIGTERM)
	defer stop()

	log.WithField("version", version.Version).Info("Starting reqmetrics")
	log.WithField("config", viper.AllSettings()).Info("config settings")

	registry, srv, err := newServer()
	if err != nil {
		return err
	}

	if registry.Multiprocess() {
		// our gauges must not outlive us in the aggregate
		defer func() {
			dir := option.Config.MultiprocessDir
			if mErr := multiproc.MarkProcessDead(dir, os.Getpid()); mErr != nil {
				log.WithError(mErr).WithField(logfields.Dir, dir).Warn("Failed to mark process dead")
				err = multierr.Append(err, mErr)
			}
		}()
	}

	return srv.Run(ctx)
}
