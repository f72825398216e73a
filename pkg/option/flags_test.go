// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package option

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cilium/reqmetrics/pkg/defaults"
)

func setupFlags(t *testing.T, args ...string) {
	saved := Config
	saved.LogOpts = map[string]string{}
	Config.LogOpts = map[string]string{}
	t.Cleanup(func() {
		Config = saved
		viper.Reset()
	})

	flags := pflag.NewFlagSet("reqmetrics", pflag.ContinueOnError)
	AddFlags(flags)
	require.NoError(t, flags.Parse(args))
	require.NoError(t, viper.BindPFlags(flags))
}

func TestReadAndSetFlagsDefaults(t *testing.T) {
	t.Setenv(MultiprocessDirEnv, "")
	setupFlags(t)
	require.NoError(t, ReadAndSetFlags())

	assert.Equal(t, defaults.ServerAddress, Config.ServerAddress)
	assert.Equal(t, defaults.ScrapePort, Config.ScrapePort)
	assert.Equal(t, defaults.ScrapePath, Config.ScrapePath)
	assert.Equal(t, defaults.GRPCAddress, Config.GRPCAddress)
	assert.Equal(t, defaults.MultiprocessFlushInterval, Config.MultiprocessFlushInterval)
	assert.True(t, Config.EnableRuntimeMetrics)
	assert.False(t, Config.MultiprocessProcLiveness)
	assert.Empty(t, Config.Upstream)
	assert.Empty(t, Config.MultiprocessDir)
	assert.Equal(t, "info", Config.LogOpts["level"])
	assert.Equal(t, "text", Config.LogOpts["format"])
}

func TestReadAndSetFlags(t *testing.T) {
	setupFlags(t,
		"--server-address=:3000",
		"--scrape-port=9100",
		"--scrape-path=/prom",
		"--grpc-address=",
		"--upstream=http://localhost:4000",
		"--metrics-file=/etc/reqmetrics/metrics.yaml",
		"--multiprocess-dir=/tmp/shards",
		"--multiprocess-flush-interval=1s",
		"--multiprocess-proc-liveness",
		"--enable-runtime-metrics=false",
		"--log-format=json",
		"-d",
	)
	require.NoError(t, ReadAndSetFlags())

	assert.Equal(t, ":3000", Config.ServerAddress)
	assert.Equal(t, 9100, Config.ScrapePort)
	assert.Equal(t, "/prom", Config.ScrapePath)
	assert.Empty(t, Config.GRPCAddress)
	assert.Equal(t, "http://localhost:4000", Config.Upstream)
	assert.Equal(t, "/etc/reqmetrics/metrics.yaml", Config.MetricsFile)
	assert.Equal(t, "/tmp/shards", Config.MultiprocessDir)
	assert.Equal(t, time.Second, Config.MultiprocessFlushInterval)
	assert.True(t, Config.MultiprocessProcLiveness)
	assert.False(t, Config.EnableRuntimeMetrics)
	assert.True(t, Config.Debug)
	assert.Equal(t, "json", Config.LogOpts["format"])
}

func TestReadAndSetFlagsMultiprocessEnv(t *testing.T) {
	t.Setenv(MultiprocessDirEnv, "/run/shards")
	setupFlags(t)
	require.NoError(t, ReadAndSetFlags())
	assert.Equal(t, "/run/shards", Config.MultiprocessDir)

	viper.Reset()
	setupFlags(t, "--multiprocess-dir=/tmp/flag")
	require.NoError(t, ReadAndSetFlags())
	assert.Equal(t, "/tmp/flag", Config.MultiprocessDir)
}

func TestReadAndSetFlagsInvalid(t *testing.T) {
	for _, args := range [][]string{
		{"--scrape-port=0"},
		{"--scrape-port=70000"},
		{"--scrape-path=metrics"},
		{"--upstream=localhost:4000"},
		{"--upstream=/relative"},
		{"--multiprocess-flush-interval=0s"},
	} {
		t.Run(args[0], func(t *testing.T) {
			setupFlags(t, args...)
			assert.Error(t, ReadAndSetFlags())
		})
	}
}

func TestConfigFromViperMap(t *testing.T) {
	setupFlags(t)
	dir := t.TempDir()
	writeFile(t, dir, "scrape-port", "9200\n")
	writeFile(t, dir, "log-level", "debug")

	cm, err := ReadDirConfig(dir)
	require.NoError(t, err)
	require.NoError(t, viper.MergeConfigMap(cm))
	require.NoError(t, ReadAndSetFlags())

	assert.Equal(t, 9200, Config.ScrapePort)
	assert.Equal(t, "debug", Config.LogOpts["level"])
}
