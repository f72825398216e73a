// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cilium/reqmetrics/pkg/option"
)

// resetConfig gives the test a fresh viper with the flags registered, as
// newRootCmd does.
func resetConfig(t *testing.T) {
	viper.Reset()
	savedConfig := option.Config
	savedConfig.LogOpts = map[string]string{}
	t.Cleanup(func() {
		viper.Reset()
		option.Config = savedConfig
	})
	newRootCmd()
}

func writeYAML(t *testing.T, path string, options map[string]any) {
	t.Helper()
	b, err := yaml.Marshal(options)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func writeDropIn(t *testing.T, dir string, options map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for k, v := range options {
		require.NoError(t, os.WriteFile(filepath.Join(dir, k), []byte(v), 0o644))
	}
}

func TestReadConfigSettingsDefaults(t *testing.T) {
	resetConfig(t)
	root := t.TempDir()
	require.NoError(t, readConfigSettings(root+"/", filepath.Join(root, "conf.d")))

	assert.Equal(t, ":8080", viper.GetString(option.KeyServerAddress))
	assert.Equal(t, 9090, viper.GetInt(option.KeyScrapePort))
	assert.Equal(t, "/metrics", viper.GetString(option.KeyScrapePath))
}

func TestReadConfigSettingsPrecedence(t *testing.T) {
	resetConfig(t)
	root := t.TempDir()
	confDir := root + "/"
	dropIn := filepath.Join(root, "reqmetrics.conf.d")
	extraFile := filepath.Join(root, "extra.yaml")
	extraDir := filepath.Join(root, "extra.d")

	writeYAML(t, filepath.Join(root, "reqmetrics.yaml"), map[string]any{
		option.KeyServerAddress: ":3000",
		option.KeyScrapePort:    9100,
		option.KeyScrapePath:    "/from-yaml",
		option.KeyUpstream:      "http://yaml:1",
	})
	writeDropIn(t, dropIn, map[string]string{
		option.KeyScrapePort: "9200",
		option.KeyScrapePath: "/from-dropin",
		option.KeyUpstream:   "http://dropin:1",
	})
	writeYAML(t, extraFile, map[string]any{
		option.KeyScrapePath: "/from-config-file",
		option.KeyUpstream:   "http://file:1",
	})
	writeDropIn(t, extraDir, map[string]string{
		option.KeyUpstream: "http://dir:1",
	})
	viper.Set(option.KeyConfigFile, extraFile)
	viper.Set(option.KeyConfigDir, extraDir)
	t.Setenv("REQMETRICS_SERVER_ADDRESS", ":4000")

	require.NoError(t, readConfigSettings(confDir, dropIn))
	require.NoError(t, option.ReadAndSetFlags())

	assert.Equal(t, ":4000", option.Config.ServerAddress)
	assert.Equal(t, 9200, option.Config.ScrapePort)
	assert.Equal(t, "/from-config-file", option.Config.ScrapePath)
	assert.Equal(t, "http://dir:1", option.Config.Upstream)
}

func TestReadConfigSettingsMissingExplicit(t *testing.T) {
	resetConfig(t)
	root := t.TempDir()
	viper.Set(option.KeyConfigDir, filepath.Join(root, "missing"))
	assert.Error(t, readConfigSettings(root+"/", filepath.Join(root, "conf.d")))

	resetConfig(t)
	viper.Set(option.KeyConfigFile, filepath.Join(root, "missing.yaml"))
	assert.Error(t, readConfigSettings(root+"/", filepath.Join(root, "conf.d")))
}
