// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/cilium/reqmetrics/pkg/defaults"
	"github.com/cilium/reqmetrics/pkg/option"
)

const (
	envPrefix  = "reqmetrics"
	configName = "reqmetrics"
)

func readConfigFile(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("failed to read config file '%s' not a regular file", path)
	}
	viper.SetConfigFile(path)
	return viper.MergeInConfig()
}

func readConfigDir(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("'%s' is not a directory", path)
	}

	cm, err := option.ReadDirConfig(path)
	if err != nil {
		return err
	}
	if err := viper.MergeConfigMap(cm); err != nil {
		return fmt.Errorf("merge config failed %w", err)
	}
	return nil
}

// readConfigSettings merges, from lowest to highest precedence:
// <confDir>/reqmetrics.yaml, the dropIn directory, --config-file and
// --config-dir. Flags and REQMETRICS_* environment variables override all
// of them. Missing default locations are ignored, explicitly passed ones
// are fatal.
func readConfigSettings(confDir string, dropIn string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.SetConfigType("yaml")

	if err := readConfigFile(confDir + configName + ".yaml"); err == nil {
		log.WithField("file", confDir+configName+".yaml").Info("Loaded config from file")
	}
	if err := readConfigDir(dropIn); err == nil {
		log.WithField(option.KeyConfigDir, dropIn).Info("Loaded config from directory")
	}

	if file := viper.GetString(option.KeyConfigFile); file != "" {
		if err := readConfigFile(file); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		log.WithField(option.KeyConfigFile, file).Info("Loaded config from file")
	}

	// viper.IsSet could return true on an empty string reset
	if dir := viper.GetString(option.KeyConfigDir); dir != "" {
		if err := readConfigDir(dir); err != nil {
			return fmt.Errorf("failed to read config from directory %s: %w", dir, err)
		}
		log.WithField(option.KeyConfigDir, dir).Info("Loaded config from directory")
	}
	return nil
}

func readDefaultConfigSettings() error {
	return readConfigSettings(defaults.ConfigDir, defaults.ConfigDropIn)
}
