// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	gops "github.com/google/gops/agent"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cilium/reqmetrics/pkg/logger"
	"github.com/cilium/reqmetrics/pkg/option"
)

var log = logger.GetLogger()

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "reqmetrics",
		Short:        "Serve an application with request metrics",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return readDefaultConfigSettings()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := option.ReadAndSetFlags(); err != nil {
				return err
			}
			// Logging should always be bootstrapped first. Do not add any code above this!
			if err := logger.SetupLogging(option.Config.LogOpts, option.Config.Debug); err != nil {
				return err
			}

			if option.Config.GopsAddr != "" {
				log.WithField("addr", option.Config.GopsAddr).Info("Starting gops server")
				if err := gops.Listen(gops.Options{
					Addr:                   option.Config.GopsAddr,
					ReuseSocketAddrAndPort: true,
				}); err != nil {
					return err
				}
				defer gops.Close()
			}

			return reqmetricsExecute(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	option.AddFlags(flags)
	viper.BindPFlags(flags)

	rootCmd.AddCommand(newVersionCmd(), newMultiprocCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Fatal("Failed to run reqmetrics")
	}
}
