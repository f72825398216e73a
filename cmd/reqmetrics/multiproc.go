// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cilium/reqmetrics/pkg/logger/logfields"
	"github.com/cilium/reqmetrics/pkg/metrics/multiproc"
	"github.com/cilium/reqmetrics/pkg/option"
)

func newMultiprocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "multiproc",
		Short: "Manage the multiprocess metrics directory",
	}

	markDead := &cobra.Command{
		Use:   "mark-dead PID...",
		Short: "Drop the gauges of exited worker processes",
		Long: `Rewrite the shards of the given processes without their gauges, so that
the aggregated exposition stops reporting them. Counters, histograms and
summaries of the processes keep contributing to the totals.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := viper.GetString(option.KeyMultiprocessDir)
			if dir == "" {
				dir = os.Getenv(option.MultiprocessDirEnv)
			}
			if dir == "" {
				return fmt.Errorf("--%s or $%s is required", option.KeyMultiprocessDir, option.MultiprocessDirEnv)
			}

			for _, arg := range args {
				pid, err := strconv.Atoi(arg)
				if err != nil || pid <= 0 {
					return fmt.Errorf("invalid pid %q", arg)
				}
				if err := multiproc.MarkProcessDead(dir, pid); err != nil {
					return err
				}
				log.WithField(logfields.Pid, pid).WithField(logfields.Dir, dir).Info("Marked process dead")
			}
			return nil
		},
	}

	cmd.AddCommand(markDead)
	return cmd
}
