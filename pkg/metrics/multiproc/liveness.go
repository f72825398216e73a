// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package multiproc

import (
	"errors"
	"os"

	"github.com/prometheus/procfs"

	"github.com/cilium/reqmetrics/pkg/logger"
)

// AliveFunc reports whether the process with the given pid is running.
type AliveFunc func(pid int) bool

// ProcAlive checks liveness in the given proc filesystem. Only a missing
// /proc/<pid> counts as dead.
func ProcAlive(fs procfs.FS) AliveFunc {
	return func(pid int) bool {
		_, err := fs.Proc(pid)
		return !errors.Is(err, os.ErrNotExist)
	}
}

func allAlive(int) bool { return true }

// WithProcLiveness drops the gauges of processes missing from the default
// proc filesystem. It's only correct when every writer of the directory
// shares the reader's pid namespace.
func WithProcLiveness() Option {
	return func(a *Aggregator) {
		fs, err := procfs.NewDefaultFS()
		if err != nil {
			logger.GetLogger().WithError(err).Warn("procfs not available, keeping gauges of all shard owners")
			return
		}
		a.alive = ProcAlive(fs)
	}
}
