// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package multiproc

import (
	"errors"
	"fmt"
	"os"

	dto "github.com/prometheus/client_model/go"
)

// MarkProcessDead removes the gauges of process pid from its shard. Counters,
// histograms and summaries stay, since what the process counted before it
// exited is still part of the service totals. A missing shard is not an
// error.
func MarkProcessDead(dir string, pid int) error {
	path := shardPath(dir, pid)
	families, err := readFamilies(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	keep := make([]*dto.MetricFamily, 0, len(families))
	for _, mf := range families {
		if isPerProcess(mf.GetType()) {
			continue
		}
		keep = append(keep, mf)
	}
	if err := writeFamilies(dir, pid, keep); err != nil {
		return fmt.Errorf("rewriting shard of process %d: %w", pid, err)
	}
	return nil
}
