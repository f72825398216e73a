// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package multiproc

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Ext is the file extension of shard files.
const Ext = ".prom"

// Shard is the file one process writes its metrics to.
type Shard struct {
	dir string
	pid int
	// serializes writers of the same shard
	mu sync.Mutex
}

// NewShard returns the shard of process pid in dir. dir has to exist.
func NewShard(dir string, pid int) (*Shard, error) {
	if err := checkDir(dir); err != nil {
		return nil, err
	}
	return &Shard{dir: dir, pid: pid}, nil
}

// Path returns the path of the shard file.
func (s *Shard) Path() string {
	return shardPath(s.dir, s.pid)
}

// Write gathers g and atomically replaces the shard file with the result.
func (s *Shard) Write(g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics for shard %s: %w", s.Path(), err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFamilies(s.dir, s.pid, families)
}

// Remove deletes the shard file. A missing file is not an error.
func (s *Shard) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func checkDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("multiprocess directory: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("multiprocess directory %s is not a directory", dir)
	}
	return nil
}

func shardPath(dir string, pid int) string {
	return filepath.Join(dir, strconv.Itoa(pid)+Ext)
}

// shardPid returns the pid encoded in a shard file name.
func shardPid(name string) (int, bool) {
	if !strings.HasSuffix(name, Ext) {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSuffix(name, Ext))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// writeFamilies writes families to a temporary file in dir and renames it
// over the shard of pid, so readers never see a partial shard.
func writeFamilies(dir string, pid int, families []*dto.MetricFamily) (err error) {
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})

	tmp, err := os.CreateTemp(dir, fmt.Sprintf(".%d-*.tmp", pid))
	if err != nil {
		return fmt.Errorf("creating shard: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, mf := range families {
		if _, err = expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}
	if err = w.Flush(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), shardPath(dir, pid))
}

func readFamilies(path string) (map[string]*dto.MetricFamily, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return families, nil
}
