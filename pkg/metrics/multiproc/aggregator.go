// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package multiproc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/multierr"
	"google.golang.org/protobuf/proto"

	"github.com/cilium/reqmetrics/pkg/logger"
	"github.com/cilium/reqmetrics/pkg/logger/logfields"
	"github.com/cilium/reqmetrics/pkg/metrics/consts"
)

const defaultCacheSize = 128

var errBucketLayout = errors.New("histogram bucket layouts differ")

type parsedShard struct {
	modTime  time.Time
	size     int64
	families map[string]*dto.MetricFamily
}

// Aggregator is a prometheus.Gatherer merging all shards of a directory.
type Aggregator struct {
	dir       string
	alive     AliveFunc
	cacheSize int
	cache     *lru.Cache[string, parsedShard]
}

type Option func(*Aggregator)

// WithAliveFunc sets how the liveness of shard owners is checked. By default
// every owner is alive and its gauges are kept until MarkProcessDead.
func WithAliveFunc(f AliveFunc) Option {
	return func(a *Aggregator) {
		a.alive = f
	}
}

// WithCacheSize sets how many parsed shards are kept between gathers.
func WithCacheSize(n int) Option {
	return func(a *Aggregator) {
		a.cacheSize = n
	}
}

// NewAggregator creates an Aggregator for dir, which has to exist.
func NewAggregator(dir string, opts ...Option) (*Aggregator, error) {
	if err := checkDir(dir); err != nil {
		return nil, err
	}
	a := &Aggregator{
		dir:       dir,
		cacheSize: defaultCacheSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.alive == nil {
		a.alive = allAlive
	}
	cache, err := lru.New[string, parsedShard](a.cacheSize)
	if err != nil {
		return nil, err
	}
	a.cache = cache
	return a, nil
}

// Gather implements prometheus.Gatherer.
//
// Shards that can't be read are skipped; their errors are combined and
// returned together with the merge of the remaining shards.
func (a *Aggregator) Gather() ([]*dto.MetricFamily, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, err
	}

	var errs error
	m := newMerger()
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		pid, ok := shardPid(e.Name())
		if !ok {
			continue
		}
		families, err := a.load(filepath.Join(a.dir, e.Name()))
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		alive := a.alive(pid)
		if !alive {
			logger.GetLogger().WithField(logfields.Pid, pid).Debug("Dropping gauges of dead process")
		}
		if err := m.add(families, pid, alive); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", e.Name(), err))
		}
	}
	return m.result(), errs
}

// load returns the parsed shard at path, reusing the cached result if the
// file didn't change since it was parsed.
func (a *Aggregator) load(path string) (map[string]*dto.MetricFamily, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if cached, ok := a.cache.Get(path); ok && cached.modTime.Equal(fi.ModTime()) && cached.size == fi.Size() {
		return cached.families, nil
	}
	families, err := readFamilies(path)
	if err != nil {
		a.cache.Remove(path)
		return nil, err
	}
	a.cache.Add(path, parsedShard{modTime: fi.ModTime(), size: fi.Size(), families: families})
	return families, nil
}

type merger struct {
	families map[string]*dto.MetricFamily
	// per family, metrics by label signature
	series map[string]map[string]*dto.Metric
}

func newMerger() *merger {
	return &merger{
		families: map[string]*dto.MetricFamily{},
		series:   map[string]map[string]*dto.Metric{},
	}
}

// add merges the families of one shard. Cached families are never
// modified, merged values are accumulated in clones.
func (m *merger) add(families map[string]*dto.MetricFamily, pid int, alive bool) error {
	var errs error
	for name, mf := range families {
		perProcess := isPerProcess(mf.GetType())
		if perProcess && !alive {
			continue
		}
		dst, ok := m.families[name]
		if !ok {
			dst = &dto.MetricFamily{
				Name: proto.String(name),
				Help: proto.String(mf.GetHelp()),
				Type: mf.GetType().Enum(),
			}
			m.families[name] = dst
			m.series[name] = map[string]*dto.Metric{}
		} else if dst.GetType() != mf.GetType() {
			errs = multierr.Append(errs, fmt.Errorf("metric %s has type %s, already merged as %s", name, mf.GetType(), dst.GetType()))
			continue
		}

		for _, metric := range mf.GetMetric() {
			metric = proto.Clone(metric).(*dto.Metric)
			metric.TimestampMs = nil
			if perProcess {
				addPidLabel(metric, pid)
			}
			sig := signature(metric.GetLabel())
			existing, ok := m.series[name][sig]
			if !ok {
				if mf.GetType() == dto.MetricType_SUMMARY {
					metric.Summary.Quantile = nil
				}
				m.series[name][sig] = metric
				dst.Metric = append(dst.Metric, metric)
				continue
			}
			if err := accumulate(mf.GetType(), existing, metric); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("metric %s: %w", name, err))
			}
		}
	}
	return errs
}

func (m *merger) result() []*dto.MetricFamily {
	out := make([]*dto.MetricFamily, 0, len(m.families))
	for _, mf := range m.families {
		if len(mf.Metric) == 0 {
			continue
		}
		sort.Slice(mf.Metric, func(i, j int) bool {
			return signature(mf.Metric[i].GetLabel()) < signature(mf.Metric[j].GetLabel())
		})
		out = append(out, mf)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GetName() < out[j].GetName()
	})
	return out
}

func isPerProcess(t dto.MetricType) bool {
	return t == dto.MetricType_GAUGE || t == dto.MetricType_UNTYPED
}

func accumulate(t dto.MetricType, dst, src *dto.Metric) error {
	switch t {
	case dto.MetricType_COUNTER:
		dst.Counter.Value = proto.Float64(dst.GetCounter().GetValue() + src.GetCounter().GetValue())
	case dto.MetricType_SUMMARY:
		dst.Summary.SampleCount = proto.Uint64(dst.GetSummary().GetSampleCount() + src.GetSummary().GetSampleCount())
		dst.Summary.SampleSum = proto.Float64(dst.GetSummary().GetSampleSum() + src.GetSummary().GetSampleSum())
	case dto.MetricType_HISTOGRAM:
		return mergeHistogram(dst.Histogram, src.GetHistogram())
	default:
		// gauges carry the pid label, two samples with the same labels
		// come from a broken shard
		return fmt.Errorf("duplicate %s sample", t)
	}
	return nil
}

func mergeHistogram(dst, src *dto.Histogram) error {
	if len(dst.GetBucket()) != len(src.GetBucket()) {
		return errBucketLayout
	}
	for i, b := range src.GetBucket() {
		if dst.Bucket[i].GetUpperBound() != b.GetUpperBound() {
			return errBucketLayout
		}
		dst.Bucket[i].CumulativeCount = proto.Uint64(dst.Bucket[i].GetCumulativeCount() + b.GetCumulativeCount())
	}
	dst.SampleCount = proto.Uint64(dst.GetSampleCount() + src.GetSampleCount())
	dst.SampleSum = proto.Float64(dst.GetSampleSum() + src.GetSampleSum())
	return nil
}

func addPidLabel(m *dto.Metric, pid int) {
	for _, l := range m.Label {
		if l.GetName() == consts.PidLabel {
			return
		}
	}
	m.Label = append(m.Label, &dto.LabelPair{
		Name:  proto.String(consts.PidLabel),
		Value: proto.String(strconv.Itoa(pid)),
	})
	sort.Slice(m.Label, func(i, j int) bool {
		return m.Label[i].GetName() < m.Label[j].GetName()
	})
}

func signature(labels []*dto.LabelPair) string {
	pairs := make([]string, 0, len(labels))
	for _, l := range labels {
		pairs = append(pairs, l.GetName()+"="+l.GetValue())
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "\xff")
}
