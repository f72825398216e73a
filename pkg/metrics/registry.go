// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"

	"github.com/cilium/reqmetrics/pkg/logger"
	"github.com/cilium/reqmetrics/pkg/logger/logfields"
	"github.com/cilium/reqmetrics/pkg/metrics/multiproc"
)

// Registry owns a closed set of metrics declared at construction and
// dispatches mutations to them by name.
//
// The name map is never modified after New returns, so all operations are
// safe for concurrent use without a registry lock.
type Registry struct {
	metrics map[string]*LiveMetric
	// registration order
	names []string
	group Group

	// set in multiprocess mode only
	shard      *multiproc.Shard
	aggregator *multiproc.Aggregator

	log logrus.FieldLogger
}

type options struct {
	defaults     func() []MetricSpec
	collectors   []prometheus.Collector
	pid          int
	multiprocOps []multiproc.Option
}

type Option func(*options)

// WithDefaults replaces DefaultMetrics as the source of the metrics
// registered before the configured ones.
func WithDefaults(defaults func() []MetricSpec) Option {
	return func(o *options) {
		o.defaults = defaults
	}
}

// WithCollectors registers additional collectors (runtime, build info, ...)
// in the registry's backend.
func WithCollectors(cs ...prometheus.Collector) Option {
	return func(o *options) {
		o.collectors = append(o.collectors, cs...)
	}
}

// WithPid sets the pid used to name this process' shard in multiprocess
// mode. Defaults to os.Getpid().
func WithPid(pid int) Option {
	return func(o *options) {
		o.pid = pid
	}
}

// WithMultiprocessOptions passes options to the multiprocess aggregator.
func WithMultiprocessOptions(opts ...multiproc.Option) Option {
	return func(o *options) {
		o.multiprocOps = append(o.multiprocOps, opts...)
	}
}

// New builds a Registry from the default metrics followed by cfg.Metrics.
// On any error no registry is returned.
func New(cfg RegistryConfig, opts ...Option) (*Registry, error) {
	o := options{
		defaults: DefaultMetrics,
		pid:      os.Getpid(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{
		metrics: map[string]*LiveMetric{},
		group:   NewMetricsGroup(),
		log:     logger.GetLogger().WithField(logfields.LogSubsys, "metrics"),
	}

	// multiprocess storage has to be in place before the first metric
	// exists
	if cfg.MultiprocessDir != "" {
		shard, err := multiproc.NewShard(cfg.MultiprocessDir, o.pid)
		if err != nil {
			return nil, err
		}
		aggregator, err := multiproc.NewAggregator(cfg.MultiprocessDir, o.multiprocOps...)
		if err != nil {
			return nil, err
		}
		r.shard = shard
		r.aggregator = aggregator
		r.log.WithField(logfields.Dir, cfg.MultiprocessDir).Info("Multiprocess mode enabled")
	}

	var specs []MetricSpec
	if o.defaults != nil {
		specs = append(specs, o.defaults()...)
	}
	specs = append(specs, cfg.Metrics...)
	for _, spec := range specs {
		if err := r.register(spec); err != nil {
			return nil, err
		}
	}
	for _, c := range o.collectors {
		if err := r.group.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}
	r.group.Init()
	return r, nil
}

func (r *Registry) register(spec MetricSpec) error {
	if _, ok := r.metrics[spec.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateMetricName, spec.Name)
	}
	m, err := newLiveMetric(spec)
	if err != nil {
		return err
	}
	if err := r.group.Register(m); err != nil {
		return fmt.Errorf("registering metric %q: %w", spec.Name, err)
	}
	r.metrics[spec.Name] = m
	r.names = append(r.names, spec.Name)
	r.log.WithFields(logrus.Fields{
		logfields.Metric: spec.Name,
		logfields.Kind:   spec.Kind,
	}).Debug("Registered metric")
	return nil
}

// Lookup returns the metric registered under name.
func (r *Registry) Lookup(name string) (*LiveMetric, error) {
	m, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	return m, nil
}

// Increment adds value to a counter or gauge.
func (r *Registry) Increment(name string, value float64, labels Labels) error {
	m, err := r.Lookup(name)
	if err != nil {
		return err
	}
	return m.add(opIncrement, value, labels)
}

// Decrement subtracts value from a counter or gauge.
func (r *Registry) Decrement(name string, value float64, labels Labels) error {
	m, err := r.Lookup(name)
	if err != nil {
		return err
	}
	return m.add(opDecrement, -value, labels)
}

// Observe sets the value of a counter or gauge and records an observation
// in a histogram or summary.
func (r *Registry) Observe(name string, value float64, labels Labels) error {
	m, err := r.Lookup(name)
	if err != nil {
		return err
	}
	return m.observe(value, labels)
}

// SetInfo replaces the key-value pairs of an info metric.
func (r *Registry) SetInfo(name string, info map[string]string, labels Labels) error {
	m, err := r.Lookup(name)
	if err != nil {
		return err
	}
	return m.setInfo(info, labels)
}

// SetState moves an enum to state.
func (r *Registry) SetState(name string, state string, labels Labels) error {
	m, err := r.Lookup(name)
	if err != nil {
		return err
	}
	return m.setState(state, labels)
}

// Names returns the registered metric names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// ContentType is the media type of Export's output.
func (r *Registry) ContentType() string {
	return string(expfmt.NewFormat(expfmt.TypeTextPlain))
}

// Gatherer returns the gatherer Export reads from: the backend registry,
// or the shard aggregator in multiprocess mode.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r.aggregator != nil {
		return r.aggregator
	}
	return r.group
}

// Multiprocess reports whether the registry shares a multiprocess
// directory with other processes.
func (r *Registry) Multiprocess() bool {
	return r.shard != nil
}

// Flush writes this process' shard. It's a no-op outside multiprocess mode.
func (r *Registry) Flush() error {
	if r.shard == nil {
		return nil
	}
	return r.shard.Write(r.group)
}

// Export renders the current state of all metrics in the text exposition
// format. In multiprocess mode the result covers every process sharing the
// directory.
//
// Gather errors are only returned if nothing could be gathered; otherwise
// they're logged and the partial result is exported.
func (r *Registry) Export() ([]byte, error) {
	if err := r.Flush(); err != nil {
		return nil, err
	}

	families, err := r.Gatherer().Gather()
	if err != nil {
		if len(families) == 0 {
			return nil, err
		}
		r.log.WithError(err).Warn("Exporting partial metrics")
	}

	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}
	return buf.Bytes(), nil
}

// Close writes the final shard in multiprocess mode.
func (r *Registry) Close() error {
	return r.Flush()
}
