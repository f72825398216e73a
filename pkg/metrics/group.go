// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// initializer is implemented by collectors that need to create series
// before the first mutation.
type initializer interface {
	Init()
}

// CollectorWithInit extends prometheus.Collector with initializer.
type CollectorWithInit interface {
	prometheus.Collector
	initializer
}

// Group extends prometheus.Registerer and prometheus.Gatherer with
// CollectorWithInit. It's the backend of a Registry.
type Group interface {
	prometheus.Registerer
	prometheus.Gatherer
	CollectorWithInit
	ExtendInit(func())
}

// metricsGroup wraps prometheus.Registry and implements Group
type metricsGroup struct {
	registry *prometheus.Registry
	initFunc func()
}

// NewMetricsGroup creates a new Group.
//
// The underlying registry is not pedantic: info metrics are unchecked
// collectors.
func NewMetricsGroup() Group {
	return &metricsGroup{
		registry: prometheus.NewRegistry(),
		initFunc: func() {},
	}
}

// Describe implements Group (prometheus.Collector).
func (r *metricsGroup) Describe(ch chan<- *prometheus.Desc) {
	r.registry.Describe(ch)
}

// Collect implements Group (prometheus.Collector).
func (r *metricsGroup) Collect(ch chan<- prometheus.Metric) {
	r.registry.Collect(ch)
}

// Gather implements Group (prometheus.Gatherer).
func (r *metricsGroup) Gather() ([]*dto.MetricFamily, error) {
	return r.registry.Gather()
}

// Register implements Group (prometheus.Registerer).
//
// It wraps the Register method of the underlying registry. Additionally, if
// the collector implements initializer, the group's Init is extended with
// the collector's Init.
func (r *metricsGroup) Register(c prometheus.Collector) error {
	err := r.registry.Register(c)
	if err != nil {
		return err
	}
	if cc, ok := c.(initializer); ok {
		r.ExtendInit(cc.Init)
	}
	return nil
}

// MustRegister implements Group (prometheus.Registerer).
func (r *metricsGroup) MustRegister(cs ...prometheus.Collector) {
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

// Unregister implements Group (prometheus.Registerer).
func (r *metricsGroup) Unregister(c prometheus.Collector) bool {
	return r.registry.Unregister(c)
}

// Init implements Group (initializer).
func (r *metricsGroup) Init() {
	if r.initFunc != nil {
		r.initFunc()
	}
}

// ExtendInit extends the metricsGroup Init method.
//
// Collectors implementing CollectorWithInit are added on Register, so this
// is only needed for collectors that don't.
func (r *metricsGroup) ExtendInit(init func()) {
	if init == nil {
		return
	}
	if r.initFunc == nil {
		r.initFunc = init
		return
	}
	oldInit := r.initFunc
	r.initFunc = func() {
		oldInit()
		init()
	}
}
