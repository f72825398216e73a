// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/cilium/reqmetrics/pkg/logger"
	"github.com/cilium/reqmetrics/pkg/logger/logfields"
	"github.com/cilium/reqmetrics/pkg/metrics"
	"github.com/cilium/reqmetrics/pkg/metrics/consts"
)

// Recorder is the part of metrics.Registry the middleware depends on.
type Recorder interface {
	Lookup(name string) (*metrics.LiveMetric, error)
	Increment(name string, value float64, labels metrics.Labels) error
	Decrement(name string, value float64, labels metrics.Labels) error
	Observe(name string, value float64, labels metrics.Labels) error
	Export() ([]byte, error)
	ContentType() string
}

var _ Recorder = (*metrics.Registry)(nil)

// Config selects the requests answered with the scrape endpoint: those for
// ScrapePath received on ScrapePort.
type Config struct {
	ScrapePath string
	ScrapePort int
}

// ErrorHandler receives errors recording a request that can no longer
// change the response.
type ErrorHandler func(err error)

type Option func(*Middleware)

// WithErrorHandler replaces the default handler, which logs the error.
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Middleware) {
		m.onError = h
	}
}

// WithPathLabel sets how the path label of HTTP requests is derived. The
// default is the URL path. Use it to collapse path parameters and keep the
// label cardinality bounded.
func WithPathLabel(f func(*http.Request) string) Option {
	return func(m *Middleware) {
		m.pathLabel = f
	}
}

// WithClock replaces time.Now for latency measurements.
func WithClock(now func() time.Time) Option {
	return func(m *Middleware) {
		m.now = now
	}
}

// Middleware records request metrics in a Recorder.
type Middleware struct {
	rec       Recorder
	cfg       Config
	onError   ErrorHandler
	pathLabel func(*http.Request) string
	now       func() time.Time
	log       logrus.FieldLogger
}

// New creates a Middleware. It fails if rec lacks one of the default
// request metrics, or has it with a different kind or label names than the
// middleware records.
func New(rec Recorder, cfg Config, opts ...Option) (*Middleware, error) {
	if rec == nil {
		return nil, errors.New("middleware: nil recorder")
	}
	m := &Middleware{
		rec:       rec,
		cfg:       cfg,
		pathLabel: func(r *http.Request) string { return r.URL.Path },
		now:       time.Now,
		log:       logger.GetLogger().WithField(logfields.LogSubsys, "middleware"),
	}
	m.onError = func(err error) {
		m.log.WithError(err).Error("Failed to record request metrics")
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, want := range []struct {
		name   string
		kind   metrics.Kind
		labels []string
	}{
		{consts.RequestsTotalName, metrics.KindCounter, consts.RequestLabels},
		{consts.RequestsActiveName, metrics.KindGauge, consts.ActiveLabels},
		{consts.RequestsLatencyName, metrics.KindHistogram, consts.RequestLabels},
	} {
		lm, err := rec.Lookup(want.name)
		if err != nil {
			return nil, err
		}
		if lm.Kind() != want.kind {
			return nil, fmt.Errorf("middleware: %s is a %s, expected a %s", want.name, lm.Kind(), want.kind)
		}
		got := lm.LabelNames()
		slices.Sort(got)
		expected := slices.Clone(want.labels)
		slices.Sort(expected)
		if !slices.Equal(got, expected) {
			return nil, fmt.Errorf("middleware: %s has labels %v, expected %v", want.name, got, expected)
		}
	}
	return m, nil
}

// call is one request in flight.
type call struct {
	method string
	path   string
	start  time.Time
}

// begin marks a request as active. If it fails, the request must not be
// passed on. Invalid UTF-8 in method or path, which any client can send, is
// replaced so it can't fail the request.
func (m *Middleware) begin(method, path string) (*call, error) {
	method = strings.ToValidUTF8(method, "\uFFFD")
	path = strings.ToValidUTF8(path, "\uFFFD")
	err := m.rec.Increment(consts.RequestsActiveName, 1, metrics.Labels{
		consts.MethodLabel: method,
		consts.PathLabel:   path,
	})
	if err != nil {
		return nil, err
	}
	return &call{method: method, path: path, start: m.now()}, nil
}

// end records a finished request. Errors go to the error handler.
func (m *Middleware) end(c *call, status, version string) {
	elapsed := m.now().Sub(c.start).Seconds()
	labels := metrics.Labels{
		consts.MethodLabel:  c.method,
		consts.PathLabel:    c.path,
		consts.StatusLabel:  status,
		consts.VersionLabel: version,
	}
	err := multierr.Combine(
		m.rec.Decrement(consts.RequestsActiveName, 1, metrics.Labels{
			consts.MethodLabel: c.method,
			consts.PathLabel:   c.path,
		}),
		m.rec.Increment(consts.RequestsTotalName, 1, labels),
		m.rec.Observe(consts.RequestsLatencyName, elapsed, labels),
	)
	if err != nil {
		m.onError(err)
	}
}
