// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// The metrics package provides a registry of named metrics (wrappers around
// [prometheus Go library](https://pkg.go.dev/github.com/prometheus/client_golang/prometheus))
// that are declared once at startup and then mutated by name.
//
// The package is designed to support the following functionality:
//   - Declare metrics from configuration (`MetricSpec`), so services can add
//     their own metrics next to the request metrics without code changes.
//   - Dispatch mutations by metric name and reject operations the metric kind
//     does not support (e.g. observing an info metric).
//   - Check label sets against the declared schema on every mutation, and
//     report exactly which labels are missing or unexpected.
//   - Support counters that can be decremented and set, plus info and enum
//     metrics, through custom collectors.
//   - Initialize unlabeled metrics on startup, so they are exported before
//     their first mutation.
//   - Aggregate metrics of several processes serving the same application
//     (multiprocess mode, see the multiproc package).
//
// `Registry` owns the metrics. It is built by `New` from the default request
// metrics (`DefaultMetrics`) followed by the configured ones, and is
// immutable afterwards, so it needs no lock of its own.
//
// `LiveMetric` is a registered metric: its spec and the collector backing it.
// Counters, info and enums are custom collectors storing values in atomics
// (`seriesVec`); gauges, histograms and summaries use the prometheus vectors.
//
// `Group` is a wrapper around `prometheus.Registry` that additionally runs
// the Init functions of the registered collectors.
package metrics
