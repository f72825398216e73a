// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package multiproc lets several processes of one service expose a single
// metrics view.
//
// Every process periodically writes the text exposition of its own metrics
// to <dir>/<pid>.prom (a Shard). An Aggregator reads all shards and merges
// them: counters, histograms and summaries are summed across processes,
// gauges are kept per process with an additional "pid" label. Summary
// quantiles can't be merged and are dropped.
//
// Gauges of a process stay in the merge until MarkProcessDead removes them
// from its shard. WithProcLiveness additionally drops them as soon as
// /proc/<pid> disappears. Don't use it when writers live in other pid
// namespaces, e.g. sidecars sharing the directory through a volume: their
// pids are never visible and their gauges would always be dropped.
package multiproc
