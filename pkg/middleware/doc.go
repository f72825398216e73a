// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package middleware records the default request metrics of a
// metrics.Registry for every request it sees and serves the registry's
// scrape endpoint.
//
// The same Middleware instruments net/http handlers (Wrap) and gRPC servers
// (UnaryServerInterceptor, StreamServerInterceptor). For every call it
// increments http_requests_active before the handler runs and, once the
// handler returns or panics, decrements it, increments http_requests_total
// and observes the duration in http_requests_latency.
package middleware
