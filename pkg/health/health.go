// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package health

import (
	"net/http"

	"go.uber.org/atomic"
	gh "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// LivenessService is the gRPC health service name probed by liveness
// checks. The empty name reports the overall server status.
const LivenessService = "liveness"

// Status is the serving status shared by the gRPC health service and the
// HTTP health handler. It starts as not serving.
type Status struct {
	serving atomic.Bool
	grpc    *gh.Server
}

func NewStatus() *Status {
	s := &Status{grpc: gh.NewServer()}
	s.SetServing(false)
	return s
}

// GRPCServer returns the grpc.health.v1.Health implementation.
func (s *Status) GRPCServer() grpc_health_v1.HealthServer {
	return s.grpc
}

func (s *Status) SetServing(serving bool) {
	s.serving.Store(serving)
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.grpc.SetServingStatus("", status)
	s.grpc.SetServingStatus(LivenessService, status)
}

func (s *Status) Serving() bool {
	return s.serving.Load()
}

// ServeHTTP answers 200 while serving and 503 otherwise.
func (s *Status) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !s.Serving() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("shutting down\n"))
		return
	}
	w.Write([]byte("ok\n"))
}
