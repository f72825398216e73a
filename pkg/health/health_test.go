// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func TestStatus(t *testing.T) {
	s := NewStatus()
	ctx := context.Background()

	check := func(service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
		resp, err := s.GRPCServer().Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
		require.NoError(t, err)
		return resp.GetStatus()
	}
	get := func() int {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		return rec.Code
	}

	assert.False(t, s.Serving())
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, check(""))
	assert.Equal(t, http.StatusServiceUnavailable, get())

	s.SetServing(true)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, check(""))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, check(LivenessService))
	assert.Equal(t, http.StatusOK, get())

	s.SetServing(false)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, check(LivenessService))
	assert.Equal(t, http.StatusServiceUnavailable, get())
}
