// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeServerStream) Context() context.Context {
	return s.ctx
}

func TestUnaryServerInterceptor(t *testing.T) {
	reg := newRegistry(t)
	mw, err := New(reg, Config{ScrapePath: "/metrics", ScrapePort: 9090})
	require.NoError(t, err)
	interceptor := mw.UnaryServerInterceptor()

	info := &grpc.UnaryServerInfo{FullMethod: "/inventory.v1.Items/Get"}
	resp, err := interceptor(context.Background(), "req", info, func(_ context.Context, req any) (any, error) {
		return req.(string) + "-resp", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req-resp", resp)
	checkRecorded(t, reg, requestLabels(Unary, "/inventory.v1.Items/Get", "OK", "2"))

	info = &grpc.UnaryServerInfo{FullMethod: "/inventory.v1.Items/Delete"}
	_, err = interceptor(context.Background(), "req", info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.NotFound, "no such item")
	})
	assert.Equal(t, codes.NotFound, status.Code(err))
	checkRecorded(t, reg, requestLabels(Unary, "/inventory.v1.Items/Delete", "NotFound", "2"))
}

func TestUnaryServerInterceptorPanic(t *testing.T) {
	reg := newRegistry(t)
	mw, err := New(reg, Config{ScrapePath: "/metrics", ScrapePort: 9090})
	require.NoError(t, err)
	interceptor := mw.UnaryServerInterceptor()

	info := &grpc.UnaryServerInfo{FullMethod: "/inventory.v1.Items/Get"}
	assert.PanicsWithValue(t, "boom", func() {
		interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
			panic("boom")
		})
	})
	checkRecorded(t, reg, requestLabels(Unary, "/inventory.v1.Items/Get", "Internal", "2"))
}

func TestStreamServerInterceptor(t *testing.T) {
	tests := []struct {
		client, server bool
		method         string
	}{
		{true, true, BidiStream},
		{true, false, ClientStream},
		{false, true, ServerStream},
	}
	for _, tc := range tests {
		t.Run(tc.method, func(t *testing.T) {
			reg := newRegistry(t)
			mw, err := New(reg, Config{ScrapePath: "/metrics", ScrapePort: 9090})
			require.NoError(t, err)

			info := &grpc.StreamServerInfo{
				FullMethod:     "/inventory.v1.Items/Watch",
				IsClientStream: tc.client,
				IsServerStream: tc.server,
			}
			stream := &fakeServerStream{ctx: context.Background()}
			err = mw.StreamServerInterceptor()(nil, stream, info, func(_ any, ss grpc.ServerStream) error {
				assert.Same(t, stream, ss)
				return status.Error(codes.Unavailable, "draining")
			})
			assert.Equal(t, codes.Unavailable, status.Code(err))
			checkRecorded(t, reg, requestLabels(tc.method, "/inventory.v1.Items/Watch", "Unavailable", "2"))
		})
	}
}

func TestGrpcBeginFailure(t *testing.T) {
	rec := &failingRecorder{Registry: newRegistry(t), failIncrementActive: true}
	mw, err := New(rec, Config{}, WithErrorHandler(func(error) {}))
	require.NoError(t, err)

	called := false
	_, err = mw.UnaryServerInterceptor()(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/a.B/C"},
		func(context.Context, any) (any, error) {
			called = true
			return nil, nil
		})
	assert.False(t, called)
	assert.Equal(t, codes.Internal, status.Code(err))

	err = mw.StreamServerInterceptor()(nil, &fakeServerStream{ctx: context.Background()}, &grpc.StreamServerInfo{FullMethod: "/a.B/D"},
		func(any, grpc.ServerStream) error {
			called = true
			return nil
		})
	assert.False(t, called)
	assert.Equal(t, codes.Internal, status.Code(err))
}
