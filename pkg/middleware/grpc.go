// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package middleware

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// gRPC calls always travel over HTTP/2.
const grpcVersion = "2"

// Method label values of gRPC calls.
const (
	Unary        = "unary"
	ClientStream = "client_stream"
	ServerStream = "server_stream"
	BidiStream   = "bidi_stream"
)

func streamType(info *grpc.StreamServerInfo) string {
	switch {
	case info.IsClientStream && info.IsServerStream:
		return BidiStream
	case info.IsClientStream:
		return ClientStream
	case info.IsServerStream:
		return ServerStream
	}
	return Unary
}

var errNotRecorded = status.Error(codes.Internal, "failed to record request metrics")

// UnaryServerInterceptor records unary calls. The path label is the full
// method name and the status label the name of the returned code.
func (m *Middleware) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		c, err := m.begin(Unary, info.FullMethod)
		if err != nil {
			m.onError(err)
			return nil, errNotRecorded
		}
		defer func() {
			if p := recover(); p != nil {
				m.end(c, codes.Internal.String(), grpcVersion)
				panic(p)
			}
			m.end(c, status.Code(err).String(), grpcVersion)
		}()
		return handler(ctx, req)
	}
}

// StreamServerInterceptor records streaming calls like
// UnaryServerInterceptor. The method label tells the stream direction.
func (m *Middleware) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		c, err := m.begin(streamType(info), info.FullMethod)
		if err != nil {
			m.onError(err)
			return errNotRecorded
		}
		defer func() {
			if p := recover(); p != nil {
				m.end(c, codes.Internal.String(), grpcVersion)
				panic(p)
			}
			m.end(c, status.Code(err).String(), grpcVersion)
		}()
		return handler(srv, ss)
	}
}
