// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	grpcmetrics "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/cilium/reqmetrics/pkg/defaults"
	"github.com/cilium/reqmetrics/pkg/health"
	"github.com/cilium/reqmetrics/pkg/logger"
	"github.com/cilium/reqmetrics/pkg/logger/logfields"
	"github.com/cilium/reqmetrics/pkg/metrics"
	"github.com/cilium/reqmetrics/pkg/middleware"
	"github.com/cilium/reqmetrics/pkg/unixlisten"
)

type Config struct {
	// ServerAddress is the application listener. Empty means only the
	// scrape port is listened on.
	ServerAddress string
	ScrapePort    int
	ScrapePath    string
	// GRPCAddress is parsed by SplitListenAddr. Empty disables gRPC.
	GRPCAddress string
	// Upstream is the URL requests are proxied to. The built-in handler
	// serving only the health path is used when empty.
	Upstream string

	// FlushInterval is the period of shard writes in multiprocess mode.
	FlushInterval   time.Duration
	ShutdownTimeout time.Duration
}

// Server exposes an instrumented application handler on HTTP and an
// instrumented gRPC health service.
type Server struct {
	cfg         Config
	registry    *metrics.Registry
	grpcMetrics *grpcmetrics.ServerMetrics
	mw          *middleware.Middleware
	health      *health.Status
	handler     http.Handler
	log         logrus.FieldLogger
}

// New creates a Server recording into registry. grpcMetrics has to be
// registered in registry already; it may be nil.
func New(registry *metrics.Registry, grpcMetrics *grpcmetrics.ServerMetrics, cfg Config, opts ...middleware.Option) (*Server, error) {
	mw, err := middleware.New(registry, middleware.Config{
		ScrapePath: cfg.ScrapePath,
		ScrapePort: cfg.ScrapePort,
	}, opts...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:         cfg,
		registry:    registry,
		grpcMetrics: grpcMetrics,
		mw:          mw,
		health:      health.NewStatus(),
		log:         logger.GetLogger().WithField(logfields.LogSubsys, "server"),
	}

	var app http.Handler
	if cfg.Upstream != "" {
		target, err := url.Parse(cfg.Upstream)
		if err != nil {
			return nil, fmt.Errorf("invalid upstream: %w", err)
		}
		proxy := httputil.NewSingleHostReverseProxy(target)
		proxy.ErrorHandler = s.proxyError
		app = proxy
	} else {
		mux := http.NewServeMux()
		mux.Handle(defaults.HealthPath, s.health)
		app = mux
	}
	s.handler = mw.Wrap(app)
	return s, nil
}

// Handler is the instrumented handler served on every HTTP listener.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Health returns the serving status of the server.
func (s *Server) Health() *health.Status {
	return s.health
}

func (s *Server) proxyError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.WithError(err).WithField(logfields.Path, r.URL.Path).Warn("Upstream request failed")
	w.WriteHeader(http.StatusBadGateway)
}

type listeners struct {
	http []net.Listener
	grpc net.Listener
}

func (l *listeners) close() {
	for _, hl := range l.http {
		hl.Close()
	}
	if l.grpc != nil {
		l.grpc.Close()
	}
}

func (s *Server) listen() (*listeners, error) {
	addrs, err := httpAddrs(s.cfg.ServerAddress, s.cfg.ScrapePort)
	if err != nil {
		return nil, err
	}

	ls := &listeners{}
	for _, addr := range addrs {
		l, err := net.Listen("tcp", addr)
		if err != nil {
			ls.close()
			return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		ls.http = append(ls.http, l)
	}

	if s.cfg.GRPCAddress != "" {
		proto, addr, err := SplitListenAddr(s.cfg.GRPCAddress)
		if err != nil {
			ls.close()
			return nil, fmt.Errorf("failed to parse listen address: %w", err)
		}
		if proto == "unix" {
			ls.grpc, err = unixlisten.ListenWithRename(addr, 0660)
		} else {
			ls.grpc, err = net.Listen(proto, addr)
		}
		if err != nil {
			ls.close()
			return nil, fmt.Errorf("failed to listen on %s: %w", s.cfg.GRPCAddress, err)
		}
	}
	return ls, nil
}

// Run listens on the configured addresses and serves until ctx is
// canceled or a listener fails, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ls, err := s.listen()
	if err != nil {
		return err
	}
	return s.serve(ctx, ls)
}

func (s *Server) newGRPCServer() *grpc.Server {
	unary := []grpc.UnaryServerInterceptor{s.mw.UnaryServerInterceptor()}
	stream := []grpc.StreamServerInterceptor{s.mw.StreamServerInterceptor()}
	if s.grpcMetrics != nil {
		unary = append(unary, s.grpcMetrics.UnaryServerInterceptor())
		stream = append(stream, s.grpcMetrics.StreamServerInterceptor())
	}
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(stream...),
	)
	grpc_health_v1.RegisterHealthServer(gs, s.health.GRPCServer())
	if s.grpcMetrics != nil {
		s.grpcMetrics.InitializeMetrics(gs)
	}
	return gs
}

func (s *Server) serve(ctx context.Context, ls *listeners) error {
	g, ctx := errgroup.WithContext(ctx)

	var httpServers []*http.Server
	for _, l := range ls.http {
		srv := &http.Server{
			Handler:           s.handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		httpServers = append(httpServers, srv)
		g.Go(func() error {
			s.log.WithField(logfields.Addr, l.Addr().String()).Info("Starting HTTP server")
			if err := srv.Serve(l); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server on %s: %w", l.Addr(), err)
			}
			return nil
		})
	}

	var grpcServer *grpc.Server
	if ls.grpc != nil {
		grpcServer = s.newGRPCServer()
		g.Go(func() error {
			s.log.WithField(logfields.Addr, ls.grpc.Addr().String()).Info("Starting gRPC server")
			if err := grpcServer.Serve(ls.grpc); err != nil {
				return fmt.Errorf("gRPC server: %w", err)
			}
			return nil
		})
	}

	if s.registry.Multiprocess() && s.cfg.FlushInterval > 0 {
		g.Go(func() error {
			s.flushLoop(ctx)
			return nil
		})
	}

	s.health.SetServing(true)

	g.Go(func() error {
		<-ctx.Done()
		s.health.SetServing(false)
		return s.shutdown(httpServers, grpcServer)
	})

	return g.Wait()
}

func (s *Server) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.registry.Flush(); err != nil {
				s.log.WithError(err).Warn("Failed to write multiprocess shard")
			}
		}
	}
}

func (s *Server) shutdown(httpServers []*http.Server, grpcServer *grpc.Server) error {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaults.ShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var err error
	for _, srv := range httpServers {
		err = multierr.Append(err, srv.Shutdown(ctx))
	}
	if grpcServer != nil {
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			grpcServer.Stop()
		}
	}
	err = multierr.Append(err, s.registry.Flush())
	s.log.Info("Server stopped")
	return err
}
