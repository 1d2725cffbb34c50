// Package app serves translations over HTTP with a gRPC health endpoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"github.com/tscatalog/tscatalog/internal/platform/logging"
	"github.com/tscatalog/tscatalog/internal/platform/timeouts"
	"github.com/tscatalog/tscatalog/internal/services/catalog/watch"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the gRPC health service name reported by the server.
const HealthService = "tscatalog.Catalog"

// Config defines the inputs for the translation server.
type Config struct {
	HTTPAddr string
	// GRPCAddr enables the gRPC health endpoint when set.
	GRPCAddr string
	Dir      string
	Catalog  catalog.Options
	// Watch reloads translations when files in Dir change.
	Watch  bool
	Logger *zap.Logger

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the translation HTTP API and optional gRPC health endpoint.
type Server struct {
	logger          *zap.Logger
	shutdownTimeout time.Duration
	watch           bool

	reloader     *watch.Reloader
	httpListener net.Listener
	httpServer   *http.Server
	grpcListener net.Listener
	grpcServer   *grpc.Server
	health       *health.Server
}

// NewServer loads the translations and binds the listeners.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}
	logger := logging.OrNop(config.Logger)

	reloader, err := watch.New(config.Dir, watch.Options{Catalog: config.Catalog, Logger: logger})
	if err != nil {
		return nil, err
	}

	s := &Server{
		logger:          logger,
		shutdownTimeout: config.ShutdownTimeout,
		watch:           config.Watch,
		reloader:        reloader,
	}

	s.httpListener, err = net.Listen("tcp", httpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", httpAddr, err)
	}
	s.httpServer = &http.Server{
		Handler:           NewHandler(reloader, logger),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	if grpcAddr := strings.TrimSpace(config.GRPCAddr); grpcAddr != "" {
		s.grpcListener, err = net.Listen("tcp", grpcAddr)
		if err != nil {
			_ = s.httpListener.Close()
			return nil, fmt.Errorf("listen on %s: %w", grpcAddr, err)
		}
		s.grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
		s.health = health.NewServer()
		grpc_health_v1.RegisterHealthServer(s.grpcServer, s.health)
		s.setServing(reloader.Bundle())
		reloader.OnReload(func(bundle *catalog.Bundle, _ error) {
			s.setServing(bundle)
		})
	}
	return s, nil
}

func (s *Server) setServing(bundle *catalog.Bundle) {
	if s.health == nil {
		return
	}
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if bundle != nil && len(bundle.Locales()) > 0 {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(HealthService, status)
}

// Addr returns the HTTP listener address.
func (s *Server) Addr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// GRPCAddr returns the gRPC listener address, or "" when disabled.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// Reloader returns the reloader feeding the server.
func (s *Server) Reloader() *watch.Reloader {
	return s.reloader
}

// Run creates and serves a translation server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init translation server: %w", err)
	}
	defer server.Close()

	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("serve translations: %w", err)
	}
	return nil
}

// Serve runs the servers until the context ends, then shuts them down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("translation server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	if s.watch {
		if err := s.reloader.Start(ctx); err != nil {
			return err
		}
		defer s.reloader.Stop()
	}

	serveErr := make(chan error, 2)
	s.logger.Info("translation server listening",
		zap.String("http", s.Addr()),
		zap.String("grpc", s.GRPCAddr()),
		zap.Strings("locales", s.reloader.Bundle().Locales()),
	)
	go func() {
		err := s.httpServer.Serve(s.httpListener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serveErr <- err
	}()
	if s.grpcServer != nil {
		go func() {
			err := s.grpcServer.Serve(s.grpcListener)
			if errors.Is(err, grpc.ErrServerStopped) {
				err = nil
			}
			serveErr <- err
		}()
	}

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-serveErr:
		_ = s.shutdown()
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}

func (s *Server) shutdown() error {
	if s.health != nil {
		s.health.Shutdown()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
	if err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.reloader != nil {
		s.reloader.Stop()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	if s.grpcListener != nil {
		_ = s.grpcListener.Close()
	}
}
