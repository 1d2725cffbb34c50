package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"github.com/tscatalog/tscatalog/internal/platform/logging"
	"github.com/tscatalog/tscatalog/internal/platform/timeouts"
	"github.com/tscatalog/tscatalog/internal/services/catalog/watch"
	"go.uber.org/zap"
)

// Run is the service entrypoint for MCP and blocks until context
// cancellation.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	if cfg.Transport != TransportStdio && cfg.Transport != TransportHTTP {
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
	logger := logging.OrNop(cfg.Logger)

	reloader, err := watch.New(cfg.Dir, watch.Options{Catalog: cfg.Catalog, Logger: logger})
	if err != nil {
		return err
	}
	server, err := New(reloader, logger)
	if err != nil {
		return err
	}
	if cfg.Watch {
		reloader.OnReload(func(_ *catalog.Bundle, err error) {
			if err == nil {
				server.NotifyReload(ctx)
			}
		})
		if err := reloader.Start(ctx); err != nil {
			return err
		}
		defer reloader.Stop()
	}

	switch cfg.Transport {
	case TransportHTTP:
		return serveHTTP(ctx, server, cfg.HTTPAddr)
	default:
		return serveWithTransport(ctx, server, &mcp.StdioTransport{})
	}
}

// serveWithTransport runs the server on transport until the context ends or
// the client disconnects.
func serveWithTransport(ctx context.Context, server *Server, transport mcp.Transport) error {
	err := server.mcpServer.Run(ctx, transport)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// serveHTTP serves the streamable HTTP transport on addr until the context
// ends.
func serveHTTP(ctx context.Context, server *Server, addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = defaultHTTPAddr
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return serveHTTPListener(ctx, server, listener)
}

func serveHTTPListener(ctx context.Context, server *Server, listener net.Listener) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server.mcpServer
	}, nil)
	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()
	server.logger.Info("mcp listening", zap.String("addr", listener.Addr().String()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown mcp http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve mcp http: %w", err)
	}
}
