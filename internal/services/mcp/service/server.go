package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"github.com/tscatalog/tscatalog/internal/platform/logging"
	"github.com/tscatalog/tscatalog/internal/services/mcp/domain"
	"go.uber.org/zap"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "tscatalog MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves MCP over streamable HTTP.
	TransportHTTP TransportKind = "http"
)

// defaultHTTPAddr keeps the HTTP transport on loopback unless configured.
const defaultHTTPAddr = "localhost:8081"

// Config configures the MCP server.
type Config struct {
	// Dir holds the .ts files to serve.
	Dir       string
	Catalog   catalog.Options
	Transport TransportKind
	HTTPAddr  string
	// Watch reloads translations when files in Dir change.
	Watch  bool
	Logger *zap.Logger
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	logger    *zap.Logger
}

// New creates an MCP server whose tools read from source on every call.
func New(source domain.BundleSource, logger *zap.Logger) (*Server, error) {
	if source == nil {
		return nil, fmt.Errorf("bundle source is required")
	}
	logger = logging.OrNop(logger)
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		SubscribeHandler:   resourceSubscribeHandler,
		UnsubscribeHandler: resourceUnsubscribeHandler,
	})

	for _, module := range newMCPRegistrationModules(source) {
		if err := module.register(mcpServerRegistrationAdapter{server: mcpServer}); err != nil {
			return nil, fmt.Errorf("register MCP module %q: %w", module.name, err)
		}
		logger.Debug("registered mcp module", zap.String("module", module.name), zap.Stringer("kind", module.kind))
	}
	return &Server{mcpServer: mcpServer, logger: logger}, nil
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

// NotifyReload tells subscribers that the status resource changed.
func (s *Server) NotifyReload(ctx context.Context) {
	uri := domain.StatusResource().URI
	if err := s.mcpServer.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: uri}); err != nil {
		s.logger.Warn("mcp resource updated notify failed", zap.String("uri", uri), zap.Error(err))
	}
}

// resourceSubscribeHandler accepts resource subscriptions with a valid URI.
func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// resourceUnsubscribeHandler accepts resource unsubscriptions with a valid URI.
func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}
