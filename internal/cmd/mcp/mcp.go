// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"

	entrypoint "github.com/tscatalog/tscatalog/internal/platform/cmd"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"github.com/tscatalog/tscatalog/internal/platform/logging"
	"github.com/tscatalog/tscatalog/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	Dir               string `env:"DIR"                envDefault:"translations"`
	HTTPAddr          string `env:"MCP_HTTP_ADDR"      envDefault:"localhost:8081"`
	Transport         string `env:"MCP_TRANSPORT"      envDefault:"stdio"`
	Watch             bool   `env:"WATCH"              envDefault:"true"`
	IncludeUnfinished bool   `env:"INCLUDE_UNFINISHED"`
	LogLevel          string `env:"LOG_LEVEL"          envDefault:"warn"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Dir, "dir", cfg.Dir, "directory of .ts files")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.BoolVar(&cfg.Watch, "watch", cfg.Watch, "reload translations when files change")
	fs.BoolVar(&cfg.IncludeUnfinished, "include-unfinished", cfg.IncludeUnfinished, "serve non-empty unfinished translations")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter. The zap production logger writes to
// stderr, leaving stdout to the stdio transport.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		return service.Run(ctx, service.Config{
			Dir:       cfg.Dir,
			Catalog:   catalog.Options{IncludeUnfinished: cfg.IncludeUnfinished},
			Transport: service.TransportKind(cfg.Transport),
			HTTPAddr:  cfg.HTTPAddr,
			Watch:     cfg.Watch,
			Logger:    logger,
		})
	})
}
