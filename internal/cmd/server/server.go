// Package server parses translation server flags and starts the runtime.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	entrypoint "github.com/tscatalog/tscatalog/internal/platform/cmd"
	platformgrpc "github.com/tscatalog/tscatalog/internal/platform/grpc"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"github.com/tscatalog/tscatalog/internal/platform/logging"
	"github.com/tscatalog/tscatalog/internal/platform/timeouts"
	"github.com/tscatalog/tscatalog/internal/services/catalog/app"
)

// Config holds translation server command configuration.
type Config struct {
	HTTPAddr          string `env:"HTTP_ADDR"          envDefault:"localhost:8080"`
	GRPCAddr          string `env:"GRPC_ADDR"`
	Dir               string `env:"DIR"                envDefault:"translations"`
	Watch             bool   `env:"WATCH"              envDefault:"true"`
	IncludeUnfinished bool   `env:"INCLUDE_UNFINISHED"`
	LogLevel          string `env:"LOG_LEVEL"          envDefault:"info"`

	// HealthCheck probes a running server's gRPC health endpoint and exits.
	HealthCheck bool

	// HealthWait keeps probing until SERVING for up to this long. Zero
	// probes once.
	HealthWait time.Duration `env:"HEALTH_WAIT"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "gRPC health listen address (disabled when empty)")
	fs.StringVar(&cfg.Dir, "dir", cfg.Dir, "directory of .ts files")
	fs.BoolVar(&cfg.Watch, "watch", cfg.Watch, "reload translations when files change")
	fs.BoolVar(&cfg.IncludeUnfinished, "include-unfinished", cfg.IncludeUnfinished, "serve non-empty unfinished translations")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.BoolVar(&cfg.HealthCheck, "health-check", false, "probe the gRPC health endpoint at -grpc-addr and exit")
	fs.DurationVar(&cfg.HealthWait, "health-wait", cfg.HealthWait, "with -health-check, wait up to this long for SERVING")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the translation server, or probes one when HealthCheck is set.
func Run(ctx context.Context, cfg Config) error {
	if cfg.HealthCheck {
		return HealthCheck(ctx, cfg.GRPCAddr, cfg.HealthWait)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		return app.Run(ctx, app.Config{
			HTTPAddr: cfg.HTTPAddr,
			GRPCAddr: cfg.GRPCAddr,
			Dir:      cfg.Dir,
			Catalog:  catalog.Options{IncludeUnfinished: cfg.IncludeUnfinished},
			Watch:    cfg.Watch,
			Logger:   logger,
		})
	})
}

// HealthCheck probes the server's gRPC health endpoint at addr. A positive
// wait polls until the server reports SERVING or wait elapses.
func HealthCheck(ctx context.Context, addr string, wait time.Duration) error {
	if addr == "" {
		return errors.New("health check requires -grpc-addr")
	}
	var err error
	if wait > 0 {
		err = platformgrpc.AwaitServing(ctx, addr, app.HealthService, wait, log.Printf)
	} else {
		err = platformgrpc.Probe(ctx, addr, app.HealthService, timeouts.HealthProbe)
	}
	if err != nil {
		return fmt.Errorf("health check %s: %w", addr, err)
	}
	return nil
}
