package main

import (
	"context"
	"flag"
	"log"
	"os"

	entrypoint "github.com/tscatalog/tscatalog/internal/platform/cmd"
	"github.com/tscatalog/tscatalog/internal/platform/config"
	"github.com/tscatalog/tscatalog/internal/tools/exporter"
)

func main() {
	cfg, err := exporter.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceExporter))

	err = entrypoint.RunWithTelemetry(context.Background(), entrypoint.ServiceExporter, func(ctx context.Context) error {
		return exporter.Run(ctx, cfg, os.Stdout)
	})
	if err != nil {
		config.Exitf("Error: %v", err)
	}
}
