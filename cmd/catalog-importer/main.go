package main

import (
	"context"
	"flag"
	"log"
	"os"

	entrypoint "github.com/tscatalog/tscatalog/internal/platform/cmd"
	"github.com/tscatalog/tscatalog/internal/platform/config"
	"github.com/tscatalog/tscatalog/internal/tools/importer"
)

func main() {
	cfg, err := importer.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceImporter))
	ctx, stop := entrypoint.SignalContext()
	defer stop()

	err = entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceImporter, func(ctx context.Context) error {
		return importer.Run(ctx, cfg, os.Stdout)
	})
	if err != nil {
		config.Exitf("Error: %v", err)
	}
}
