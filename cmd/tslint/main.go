package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	entrypoint "github.com/tscatalog/tscatalog/internal/platform/cmd"
	"github.com/tscatalog/tscatalog/internal/platform/config"
	"github.com/tscatalog/tscatalog/internal/tools/lint"
)

func main() {
	cfg, err := lint.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceLint))

	if err := lint.Run(context.Background(), cfg, os.Stdout); err != nil {
		if errors.Is(err, lint.ErrFindings) {
			os.Exit(1)
		}
		config.Exitf("Error: %v", err)
	}
}
