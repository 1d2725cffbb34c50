package main

import (
	"context"
	"flag"
	"log"
	"os"

	entrypoint "github.com/tscatalog/tscatalog/internal/platform/cmd"
	"github.com/tscatalog/tscatalog/internal/platform/config"
	"github.com/tscatalog/tscatalog/internal/tools/i18nstatus"
)

func main() {
	cfg, err := i18nstatus.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceStatus))

	if err := i18nstatus.Run(context.Background(), cfg, os.Stdout); err != nil {
		config.Exitf("Error: %v", err)
	}
}
