package main

import (
	"flag"
	"log"
	"os"

	servercmd "github.com/tscatalog/tscatalog/internal/cmd/server"
	entrypoint "github.com/tscatalog/tscatalog/internal/platform/cmd"
)

func main() {
	cfg, err := servercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceServer))
	ctx, stop := entrypoint.SignalContext()
	defer stop()

	if err := servercmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
