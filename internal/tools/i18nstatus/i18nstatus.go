// Package i18nstatus renders translator-friendly completion reports.
package i18nstatus

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	entrypoint "github.com/tscatalog/tscatalog/internal/platform/cmd"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/status"
)

// stdoutPath selects standard output instead of a file.
const stdoutPath = "-"

// Config holds configuration for the status report.
type Config struct {
	// Dir holds the .ts files to report on; empty reports the embedded
	// tool catalogs.
	Dir               string `env:"DIR"`
	IncludeUnfinished bool   `env:"INCLUDE_UNFINISHED"`
	MarkdownOut       string
	JSONOut           string
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Dir, "dir", cfg.Dir, "directory of .ts files (default: embedded tool catalogs)")
	fs.BoolVar(&cfg.IncludeUnfinished, "include-unfinished", cfg.IncludeUnfinished, "count non-empty unfinished translations as served")
	fs.StringVar(&cfg.MarkdownOut, "out", "docs/reference/i18n-status.md", "markdown output path, or - for stdout")
	fs.StringVar(&cfg.JSONOut, "json-out", "docs/reference/i18n-status.json", "json output path, or - for stdout; empty skips")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.MarkdownOut) == "" && strings.TrimSpace(cfg.JSONOut) == "" {
		return Config{}, errors.New("one of -out or -json-out is required")
	}
	return cfg, nil
}

// Run builds the report and writes the configured outputs.
func Run(_ context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	bundle, err := loadBundle(cfg)
	if err != nil {
		return fmt.Errorf("load i18n catalogs: %w", err)
	}
	rep := status.Build(bundle)

	var written []string
	if path := strings.TrimSpace(cfg.JSONOut); path != "" {
		var buf bytes.Buffer
		if err := status.WriteJSON(&buf, rep); err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		if err := writeOutput(path, buf.Bytes(), out); err != nil {
			return fmt.Errorf("write json report: %w", err)
		}
		written = append(written, path)
	}
	if path := strings.TrimSpace(cfg.MarkdownOut); path != "" {
		if err := writeOutput(path, []byte(status.Markdown(rep)), out); err != nil {
			return fmt.Errorf("write markdown report: %w", err)
		}
		written = append(written, path)
	}

	var files []string
	for _, path := range written {
		if path != stdoutPath {
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		return nil
	}
	_, err = fmt.Fprintf(out, "wrote %s\n", strings.Join(files, " and "))
	return err
}

func loadBundle(cfg Config) (*catalog.Bundle, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return catalog.LoadEmbedded()
	}
	return catalog.LoadDir(cfg.Dir, catalog.Options{IncludeUnfinished: cfg.IncludeUnfinished})
}

func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == stdoutPath {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
