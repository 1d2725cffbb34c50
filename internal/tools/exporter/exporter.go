// Package exporter writes stored documents in an export format.
package exporter

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	entrypoint "github.com/tscatalog/tscatalog/internal/platform/cmd"
	apperrors "github.com/tscatalog/tscatalog/internal/platform/errors"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/export"
	"github.com/tscatalog/tscatalog/internal/services/catalog/storage"
	storagesqlite "github.com/tscatalog/tscatalog/internal/services/catalog/storage/sqlite"
)

// Config holds configuration for the exporter.
type Config struct {
	DBPath string `env:"DB_PATH" envDefault:"data/catalog.db"`
	// Document is the stored path of the document to export.
	Document string
	Format   string
	// Out is the output file; "-" or empty writes to standard output.
	Out string
	// List prints the stored documents instead of exporting.
	List bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "catalog database path")
	fs.StringVar(&cfg.Document, "document", "", "stored document path, e.g. app_fi.ts")
	fs.StringVar(&cfg.Format, "format", "ts", "export format: "+strings.Join(export.NewDefault().Formats(), ", "))
	fs.StringVar(&cfg.Out, "out", "-", "output path, or - for stdout")
	fs.BoolVar(&cfg.List, "list", false, "list stored documents and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if !cfg.List && strings.TrimSpace(cfg.Document) == "" {
		return Config{}, errors.New("document is required")
	}
	return cfg, nil
}

// Run exports the configured document.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}

	registry := export.NewDefault()
	if !cfg.List {
		if _, ok := registry.Get(cfg.Format); !ok {
			return apperrors.WithMetadata(apperrors.CodeUnsupportedFormat,
				fmt.Sprintf("format %q is not one of %s", cfg.Format, strings.Join(registry.Formats(), ", ")),
				map[string]string{"Format": cfg.Format})
		}
	}
	if _, err := os.Stat(cfg.DBPath); err != nil {
		return fmt.Errorf("open catalog store: %w", err)
	}
	store, err := storagesqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open catalog store: %w", err)
	}
	defer store.Close()

	if cfg.List {
		return listDocuments(ctx, store, out)
	}

	doc, _, err := store.GetDocument(ctx, cfg.Document)
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.WrapWithMetadata(apperrors.CodeDocumentNotFound,
			fmt.Sprintf("document %q is not stored", cfg.Document),
			map[string]string{"Path": cfg.Document}, err)
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.Document, err)
	}
	data, err := registry.Export(cfg.Format, doc)
	if err != nil {
		return fmt.Errorf("export %s: %w", cfg.Document, err)
	}

	if cfg.Out == "" || cfg.Out == "-" {
		_, err = out.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Out), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(cfg.Out), err)
	}
	if err := os.WriteFile(cfg.Out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Out, err)
	}
	_, err = fmt.Fprintf(out, "wrote %s\n", cfg.Out)
	return err
}

func listDocuments(ctx context.Context, store storage.DocumentStore, out io.Writer) error {
	records, err := store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	for _, record := range records {
		if _, err := fmt.Fprintf(out, "%s\t%s\t%d messages\t%d unfinished\t%s\n",
			record.Path, record.Locale, record.Messages, record.Unfinished,
			record.ImportedAt.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return nil
}
