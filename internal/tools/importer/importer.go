// Package importer loads a directory of .ts files into the document store.
package importer

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	entrypoint "github.com/tscatalog/tscatalog/internal/platform/cmd"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/check"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/ts"
	"github.com/tscatalog/tscatalog/internal/services/catalog/storage"
	storagesqlite "github.com/tscatalog/tscatalog/internal/services/catalog/storage/sqlite"
)

// Config holds configuration for the importer.
type Config struct {
	Dir    string `env:"DIR"`
	DBPath string `env:"DB_PATH" envDefault:"data/catalog.db"`
	DryRun bool
	// AllowInvalid imports files that have error findings.
	AllowInvalid bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Dir, "dir", cfg.Dir, "directory containing .ts files")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "catalog database path")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "validate without writing to the database")
	fs.BoolVar(&cfg.AllowInvalid, "allow-invalid", false, "import files that have error findings")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		return Config{}, errors.New("dir is required")
	}
	return cfg, nil
}

type parsedFile struct {
	name   string
	locale string
	doc    *ts.Document
}

// Run executes the importer using the provided Config. Every file is
// validated before any is written.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}

	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return errors.New("dir is required")
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.ts"))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no .ts files found in %s", dir)
	}
	sort.Strings(paths)

	files := make([]parsedFile, 0, len(paths))
	invalid := 0
	for _, path := range paths {
		doc, err := ts.ParseFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		findings := check.Run(doc, check.Options{})
		summary := check.Summarize(findings)
		if _, err := fmt.Fprintf(out, "%s: %d error(s), %d warning(s)\n", filepath.Base(path), summary.Errors, summary.Warnings); err != nil {
			return err
		}
		if summary.Errors > 0 {
			invalid++
			for _, finding := range check.Filter(findings, check.SeverityError) {
				if _, err := fmt.Fprintf(out, "  %s\n", finding); err != nil {
					return err
				}
			}
		}
		files = append(files, parsedFile{name: filepath.Base(path), locale: documentLocale(doc), doc: doc})
	}
	if invalid > 0 && !cfg.AllowInvalid {
		return fmt.Errorf("validate: %d file(s) have errors; use -allow-invalid to import anyway", invalid)
	}

	if cfg.DryRun {
		_, err = fmt.Fprintf(out, "validated %d file(s)\n", len(files))
		return err
	}

	store, err := storagesqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open catalog store: %w", err)
	}
	defer store.Close()

	now := time.Now().UTC()
	for _, file := range files {
		record := storage.DocumentRecord{Path: file.name, Locale: file.locale, ImportedAt: now}
		if _, err := store.SaveDocument(ctx, record, file.doc); err != nil {
			return fmt.Errorf("import %s: %w", file.name, err)
		}
	}
	_, err = fmt.Fprintf(out, "imported %d file(s) into %s\n", len(files), cfg.DBPath)
	return err
}

func documentLocale(doc *ts.Document) string {
	tag, err := catalog.ParseLocale(doc.Language)
	if err != nil {
		return ""
	}
	return tag.String()
}
