// Package lint checks .ts files and reports findings for CI.
package lint

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	entrypoint "github.com/tscatalog/tscatalog/internal/platform/cmd"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/check"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/ts"
)

// ErrFindings reports that blocking findings were found.
var ErrFindings = errors.New("lint found blocking problems")

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds lint configuration.
type Config struct {
	// Locale selects the language of finding messages.
	Locale      string `env:"LINT_LOCALE"`
	Skip        string `env:"LINT_SKIP"`
	MinSeverity string
	Format      string
	// Strict fails on warnings as well as errors.
	Strict bool
	Paths  []string
}

// ParseConfig parses environment and flags into a Config. Positional
// arguments are files or directories.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "language of finding messages")
	fs.StringVar(&cfg.Skip, "skip", cfg.Skip, "comma-separated checks to disable")
	fs.StringVar(&cfg.MinSeverity, "min-severity", check.SeverityInfo.String(), "lowest severity to report: info, warning or error")
	fs.StringVar(&cfg.Format, "format", FormatText, "output format: text or json")
	fs.BoolVar(&cfg.Strict, "strict", false, "fail on warnings too")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Paths = fs.Args()
	if len(cfg.Paths) == 0 {
		return Config{}, errors.New("at least one .ts file or directory is required")
	}
	if cfg.Format != FormatText && cfg.Format != FormatJSON {
		return Config{}, fmt.Errorf("unsupported format %q", cfg.Format)
	}
	if _, err := check.ParseSeverity(cfg.MinSeverity); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FileResult is the outcome of checking one file.
type FileResult struct {
	Path     string          `json:"path"`
	Language string          `json:"language,omitempty"`
	Error    string          `json:"error,omitempty"`
	Findings []check.Finding `json:"findings"`
	Summary  check.Summary   `json:"summary"`
}

// Report is the outcome of a lint run.
type Report struct {
	Files   []FileResult  `json:"files"`
	Summary check.Summary `json:"summary"`
}

// Run checks every configured file, writes the report to out and returns
// ErrFindings when the run should fail.
func Run(_ context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	min := check.SeverityInfo
	if strings.TrimSpace(cfg.MinSeverity) != "" {
		parsed, err := check.ParseSeverity(cfg.MinSeverity)
		if err != nil {
			return err
		}
		min = parsed
	}
	paths, err := expandPaths(cfg.Paths)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no .ts files found")
	}

	opts := check.Options{Locale: cfg.Locale, Skip: splitList(cfg.Skip)}
	rep := Report{Files: make([]FileResult, 0, len(paths))}
	failed := false
	for _, path := range paths {
		result := lintFile(path, opts)
		if result.Error == "" && blocking(result.Findings, cfg.Strict) {
			failed = true
		}
		if result.Error != "" {
			failed = true
		}
		result.Findings = check.Filter(result.Findings, min)
		result.Summary = check.Summarize(result.Findings)
		rep.Summary.Errors += result.Summary.Errors
		rep.Summary.Warnings += result.Summary.Warnings
		rep.Summary.Infos += result.Summary.Infos
		rep.Files = append(rep.Files, result)
	}

	switch cfg.Format {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	default:
		if err := writeText(out, rep, cfg.Locale); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if failed {
		return ErrFindings
	}
	return nil
}

func lintFile(path string, opts check.Options) FileResult {
	result := FileResult{Path: path, Findings: []check.Finding{}}
	doc, err := ts.ParseFile(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Language = doc.Language
	result.Findings = check.Run(doc, opts)
	return result
}

func blocking(findings []check.Finding, strict bool) bool {
	summary := check.Summarize(findings)
	if strict {
		return summary.Errors > 0 || summary.Warnings > 0
	}
	return summary.Errors > 0
}

func writeText(out io.Writer, rep Report, locale string) error {
	tr := catalog.Default().Translator(locale)
	for _, file := range rep.Files {
		if file.Error != "" {
			if _, err := fmt.Fprintf(out, "%s: %s\n", file.Path, file.Error); err != nil {
				return err
			}
			continue
		}
		for _, finding := range file.Findings {
			if _, err := fmt.Fprintln(out, finding.String()); err != nil {
				return err
			}
		}
		line := tr.TranslateN("Lint", "%n finding(s) in %1", "", len(file.Findings), file.Path)
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

// expandPaths replaces directories with the .ts files they contain.
func expandPaths(paths []string) ([]string, error) {
	var out []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, path)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(path, "*.ts"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
