package domain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/check"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/ts"
	"go.opentelemetry.io/otel/attribute"
)

// LintInput represents the MCP tool input for checking a document. Exactly
// one of Path, Content or Catalog names the document.
type LintInput struct {
	Path          string   `json:"path,omitempty" jsonschema:"path of a .ts file inside the translation directory"`
	Content       string   `json:"content,omitempty" jsonschema:"inline .ts document to check"`
	Catalog       string   `json:"catalog,omitempty" jsonschema:"locale of a loaded catalog to check"`
	MessageLocale string   `json:"message_locale,omitempty" jsonschema:"language of finding messages (default English)"`
	Skip          []string `json:"skip,omitempty" jsonschema:"check names to disable, e.g. punctuation"`
	MinSeverity   string   `json:"min_severity,omitempty" jsonschema:"lowest severity to report: info, warning or error (default info)"`
}

// LintFinding is one reported problem.
type LintFinding struct {
	Severity       string `json:"severity" jsonschema:"info, warning or error"`
	Check          string `json:"check" jsonschema:"name of the check that fired"`
	Context        string `json:"context" jsonschema:"message context name"`
	Source         string `json:"source,omitempty" jsonschema:"source text of the message"`
	Disambiguation string `json:"disambiguation,omitempty" jsonschema:"disambiguation comment"`
	Location       string `json:"location,omitempty" jsonschema:"file:line of the message"`
	Message        string `json:"message" jsonschema:"description of the problem"`
}

// LintResult represents the MCP tool output for a check run.
type LintResult struct {
	Language string        `json:"language,omitempty" jsonschema:"language declared by the document"`
	Findings []LintFinding `json:"findings" jsonschema:"reported findings"`
	Errors   int           `json:"errors" jsonschema:"number of error findings"`
	Warnings int           `json:"warnings" jsonschema:"number of warning findings"`
	Infos    int           `json:"infos" jsonschema:"number of info findings"`
}

// LintTool defines the MCP tool schema for checking a .ts document.
func LintTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ts_lint",
		Description: "Checks a .ts document for placeholder, numerus, whitespace, punctuation, accelerator and unfinished problems",
	}
}

// LintHandler executes a check run.
func LintHandler(source BundleSource) mcp.ToolHandlerFor[LintInput, LintResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input LintInput) (*mcp.CallToolResult, LintResult, error) {
		_, span := startToolSpan(ctx, LintTool().Name)
		defer span.End()

		min := check.SeverityInfo
		if strings.TrimSpace(input.MinSeverity) != "" {
			parsed, err := check.ParseSeverity(input.MinSeverity)
			if err != nil {
				return nil, LintResult{}, err
			}
			min = parsed
		}
		doc, err := lintDocument(source, input)
		if err != nil {
			return nil, LintResult{}, err
		}

		findings := check.Filter(check.Run(doc, check.Options{Locale: input.MessageLocale, Skip: input.Skip}), min)
		summary := check.Summarize(findings)
		result := LintResult{
			Language: doc.Language,
			Findings: make([]LintFinding, 0, len(findings)),
			Errors:   summary.Errors,
			Warnings: summary.Warnings,
			Infos:    summary.Infos,
		}
		for _, f := range findings {
			result.Findings = append(result.Findings, LintFinding{
				Severity:       f.Severity.String(),
				Check:          f.Check,
				Context:        f.Context,
				Source:         f.Source,
				Disambiguation: f.Disambiguation,
				Location:       f.Location,
				Message:        f.Message,
			})
		}
		span.SetAttributes(attribute.Int("check.findings", len(findings)))
		return textResult("%d errors, %d warnings, %d infos", summary.Errors, summary.Warnings, summary.Infos), result, nil
	}
}

func lintDocument(source BundleSource, input LintInput) (*ts.Document, error) {
	path := strings.TrimSpace(input.Path)
	locale := strings.TrimSpace(input.Catalog)
	named := 0
	for _, set := range []bool{path != "", input.Content != "", locale != ""} {
		if set {
			named++
		}
	}
	if named != 1 {
		return nil, fmt.Errorf("exactly one of path, content or catalog is required")
	}

	switch {
	case path != "":
		return parseInDir(source, path)
	case input.Content != "":
		doc, err := ts.ParseBytes([]byte(input.Content))
		if err != nil {
			return nil, fmt.Errorf("parse content: %w", err)
		}
		return doc, nil
	default:
		bundle, err := currentBundle(source)
		if err != nil {
			return nil, err
		}
		c := bundle.Catalog(locale)
		if c == nil {
			return nil, fmt.Errorf("locale %s is not loaded", locale)
		}
		return c.Document(), nil
	}
}

// parseInDir parses name from the source's translation directory. Paths
// that leave the directory, including through symlinks, are rejected.
func parseInDir(source BundleSource, name string) (*ts.Document, error) {
	ds, ok := source.(DirSource)
	if !ok || strings.TrimSpace(ds.Dir()) == "" {
		return nil, fmt.Errorf("path is not available without a translation directory; use content or catalog")
	}
	dir := ds.Dir()

	rel := filepath.Clean(name)
	if filepath.IsAbs(rel) {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve translation directory: %w", err)
		}
		rel, err = filepath.Rel(absDir, rel)
		if err != nil {
			return nil, fmt.Errorf("path %s is outside the translation directory", name)
		}
	}
	if !filepath.IsLocal(rel) {
		return nil, fmt.Errorf("path %s is outside the translation directory", name)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open translation directory: %w", err)
	}
	defer root.Close()

	f, err := root.Open(rel)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	doc, err := ts.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return doc, nil
}
