package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/status"
	"github.com/tscatalog/tscatalog/internal/services/shared/i18nhttp"
)

// StatusInput represents the MCP tool input for a completion report.
type StatusInput struct {
	Locale string `json:"locale,omitempty" jsonschema:"restrict the report to one loaded locale"`
}

// StatusLocale is the completion of one locale.
type StatusLocale struct {
	Locale       string   `json:"locale" jsonschema:"locale identifier"`
	Path         string   `json:"path,omitempty" jsonschema:"file the locale was loaded from"`
	Total        int      `json:"total" jsonschema:"messages in the document"`
	Finished     int      `json:"finished" jsonschema:"finished messages"`
	Unfinished   int      `json:"unfinished" jsonschema:"unfinished messages"`
	Invalid      int      `json:"invalid" jsonschema:"messages not served because of errors"`
	Obsolete     int      `json:"obsolete" jsonschema:"vanished or obsolete messages"`
	Served       int      `json:"served" jsonschema:"messages that translate"`
	Completion   float64  `json:"completion" jsonschema:"served share of live messages in percent"`
	Untranslated []string `json:"untranslated,omitempty" jsonschema:"live messages that fall back to the source"`
}

// StatusResult represents the MCP tool output for a completion report.
type StatusResult struct {
	Locales  []StatusLocale `json:"locales" jsonschema:"per-locale completion"`
	Markdown string         `json:"markdown" jsonschema:"the report as a Markdown table"`
}

// StatusTool defines the MCP tool schema for the completion report.
func StatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ts_status",
		Description: "Reports translation completion per loaded locale",
	}
}

// StatusHandler builds a completion report.
func StatusHandler(source BundleSource) mcp.ToolHandlerFor[StatusInput, StatusResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StatusInput) (*mcp.CallToolResult, StatusResult, error) {
		_, span := startToolSpan(ctx, StatusTool().Name)
		defer span.End()

		rep, err := statusReport(source, input.Locale)
		if err != nil {
			return nil, StatusResult{}, err
		}
		result := StatusResult{
			Locales:  make([]StatusLocale, 0, len(rep.Locales)),
			Markdown: status.Markdown(rep),
		}
		for _, l := range rep.Locales {
			result.Locales = append(result.Locales, StatusLocale{
				Locale:       l.Locale,
				Path:         l.Path,
				Total:        l.Total,
				Finished:     l.Finished,
				Unfinished:   l.Unfinished,
				Invalid:      l.Invalid,
				Obsolete:     l.Obsolete,
				Served:       l.Served,
				Completion:   l.Completion,
				Untranslated: l.Untranslated,
			})
		}
		return textResult("%s", result.Markdown), result, nil
	}
}

func statusReport(source BundleSource, locale string) (status.Report, error) {
	bundle, err := currentBundle(source)
	if err != nil {
		return status.Report{}, err
	}
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return status.Build(bundle), nil
	}
	c := bundle.Catalog(locale)
	if c == nil {
		return status.Report{}, fmt.Errorf("locale %s is not loaded", locale)
	}
	return status.Report{Locales: []status.LocaleStatus{status.ForCatalog(c.Locale(), bundle.Path(locale), c)}}, nil
}

// StatusResource defines the MCP resource holding the completion report.
func StatusResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "catalog_status",
		Title:       "Translation Status",
		Description: "Readable completion report for every loaded locale",
		MIMEType:    "application/json",
		URI:         "catalog://status",
	}
}

// StatusResourceHandler returns the completion report as JSON.
func StatusResourceHandler(source BundleSource) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := StatusResource().URI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}
		if uri != StatusResource().URI {
			return nil, fmt.Errorf("invalid URI: expected %s, got %q", StatusResource().URI, uri)
		}
		rep, err := statusReport(source, "")
		if err != nil {
			return nil, err
		}
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal status: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}

// LocalesInput represents the MCP tool input for listing locales.
type LocalesInput struct {
	Active string `json:"active,omitempty" jsonschema:"locale to mark as active"`
}

// LocalesResult represents the MCP tool output for listing locales.
type LocalesResult struct {
	Source  string                    `json:"source" jsonschema:"language of the source texts"`
	Locales []i18nhttp.LanguageOption `json:"locales" jsonschema:"loaded locales with their self-names"`
}

// LocalesTool defines the MCP tool schema for listing loaded locales.
func LocalesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ts_locales",
		Description: "Lists the loaded translation locales",
	}
}

// LocalesHandler lists the loaded locales.
func LocalesHandler(source BundleSource) mcp.ToolHandlerFor[LocalesInput, LocalesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input LocalesInput) (*mcp.CallToolResult, LocalesResult, error) {
		_, span := startToolSpan(ctx, LocalesTool().Name)
		defer span.End()

		bundle, err := currentBundle(source)
		if err != nil {
			return nil, LocalesResult{}, err
		}
		locales := bundle.Locales()
		result := LocalesResult{
			Source:  catalog.SourceLocale,
			Locales: i18nhttp.BuildLanguageOptions(locales, strings.TrimSpace(input.Active)),
		}
		return textResult("%s", strings.Join(locales, ", ")), result, nil
	}
}
