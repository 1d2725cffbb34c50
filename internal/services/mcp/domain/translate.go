package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"go.opentelemetry.io/otel/attribute"
)

// TranslateInput represents the MCP tool input for a lookup.
type TranslateInput struct {
	Locale         string   `json:"locale" jsonschema:"target locale, e.g. fi or de-AT (required)"`
	Context        string   `json:"context" jsonschema:"message context name"`
	Source         string   `json:"source" jsonschema:"source text as written in the .ts file (required)"`
	Disambiguation string   `json:"disambiguation,omitempty" jsonschema:"optional disambiguation comment"`
	Args           []string `json:"args,omitempty" jsonschema:"values substituted for %1, %2, ..."`
	N              *int     `json:"n,omitempty" jsonschema:"count for numerus messages; substitutes %n and selects the plural form"`
}

// TranslateResult represents the MCP tool output for a lookup.
type TranslateResult struct {
	Locale     string `json:"locale" jsonschema:"locale that served the lookup; empty when none matched"`
	Text       string `json:"text" jsonschema:"translated text, or the source when untranslated"`
	Translated bool   `json:"translated" jsonschema:"whether a translation was served"`
}

// TranslateTool defines the MCP tool schema for translating a message.
func TranslateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ts_translate",
		Description: "Translates a message from the loaded .ts catalogs, falling back to the source text",
	}
}

// TranslateHandler executes a translation lookup.
func TranslateHandler(source BundleSource) mcp.ToolHandlerFor[TranslateInput, TranslateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TranslateInput) (*mcp.CallToolResult, TranslateResult, error) {
		_, span := startToolSpan(ctx, TranslateTool().Name)
		defer span.End()

		bundle, err := currentBundle(source)
		if err != nil {
			return nil, TranslateResult{}, err
		}
		if strings.TrimSpace(input.Source) == "" {
			return nil, TranslateResult{}, fmt.Errorf("source is required")
		}
		locale := strings.TrimSpace(input.Locale)
		if locale == "" {
			return nil, TranslateResult{}, fmt.Errorf("locale is required")
		}
		if _, err := catalog.ParseLocale(locale); err != nil {
			return nil, TranslateResult{}, fmt.Errorf("parse locale: %w", err)
		}

		args := make([]any, 0, len(input.Args))
		for _, arg := range input.Args {
			args = append(args, arg)
		}
		translator := bundle.Translator(locale)
		var text string
		if input.N != nil {
			text = translator.TranslateN(input.Context, input.Source, input.Disambiguation, *input.N, args...)
		} else {
			text = translator.Translate(input.Context, input.Source, input.Disambiguation, args...)
		}
		_, translated := translator.Lookup(input.Context, input.Source, input.Disambiguation)
		span.SetAttributes(
			attribute.String("catalog.locale", translator.Locale()),
			attribute.Bool("catalog.translated", translated),
		)

		result := TranslateResult{
			Locale:     translator.Locale(),
			Text:       text,
			Translated: translated,
		}
		return textResult("%s", text), result, nil
	}
}
