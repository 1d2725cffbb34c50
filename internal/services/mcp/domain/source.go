package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"github.com/tscatalog/tscatalog/internal/platform/otel"
	"go.opentelemetry.io/otel/trace"
)

// BundleSource supplies the bundle tools operate on.
type BundleSource interface {
	Bundle() *catalog.Bundle
}

// DirSource is a BundleSource loaded from a translation directory. File
// paths given to tools resolve inside that directory.
type DirSource interface {
	BundleSource
	Dir() string
}

func currentBundle(source BundleSource) (*catalog.Bundle, error) {
	if source == nil {
		return nil, fmt.Errorf("bundle source is not configured")
	}
	bundle := source.Bundle()
	if bundle == nil {
		return nil, fmt.Errorf("no translations are loaded")
	}
	return bundle, nil
}

func startToolSpan(ctx context.Context, tool string) (context.Context, trace.Span) {
	return otel.Tracer().Start(ctx, "mcp."+tool)
}

// textResult wraps a human-readable summary; the SDK adds the structured
// output alongside it.
func textResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
	}
}
