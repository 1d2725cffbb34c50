// Package export writes .ts documents in other formats.
package export

import (
	"fmt"
	"sort"

	"github.com/tscatalog/tscatalog/internal/platform/i18n/ts"
)

// Exporter renders a document in one format.
type Exporter interface {
	Format() string
	Export(doc *ts.Document) ([]byte, error)
}

// Registry looks exporters up by format name.
type Registry struct{ byFormat map[string]Exporter }

// New returns an empty registry.
func New() *Registry { return &Registry{byFormat: map[string]Exporter{}} }

// NewDefault returns a registry with every built-in format.
func NewDefault() *Registry {
	reg := New()
	reg.Register(TS{})
	reg.Register(CSV{})
	reg.Register(JSON{})
	reg.Register(YAML{})
	return reg
}

// Register adds e, replacing any exporter with the same format.
func (r *Registry) Register(e Exporter) { r.byFormat[e.Format()] = e }

// Get returns the exporter for format.
func (r *Registry) Get(format string) (Exporter, bool) {
	e, ok := r.byFormat[format]
	return e, ok
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.byFormat))
	for format := range r.byFormat {
		out = append(out, format)
	}
	sort.Strings(out)
	return out
}

// Export renders doc with the exporter registered for format.
func (r *Registry) Export(format string, doc *ts.Document) ([]byte, error) {
	e, ok := r.Get(format)
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	return e.Export(doc)
}

// TS writes the document back as a .ts file.
type TS struct{}

func (TS) Format() string { return "ts" }

func (TS) Export(doc *ts.Document) ([]byte, error) {
	return ts.Marshal(doc), nil
}
