// Package status summarizes how complete the translations of a bundle are.
package status

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/ts"
)

// Report is the completion status of every locale in a bundle.
type Report struct {
	Locales []LocaleStatus `json:"locales"`
}

// Counts tallies entries by state. Obsolete covers vanished and obsolete
// entries, which do not count toward completion.
type Counts struct {
	Total      int     `json:"total"`
	Finished   int     `json:"finished"`
	Unfinished int     `json:"unfinished"`
	Invalid    int     `json:"invalid"`
	Obsolete   int     `json:"obsolete"`
	Served     int     `json:"served"`
	Completion float64 `json:"completion"`
}

// LocaleStatus is the status of one locale.
type LocaleStatus struct {
	Locale string `json:"locale"`
	Path   string `json:"path,omitempty"`
	Counts
	Contexts     []ContextStatus `json:"contexts"`
	Untranslated []string        `json:"untranslated"`
}

// ContextStatus is the status of one context within a locale.
type ContextStatus struct {
	Context string `json:"context"`
	Counts
}

// Build reports every locale of bundle, in locale order.
func Build(bundle *catalog.Bundle) Report {
	locales := bundle.Locales()
	rep := Report{Locales: make([]LocaleStatus, 0, len(locales))}
	for _, locale := range locales {
		rep.Locales = append(rep.Locales, ForCatalog(locale, bundle.Path(locale), bundle.Catalog(locale)))
	}
	return rep
}

// ForCatalog reports one catalog.
func ForCatalog(locale, path string, c *catalog.Catalog) LocaleStatus {
	out := LocaleStatus{
		Locale:       locale,
		Path:         path,
		Contexts:     make([]ContextStatus, 0),
		Untranslated: make([]string, 0),
	}
	for _, name := range c.Contexts() {
		ctx := ContextStatus{Context: name}
		for _, entry := range c.Entries(name) {
			ctx.add(entry)
			if !entry.Served && !entry.Duplicate && live(entry) {
				out.Untranslated = append(out.Untranslated, KeyString(entry.Key))
			}
		}
		ctx.finish()
		out.Counts.merge(ctx.Counts)
		out.Contexts = append(out.Contexts, ctx)
	}
	out.Counts.finish()
	return out
}

func live(entry catalog.Entry) bool {
	return entry.Status != ts.StatusVanished && entry.Status != ts.StatusObsolete
}

func (c *Counts) add(entry catalog.Entry) {
	c.Total++
	switch entry.Status {
	case ts.StatusVanished, ts.StatusObsolete:
		c.Obsolete++
		return
	case ts.StatusUnfinished:
		c.Unfinished++
	default:
		c.Finished++
	}
	if len(entry.Missing) > 0 || entry.Duplicate {
		c.Invalid++
	}
	if entry.Served {
		c.Served++
	}
}

func (c *Counts) merge(other Counts) {
	c.Total += other.Total
	c.Finished += other.Finished
	c.Unfinished += other.Unfinished
	c.Invalid += other.Invalid
	c.Obsolete += other.Obsolete
	c.Served += other.Served
}

func (c *Counts) finish() {
	c.Completion = percent(c.Served, c.Total-c.Obsolete)
}

// KeyString formats a key as context/source, followed by
// "#disambiguation" when present.
func KeyString(key ts.Key) string {
	s := key.Context + "/" + key.Source
	if key.Disambiguation != "" {
		s += "#" + key.Disambiguation
	}
	return s
}

func percent(numerator int, denominator int) float64 {
	if denominator <= 0 {
		return 100
	}
	value := float64(numerator) * 100 / float64(denominator)
	return math.Round(value*10) / 10
}

// WriteJSON writes rep as indented JSON.
func WriteJSON(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// Markdown renders rep as a Markdown document.
func Markdown(rep Report) string {
	var b strings.Builder
	b.WriteString("# Translation Status\n\n")
	b.WriteString("## Locale Summary\n\n")
	b.WriteString("| Locale | Messages | Finished | Unfinished | Invalid | Obsolete | Completion |\n")
	b.WriteString("| --- | ---: | ---: | ---: | ---: | ---: | ---: |\n")
	for _, locale := range rep.Locales {
		writeRow(&b, "`"+tableCell(locale.Locale)+"`", locale.Counts)
	}

	for _, locale := range rep.Locales {
		b.WriteString("\n## Locale: `")
		b.WriteString(locale.Locale)
		b.WriteString("`\n\n")
		if locale.Path != "" {
			b.WriteString("Source file: `")
			b.WriteString(locale.Path)
			b.WriteString("`\n\n")
		}

		b.WriteString("| Context | Messages | Finished | Unfinished | Invalid | Obsolete | Completion |\n")
		b.WriteString("| --- | ---: | ---: | ---: | ---: | ---: | ---: |\n")
		for _, ctx := range locale.Contexts {
			writeRow(&b, "`"+tableCell(ctx.Context)+"`", ctx.Counts)
		}

		if len(locale.Untranslated) > 0 {
			b.WriteString("\n### Untranslated\n\n")
			for _, key := range locale.Untranslated {
				b.WriteString("- `")
				b.WriteString(strings.ReplaceAll(key, "\n", `\n`))
				b.WriteString("`\n")
			}
		}
	}
	return b.String()
}

// tableCell escapes text for a single Markdown table cell.
func tableCell(text string) string {
	text = strings.ReplaceAll(text, "|", `\|`)
	return strings.ReplaceAll(text, "\n", " ")
}

func writeRow(b *strings.Builder, label string, c Counts) {
	fmt.Fprintf(b, "| %s | %d | %d | %d | %d | %d | %.1f%% |\n",
		label, c.Total, c.Finished, c.Unfinished, c.Invalid, c.Obsolete, c.Completion)
}
