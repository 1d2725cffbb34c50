// Package catalog serves translations loaded from Qt Linguist .ts files.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tscatalog/tscatalog/internal/platform/i18n/ts"
	"golang.org/x/text/language"
)

// Options control which entries a catalog serves.
type Options struct {
	// IncludeUnfinished serves non-empty unfinished translations.
	IncludeUnfinished bool
}

// Entry is one message as seen by lookup.
type Entry struct {
	Key      ts.Key
	Numerus  bool
	Status   ts.Status
	Texts    []string
	Location string

	// Missing lists source placeholders absent from a translation.
	Missing []string
	// Served reports whether lookup returns this entry.
	Served bool
	// Duplicate marks a repeated key; only the first occurrence is served.
	Duplicate bool
}

// Catalog holds the translations of one locale. It is immutable after New
// and safe for concurrent use.
type Catalog struct {
	tag      language.Tag
	doc      *ts.Document
	opts     Options
	contexts []string
	entries  map[string][]Entry
	served   map[ts.Key]Entry
}

// New builds a catalog from doc. The locale is taken from the document's
// language attribute.
func New(doc *ts.Document, opts Options) *Catalog {
	tag, _ := ParseLocale(doc.Language)
	return newCatalog(tag, doc, opts)
}

func newCatalog(tag language.Tag, doc *ts.Document, opts Options) *Catalog {
	c := &Catalog{
		tag:     tag,
		doc:     doc,
		opts:    opts,
		entries: map[string][]Entry{},
		served:  map[ts.Key]Entry{},
	}
	seen := map[ts.Key]bool{}
	for _, context := range doc.Contexts {
		if _, ok := c.entries[context.Name]; !ok {
			c.contexts = append(c.contexts, context.Name)
		}
		list := c.entries[context.Name]
		for _, msg := range context.Messages {
			entry := Entry{
				Key:      msg.Key(context.Name),
				Numerus:  msg.Numerus,
				Status:   msg.Status(),
				Texts:    append([]string(nil), msg.Texts()...),
				Location: msg.Location(),
				Missing:  missing(msg),
			}
			entry.Duplicate = seen[entry.Key]
			seen[entry.Key] = true
			entry.Served = !entry.Duplicate && servable(entry, opts)
			if entry.Served {
				c.served[entry.Key] = entry
			}
			list = append(list, entry)
		}
		c.entries[context.Name] = list
	}
	return c
}

func missing(msg ts.Message) []string {
	seen := map[string]bool{}
	var out []string
	for _, text := range msg.Texts() {
		if text == "" {
			continue
		}
		for _, id := range ts.MissingPlaceholders(msg.Source, text) {
			if msg.Numerus && id == "%n" {
				continue
			}
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	sort.Strings(out)
	return out
}

func servable(entry Entry, opts Options) bool {
	switch entry.Status {
	case ts.StatusFinished:
	case ts.StatusUnfinished:
		if !opts.IncludeUnfinished {
			return false
		}
	default:
		return false
	}
	if len(entry.Missing) > 0 || len(entry.Texts) == 0 {
		return false
	}
	for _, text := range entry.Texts {
		if text == "" {
			return false
		}
	}
	return true
}

// Tag returns the catalog's language.
func (c *Catalog) Tag() language.Tag {
	if c == nil {
		return language.Und
	}
	return c.tag
}

// Locale returns the catalog's locale identifier.
func (c *Catalog) Locale() string {
	return c.Tag().String()
}

// Document returns the parsed document the catalog was built from.
func (c *Catalog) Document() *ts.Document {
	if c == nil {
		return nil
	}
	return c.doc
}

// Contexts returns context names in document order.
func (c *Catalog) Contexts() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.contexts...)
}

// HasContext reports whether the document declares the context.
func (c *Catalog) HasContext(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.entries[name]
	return ok
}

// Entries returns the entries of one context in document order.
func (c *Catalog) Entries(context string) []Entry {
	if c == nil {
		return nil
	}
	return append([]Entry(nil), c.entries[context]...)
}

// Messages returns a copy of every served key and its first translated form.
func (c *Catalog) Messages() map[ts.Key]string {
	out := map[ts.Key]string{}
	if c == nil {
		return out
	}
	for key, entry := range c.served {
		out[key] = entry.Texts[0]
	}
	return out
}

func (c *Catalog) find(context, source, disambiguation string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	if entry, ok := c.served[ts.Key{Context: context, Source: source, Disambiguation: disambiguation}]; ok {
		return entry, true
	}
	if disambiguation == "" {
		return Entry{}, false
	}
	entry, ok := c.served[ts.Key{Context: context, Source: source}]
	return entry, ok
}

// Lookup returns the translation for a key. A disambiguated key that is
// not found is retried without its disambiguation. Numerus entries return
// their first form.
func (c *Catalog) Lookup(context, source, disambiguation string) (string, bool) {
	entry, ok := c.find(context, source, disambiguation)
	if !ok {
		return "", false
	}
	return entry.Texts[0], true
}

// LookupN returns the translation for a key and count. Numerus entries
// select the form for n by the locale's plural rules.
func (c *Catalog) LookupN(context, source, disambiguation string, n int) (string, bool) {
	entry, ok := c.find(context, source, disambiguation)
	if !ok {
		return "", false
	}
	if !entry.Numerus {
		return entry.Texts[0], true
	}
	idx := ts.NumerusIndex(c.tag, n)
	if idx >= len(entry.Texts) {
		idx = len(entry.Texts) - 1
	}
	return entry.Texts[idx], true
}

// Translate looks a key up and substitutes args into its placeholders.
// Absent keys format the source text instead.
func (c *Catalog) Translate(context, source, disambiguation string, args ...any) string {
	text, ok := c.Lookup(context, source, disambiguation)
	if !ok {
		text = source
	}
	return ts.ArgLocale(c.Tag(), text, args...)
}

// TranslateN is Translate for counted messages: %n is replaced by n.
func (c *Catalog) TranslateN(context, source, disambiguation string, n int, args ...any) string {
	text, ok := c.LookupN(context, source, disambiguation, n)
	if !ok {
		text = source
	}
	return ts.ArgLocale(c.Tag(), ts.ReplaceNumerus(c.Tag(), text, n), args...)
}

// ParseLocale parses a .ts language attribute or locale identifier such
// as "fi", "pt_BR" or "pt-BR".
func ParseLocale(value string) (language.Tag, error) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(value, "_", "-"))
	if trimmed == "" {
		return language.Und, fmt.Errorf("locale is empty")
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return language.Und, fmt.Errorf("parse locale %q: %w", value, err)
	}
	return tag, nil
}

// localeFromFilename extracts the locale suffix of "<name>_<locale>.ts".
func localeFromFilename(name string) (language.Tag, bool) {
	base := strings.TrimSuffix(name, ".ts")
	segments := strings.Split(base, "_")
	if len(segments) < 2 {
		return language.Und, false
	}
	candidate := segments[len(segments)-1]
	if len(segments) >= 3 && isRegion(candidate) {
		candidate = segments[len(segments)-2] + "-" + candidate
	}
	tag, err := ParseLocale(candidate)
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

func isRegion(value string) bool {
	if len(value) == 2 {
		return strings.ToUpper(value) == value
	}
	if len(value) == 3 {
		for _, r := range value {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	}
	return false
}
