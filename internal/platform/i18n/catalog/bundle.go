package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tscatalog/tscatalog/internal/platform/i18n/ts"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	msgcatalog "golang.org/x/text/message/catalog"
)

// SourceLocale is the language the tool's own strings are written in.
const SourceLocale = "en"

// Bundle contains one catalog per locale.
type Bundle struct {
	catalogs map[string]*Catalog
	paths    map[string]string
	locales  []string
	matcher  language.Matcher

	printersMu sync.Mutex
	printers   map[string]*msgcatalog.Builder
}

//go:embed translations/*.ts
var embeddedFS embed.FS

var (
	defaultOnce   sync.Once
	defaultBundle *Bundle
)

// Default returns the process-wide bundle of the tool's own translations.
func Default() *Bundle {
	defaultOnce.Do(func() {
		defaultBundle = mustLoadEmbedded()
	})
	return defaultBundle
}

// LoadEmbedded loads the translations embedded in this package.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embeddedFS, "translations/*.ts", Options{})
}

func mustLoadEmbedded() *Bundle {
	bundle, err := LoadEmbedded()
	if err != nil {
		panic(err)
	}
	return bundle
}

// LoadDir loads every .ts file directly inside dir. Path reports the
// on-disk file each locale was loaded from.
func LoadDir(dir string, opts Options) (*Bundle, error) {
	return loadFS(os.DirFS(dir), "*.ts", dir, opts)
}

// LoadFromFS loads the .ts files matching pattern.
func LoadFromFS(fsys fs.FS, pattern string, opts Options) (*Bundle, error) {
	return loadFS(fsys, pattern, "", opts)
}

// loadFS reads matching files from fsys. A non-empty root is joined onto
// each matched path for Path and error messages.
func loadFS(fsys fs.FS, pattern, root string, opts Options) (*Bundle, error) {
	paths, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("glob translation files: %w", err)
	}
	if len(paths) == 0 {
		if root != "" {
			return nil, fmt.Errorf("no translation files match %q in %s", pattern, root)
		}
		return nil, fmt.Errorf("no translation files match %q", pattern)
	}
	sort.Strings(paths)

	bundle := newBundle()
	for _, p := range paths {
		display := p
		if root != "" {
			display = filepath.Join(root, filepath.FromSlash(p))
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read translation file %s: %w", display, err)
		}
		doc, err := ts.ParseBytes(data)
		if err != nil {
			return nil, fmt.Errorf("parse translation file %s: %w", display, err)
		}
		if err := bundle.add(display, path.Base(p), doc, opts); err != nil {
			return nil, err
		}
	}
	bundle.finish()
	return bundle, nil
}

// LoadFiles loads the named .ts files from the local filesystem.
func LoadFiles(paths []string, opts Options) (*Bundle, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no translation files given")
	}
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	bundle := newBundle()
	for _, p := range sorted {
		doc, err := ts.ParseFile(p)
		if err != nil {
			return nil, err
		}
		if err := bundle.add(p, filepath.Base(p), doc, opts); err != nil {
			return nil, err
		}
	}
	bundle.finish()
	return bundle, nil
}

func newBundle() *Bundle {
	return &Bundle{
		catalogs: map[string]*Catalog{},
		paths:    map[string]string{},
		printers: map[string]*msgcatalog.Builder{},
	}
}

func (b *Bundle) add(filePath, name string, doc *ts.Document, opts Options) error {
	tag, err := ParseLocale(doc.Language)
	if err != nil {
		var ok bool
		tag, ok = localeFromFilename(name)
		if !ok {
			return fmt.Errorf("translation file %s: cannot determine locale from language attribute or filename", filePath)
		}
	}
	locale := tag.String()
	if existing, ok := b.paths[locale]; ok {
		return fmt.Errorf("translation file %s: locale %q already loaded from %s", filePath, locale, existing)
	}
	b.catalogs[locale] = newCatalog(tag, doc, opts)
	b.paths[locale] = filePath
	return nil
}

func (b *Bundle) finish() {
	b.locales = make([]string, 0, len(b.catalogs))
	for locale := range b.catalogs {
		b.locales = append(b.locales, locale)
	}
	sort.Strings(b.locales)

	tags := make([]language.Tag, 0, len(b.locales)+1)
	for _, locale := range b.locales {
		tags = append(tags, b.catalogs[locale].Tag())
	}
	b.matcher = language.NewMatcher(tags)
}

// Locales returns all loaded locale identifiers, sorted.
func (b *Bundle) Locales() []string {
	if b == nil {
		return nil
	}
	return append([]string(nil), b.locales...)
}

// HasLocale reports whether the locale exists in this bundle.
func (b *Bundle) HasLocale(locale string) bool {
	return b.Catalog(locale) != nil
}

// Catalog returns the catalog for an exact locale, or nil.
func (b *Bundle) Catalog(locale string) *Catalog {
	if b == nil {
		return nil
	}
	tag, err := ParseLocale(locale)
	if err != nil {
		return nil
	}
	return b.catalogs[tag.String()]
}

// Path returns the file a locale was loaded from.
func (b *Bundle) Path(locale string) string {
	if c := b.Catalog(locale); c != nil {
		return b.paths[c.Locale()]
	}
	return ""
}

// Match picks the loaded locale that best serves the preferred tags.
func (b *Bundle) Match(preferred ...language.Tag) (string, bool) {
	if b == nil || len(b.locales) == 0 || len(preferred) == 0 {
		return "", false
	}
	_, index, confidence := b.matcher.Match(preferred...)
	if confidence == language.No {
		return "", false
	}
	return b.locales[index], true
}

// Translator returns a translator for locale. Lookups try the exact
// locale, then its base language, then the closest loaded match. The
// result is never nil; with no catalog it returns source texts.
func (b *Bundle) Translator(locale string) *Translator {
	tag, err := ParseLocale(locale)
	if err != nil {
		tag = language.Und
	}
	t := &Translator{tag: tag}
	if b == nil {
		return t
	}
	add := func(c *Catalog) {
		if c == nil {
			return
		}
		for _, existing := range t.chain {
			if existing == c {
				return
			}
		}
		t.chain = append(t.chain, c)
	}
	add(b.catalogs[tag.String()])
	if base, conf := tag.Base(); conf != language.No {
		add(b.catalogs[base.String()])
	}
	if len(t.chain) == 0 && tag != language.Und {
		if matched, ok := b.Match(tag); ok {
			add(b.catalogs[matched])
		}
	}
	return t
}

// PrinterKey is the message key used by Printer for a source text and
// disambiguation.
func PrinterKey(source, disambiguation string) string {
	if disambiguation == "" {
		return source
	}
	return disambiguation + "\x04" + source
}

// Printer returns an x/text message printer for one context. Keys are
// built with PrinterKey; Qt markers in translations are rewritten to
// printf verbs, and numerus entries take the count as first argument.
func (b *Bundle) Printer(tag language.Tag, context string) *message.Printer {
	if b == nil {
		return message.NewPrinter(tag)
	}
	locale := tag.String()
	if matched, ok := b.Match(tag); ok {
		locale = matched
	}
	matchedTag, err := language.Parse(locale)
	if err != nil {
		matchedTag = tag
	}
	return message.NewPrinter(matchedTag, message.Catalog(b.contextBuilder(context)))
}

func (b *Bundle) contextBuilder(context string) *msgcatalog.Builder {
	b.printersMu.Lock()
	defer b.printersMu.Unlock()
	if builder, ok := b.printers[context]; ok {
		return builder
	}
	builder := msgcatalog.NewBuilder()
	for _, locale := range b.locales {
		c := b.catalogs[locale]
		for _, entry := range c.entries[context] {
			if !entry.Served {
				continue
			}
			key := PrinterKey(entry.Key.Source, entry.Key.Disambiguation)
			// Set only fails on malformed selectors; served entries never carry one.
			_ = builder.Set(c.Tag(), key, printerMessage(c.Tag(), entry))
		}
	}
	b.printers[context] = builder
	return builder
}

// Translator looks messages up through an ordered chain of catalogs.
type Translator struct {
	tag   language.Tag
	chain []*Catalog
}

// Tag returns the requested language.
func (t *Translator) Tag() language.Tag {
	if t == nil {
		return language.Und
	}
	return t.tag
}

// Locale returns the locale of the first catalog in the chain, or "" when
// no catalog serves the requested language.
func (t *Translator) Locale() string {
	if t == nil || len(t.chain) == 0 {
		return ""
	}
	return t.chain[0].Locale()
}

// Lookup returns the first translation found along the chain.
func (t *Translator) Lookup(context, source, disambiguation string) (string, bool) {
	if t == nil {
		return "", false
	}
	for _, c := range t.chain {
		if text, ok := c.Lookup(context, source, disambiguation); ok {
			return text, true
		}
	}
	return "", false
}

// Translate resolves a key and substitutes args; absent keys format the source.
func (t *Translator) Translate(context, source, disambiguation string, args ...any) string {
	if t != nil {
		for _, c := range t.chain {
			if _, ok := c.Lookup(context, source, disambiguation); ok {
				return c.Translate(context, source, disambiguation, args...)
			}
		}
	}
	return ts.ArgLocale(t.Tag(), source, args...)
}

// TranslateN is Translate for counted messages.
func (t *Translator) TranslateN(context, source, disambiguation string, n int, args ...any) string {
	if t != nil {
		for _, c := range t.chain {
			if _, ok := c.Lookup(context, source, disambiguation); ok {
				return c.TranslateN(context, source, disambiguation, n, args...)
			}
		}
	}
	return ts.ArgLocale(t.Tag(), ts.ReplaceNumerus(t.Tag(), source, n), args...)
}

// Tr is Translate without a disambiguation.
func (t *Translator) Tr(context, source string, args ...any) string {
	return t.Translate(context, source, "", args...)
}
