package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/ts"
	"golang.org/x/text/language"
)

const fixturePath = "../ts/testdata/optimus-manager_fi.ts"

const germanDoc = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="de">
<context>
    <name>Main</name>
    <message>
        <source>Session %1, started by %2</source>
        <translation>Sitzung %1, gestartet von %2</translation>
    </message>
    <message>
        <source>Open</source>
        <comment>verb</comment>
        <translation>Öffnen</translation>
    </message>
    <message>
        <source>Open</source>
        <translation>Offen</translation>
    </message>
    <message>
        <source>Close</source>
        <translation>Schließen</translation>
    </message>
    <message>
        <source>Close</source>
        <translation>Zumachen</translation>
    </message>
    <message>
        <source>Broken %1 and %2</source>
        <translation>Kaputt %1</translation>
    </message>
    <message>
        <source>Draft</source>
        <translation type="unfinished">Entwurf</translation>
    </message>
    <message>
        <source>Gone</source>
        <translation type="vanished">Weg</translation>
    </message>
    <message numerus="yes">
        <source>%n file(s)</source>
        <translation>
            <numerusform>%n Datei</numerusform>
            <numerusform>%n Dateien</numerusform>
        </translation>
    </message>
</context>
</TS>
`

func mustParse(t *testing.T, data string) *ts.Document {
	t.Helper()
	doc, err := ts.ParseBytes([]byte(data))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadEmbeddedHasExpectedLocales(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	if diff := cmp.Diff([]string{"de", "fi"}, bundle.Locales()); diff != "" {
		t.Fatalf("locales mismatch (-want +got):\n%s", diff)
	}
	for _, locale := range bundle.Locales() {
		doc := bundle.Catalog(locale).Document()
		for _, name := range []string{"Check", "Errors", "Lint"} {
			if doc.Context(name) == nil {
				t.Fatalf("locale %s: missing context %s", locale, name)
			}
		}
	}
}

func TestEmbeddedTranslationsAreComplete(t *testing.T) {
	bundle := Default()
	for _, locale := range bundle.Locales() {
		c := bundle.Catalog(locale)
		for _, context := range c.Contexts() {
			for _, entry := range c.Entries(context) {
				if !entry.Served {
					t.Fatalf("%s %s %q is not served", locale, context, entry.Key.Source)
				}
			}
		}
	}
}

func TestLookupFixture(t *testing.T) {
	bundle, err := LoadFiles([]string{fixturePath}, Options{})
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	c := bundle.Catalog("fi")
	if c == nil {
		t.Fatal("expected fi catalog")
	}

	got, ok := c.Lookup("OptimusManager", "Exit", "")
	if !ok || got != "Poistu" {
		t.Fatalf("Lookup(Exit) = %q, %v; want Poistu", got, ok)
	}

	got = c.Translate("AppSettings", "Unable to create autorun file from '%1'", "", "/tmp/a.desktop")
	if got != "Autorun-tiedostoa ei voi luoda osoitteesta '/tmp/a.desktop'" {
		t.Fatalf("Translate = %q", got)
	}
}

func TestLookupMissingReturnsSource(t *testing.T) {
	bundle, err := LoadFiles([]string{fixturePath}, Options{})
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	c := bundle.Catalog("fi")
	if _, ok := c.Lookup("OptimusManager", "Not there", ""); ok {
		t.Fatal("expected miss")
	}
	if got := c.Translate("Nowhere", "Hello %1", "", "you"); got != "Hello you" {
		t.Fatalf("Translate = %q, want %q", got, "Hello you")
	}
	// The unfinished entry falls back to its source.
	if got := c.Translate("SettingsDialog", "Author:", ""); got != "Author:" {
		t.Fatalf("Translate = %q, want %q", got, "Author:")
	}
}

func TestCatalogServingRules(t *testing.T) {
	c := New(mustParse(t, germanDoc), Options{})

	tests := []struct {
		name           string
		source         string
		disambiguation string
		want           string
		ok             bool
	}{
		{"disambiguated", "Open", "verb", "Öffnen", true},
		{"plain", "Open", "", "Offen", true},
		{"disambiguation falls back", "Open", "adjective", "Offen", true},
		{"first duplicate wins", "Close", "", "Schließen", true},
		{"missing placeholder never served", "Broken %1 and %2", "", "", false},
		{"unfinished excluded", "Draft", "", "", false},
		{"vanished excluded", "Gone", "", "", false},
		{"numerus first form", "%n file(s)", "", "%n Datei", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Lookup("Main", tt.source, tt.disambiguation)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("Lookup(%q, %q) = %q, %v; want %q, %v", tt.source, tt.disambiguation, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCatalogIncludeUnfinished(t *testing.T) {
	c := New(mustParse(t, germanDoc), Options{IncludeUnfinished: true})
	if got, ok := c.Lookup("Main", "Draft", ""); !ok || got != "Entwurf" {
		t.Fatalf("Lookup(Draft) = %q, %v; want Entwurf", got, ok)
	}
	if _, ok := c.Lookup("Main", "Gone", ""); ok {
		t.Fatal("vanished entries are never served")
	}
}

func TestCatalogEntriesReportState(t *testing.T) {
	c := New(mustParse(t, germanDoc), Options{})
	var broken, duplicate *Entry
	entries := c.Entries("Main")
	for i := range entries {
		switch {
		case entries[i].Key.Source == "Broken %1 and %2":
			broken = &entries[i]
		case entries[i].Duplicate:
			duplicate = &entries[i]
		}
	}
	if broken == nil || broken.Served || !cmp.Equal(broken.Missing, []string{"%2"}) {
		t.Fatalf("broken entry = %+v", broken)
	}
	if duplicate == nil || duplicate.Texts[0] != "Zumachen" {
		t.Fatalf("duplicate entry = %+v", duplicate)
	}
}

func TestTranslateArgsAndNumerus(t *testing.T) {
	c := New(mustParse(t, germanDoc), Options{})
	if got := c.Translate("Main", "Session %1, started by %2", "", "s1", "bob"); got != "Sitzung s1, gestartet von bob" {
		t.Fatalf("Translate = %q", got)
	}
	if got := c.TranslateN("Main", "%n file(s)", "", 1); got != "1 Datei" {
		t.Fatalf("TranslateN(1) = %q", got)
	}
	if got := c.TranslateN("Main", "%n file(s)", "", 4); got != "4 Dateien" {
		t.Fatalf("TranslateN(4) = %q", got)
	}
	if got := c.TranslateN("Main", "%n item(s)", "", 2); got != "2 item(s)" {
		t.Fatalf("TranslateN fallback = %q", got)
	}
}

func TestLoadingTwiceYieldsEqualMappings(t *testing.T) {
	first, err := LoadFiles([]string{fixturePath}, Options{})
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	second, err := LoadFiles([]string{fixturePath}, Options{})
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	if diff := cmp.Diff(first.Catalog("fi").Messages(), second.Catalog("fi").Messages()); diff != "" {
		t.Fatalf("mappings differ (-first +second):\n%s", diff)
	}
	if len(first.Catalog("fi").Messages()) == 0 {
		t.Fatal("expected served messages")
	}
}

func TestLoadDirResolvesLocaleFromFilename(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "app_pt_BR.ts"), `<TS version="2.1"><context><name>A</name><message><source>Yes</source><translation>Sim</translation></message></context></TS>`)
	mustWriteFile(t, filepath.Join(dir, "app_fi.ts"), `<TS version="2.1"><context><name>A</name><message><source>Yes</source><translation>Kyllä</translation></message></context></TS>`)

	bundle, err := LoadDir(dir, Options{})
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if diff := cmp.Diff([]string{"fi", "pt-BR"}, bundle.Locales()); diff != "" {
		t.Fatalf("locales mismatch (-want +got):\n%s", diff)
	}
	if got, want := bundle.Path("pt_BR"), filepath.Join(dir, "app_pt_BR.ts"); got != want {
		t.Fatalf("Path = %q, want %q", got, want)
	}
	if got, want := bundle.Path("fi"), filepath.Join(dir, "app_fi.ts"); got != want {
		t.Fatalf("Path = %q, want %q", got, want)
	}
}

func TestLoadFromFSKeepsRelativePaths(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/app_fi.ts": {Data: []byte(`<TS version="2.1" language="fi"></TS>`)},
	}
	bundle, err := LoadFromFS(fsys, "locales/*.ts", Options{})
	if err != nil {
		t.Fatalf("load fs: %v", err)
	}
	if got := bundle.Path("fi"); got != "locales/app_fi.ts" {
		t.Fatalf("Path = %q, want locales/app_fi.ts", got)
	}
}

func TestLoadDirRejectsDuplicateLocale(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "a_fi.ts"), `<TS version="2.1" language="fi"></TS>`)
	mustWriteFile(t, filepath.Join(dir, "b_fi.ts"), `<TS version="2.1" language="fi"></TS>`)
	_, err := LoadDir(dir, Options{})
	if err == nil {
		t.Fatal("expected duplicate locale error")
	}
	for _, name := range []string{"a_fi.ts", "b_fi.ts"} {
		if want := filepath.Join(dir, name); !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not name %s", err, want)
		}
	}
}

func TestLoadDirRejectsEmptyDirAndUnknownLocale(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadDir(dir, Options{}); err == nil {
		t.Fatal("expected error for empty directory")
	}
	mustWriteFile(t, filepath.Join(dir, "noloc.ts"), `<TS version="2.1"></TS>`)
	if _, err := LoadDir(dir, Options{}); err == nil {
		t.Fatal("expected error for file without locale")
	}
}

func TestTranslatorFallsBackToBaseLanguage(t *testing.T) {
	bundle := Default()
	tr := bundle.Translator("fi-FI")
	if tr.Locale() != "fi" {
		t.Fatalf("translator locale = %q, want fi", tr.Locale())
	}
	if got := tr.Tr("Check", "Translation is empty."); got != "Käännös on tyhjä." {
		t.Fatalf("Tr = %q", got)
	}
	if got := tr.TranslateN("Lint", "%n finding(s) in %1", "", 3, "a.ts"); got != "3 havaintoa tiedostossa a.ts" {
		t.Fatalf("TranslateN = %q", got)
	}

	english := bundle.Translator("en")
	if got := english.Tr("Check", "Translation is empty."); got != "Translation is empty." {
		t.Fatalf("Tr = %q", got)
	}
	if got := english.TranslateN("Lint", "%n finding(s) in %1", "", 1, "a.ts"); got != "1 finding(s) in a.ts" {
		t.Fatalf("TranslateN = %q", got)
	}

	var nilTranslator *Translator
	if got := nilTranslator.Tr("Check", "x %1", "y"); got != "x y" {
		t.Fatalf("nil Tr = %q", got)
	}
}

func TestBundleMatch(t *testing.T) {
	bundle := Default()
	if got, ok := bundle.Match(language.MustParse("de-AT")); !ok || got != "de" {
		t.Fatalf("Match(de-AT) = %q, %v; want de", got, ok)
	}
	if _, ok := bundle.Match(language.Japanese); ok {
		t.Fatal("expected no match for ja")
	}
}

func TestPrinterUsesCatalogTranslations(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "app_de.ts"), germanDoc)
	bundle, err := LoadDir(dir, Options{})
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}

	p := bundle.Printer(language.German, "Main")
	if got := p.Sprintf(PrinterKey("Session %1, started by %2", ""), "s1", "bob"); got != "Sitzung s1, gestartet von bob" {
		t.Fatalf("Sprintf = %q", got)
	}
	if got := p.Sprintf(PrinterKey("Open", "verb")); got != "Öffnen" {
		t.Fatalf("Sprintf = %q", got)
	}
	if got := p.Sprintf(PrinterKey("%n file(s)", ""), 1); got != "1 Datei" {
		t.Fatalf("Sprintf(1) = %q", got)
	}
	if got := p.Sprintf(PrinterKey("%n file(s)", ""), 3); got != "3 Dateien" {
		t.Fatalf("Sprintf(3) = %q", got)
	}
}

func TestPrintfFormat(t *testing.T) {
	tests := []struct {
		text  string
		first int
		want  string
	}{
		{"%2 then %1", 1, "%[2]v then %[1]v"},
		{"100% of %1", 1, "100%% of %[1]v"},
		{"%n of %1", 2, "%[1]d of %[2]v"},
		{"%3 and %7", 1, "%[1]v and %[2]v"},
	}
	for _, tt := range tests {
		if got := printfFormat(tt.text, tt.first); got != tt.want {
			t.Fatalf("printfFormat(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestParseLocale(t *testing.T) {
	tag, err := ParseLocale("pt_BR")
	if err != nil || tag.String() != "pt-BR" {
		t.Fatalf("ParseLocale(pt_BR) = %v, %v", tag, err)
	}
	if _, err := ParseLocale(""); err == nil {
		t.Fatal("expected error for empty locale")
	}
}
