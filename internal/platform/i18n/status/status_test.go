package status

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/ts"
)

const statusDoc = `<TS version="2.1" language="fi">
<context>
    <name>A</name>
    <message>
        <source>One</source>
        <translation>Yksi</translation>
    </message>
    <message>
        <source>Two %1</source>
        <translation>Kaksi</translation>
    </message>
    <message>
        <source>Three</source>
        <translation type="unfinished"></translation>
    </message>
    <message>
        <source>Old</source>
        <translation type="vanished">Vanha</translation>
    </message>
</context>
<context>
    <name>B</name>
    <message>
        <source>Four</source>
        <translation>Neljä</translation>
    </message>
    <message>
        <source>Four</source>
        <translation>Nelonen</translation>
    </message>
</context>
</TS>`

func statusCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	doc, err := ts.ParseBytes([]byte(statusDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return catalog.New(doc, catalog.Options{})
}

func TestForCatalogCountsEntries(t *testing.T) {
	got := ForCatalog("fi", "app_fi.ts", statusCatalog(t))
	want := LocaleStatus{
		Locale: "fi",
		Path:   "app_fi.ts",
		Counts: Counts{Total: 6, Finished: 4, Unfinished: 1, Invalid: 2, Obsolete: 1, Served: 2, Completion: 40},
		Contexts: []ContextStatus{
			{Context: "A", Counts: Counts{Total: 4, Finished: 2, Unfinished: 1, Invalid: 1, Obsolete: 1, Served: 1, Completion: 33.3}},
			{Context: "B", Counts: Counts{Total: 2, Finished: 2, Invalid: 1, Served: 1, Completion: 50}},
		},
		Untranslated: []string{"A/Two %1", "A/Three"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildReportsEmbeddedLocales(t *testing.T) {
	bundle, err := catalog.LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	rep := Build(bundle)
	if len(rep.Locales) != 2 || rep.Locales[0].Locale != "de" || rep.Locales[1].Locale != "fi" {
		t.Fatalf("locales = %+v", rep.Locales)
	}
	for _, locale := range rep.Locales {
		if locale.Completion != 100 {
			t.Fatalf("%s completion = %.1f, want 100", locale.Locale, locale.Completion)
		}
	}
}

func TestWriteJSONAndMarkdown(t *testing.T) {
	rep := Report{Locales: []LocaleStatus{ForCatalog("fi", "", statusCatalog(t))}}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, rep); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if decoded.Locales[0].Served != 2 {
		t.Fatalf("served = %d, want 2", decoded.Locales[0].Served)
	}

	md := Markdown(rep)
	for _, want := range []string{
		"| `fi` | 6 | 4 | 1 | 2 | 1 | 40.0% |",
		"| `A` | 4 | 2 | 1 | 1 | 1 | 33.3% |",
		"- `A/Two %1`",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestKeyString(t *testing.T) {
	got := KeyString(ts.Key{Context: "Main", Source: "Open", Disambiguation: "menu"})
	if got != "Main/Open#menu" {
		t.Fatalf("KeyString = %q, want %q", got, "Main/Open#menu")
	}
	if got := KeyString(ts.Key{Context: "Main", Source: "Open"}); got != "Main/Open" {
		t.Fatalf("KeyString = %q, want %q", got, "Main/Open")
	}
}

func TestMarkdownEscapesTableCells(t *testing.T) {
	rep := Report{Locales: []LocaleStatus{{
		Locale:   "fi",
		Counts:   Counts{Total: 1, Finished: 1, Served: 1, Completion: 100},
		Contexts: []ContextStatus{{Context: "File|Edit", Counts: Counts{Total: 1, Finished: 1, Served: 1, Completion: 100}}},
	}}}

	md := Markdown(rep)
	if want := "| `File\\|Edit` | 1 | 1 | 0 | 0 | 0 | 100.0% |"; !strings.Contains(md, want) {
		t.Fatalf("markdown missing %q:\n%s", want, md)
	}
	if strings.Contains(md, "`File|Edit`") {
		t.Fatalf("unescaped pipe in table cell:\n%s", md)
	}
}
