package domain

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/status"
	"github.com/tscatalog/tscatalog/internal/services/shared/i18nhttp"
)

const finnishTS = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="fi">
<context>
    <name>Main</name>
    <message>
        <source>Open</source>
        <translation>Avaa</translation>
    </message>
    <message>
        <source>Hello %1</source>
        <translation>Hei %1</translation>
    </message>
    <message numerus="yes">
        <source>%n file(s)</source>
        <translation>
            <numerusform>%n tiedosto</numerusform>
            <numerusform>%n tiedostoa</numerusform>
        </translation>
    </message>
    <message>
        <source>Close</source>
        <translation type="unfinished"></translation>
    </message>
</context>
</TS>
`

const brokenTS = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="de">
<context>
    <name>Main</name>
    <message>
        <source>Hello %1</source>
        <translation>Hallo</translation>
    </message>
</context>
</TS>
`

type staticSource struct {
	bundle *catalog.Bundle
	dir    string
}

func (s staticSource) Bundle() *catalog.Bundle { return s.bundle }

func (s staticSource) Dir() string { return s.dir }

type bundleOnly struct{ bundle *catalog.Bundle }

func (s bundleOnly) Bundle() *catalog.Bundle { return s.bundle }

func testSource(t *testing.T) (staticSource, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "app_fi.ts")
	if err := os.WriteFile(path, []byte(finnishTS), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	bundle, err := catalog.LoadDir(dir, catalog.Options{})
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return staticSource{bundle: bundle, dir: dir}, path
}

func intPtr(n int) *int { return &n }

func TestTranslateHandler(t *testing.T) {
	source, _ := testSource(t)
	handler := TranslateHandler(source)

	tests := []struct {
		name  string
		input TranslateInput
		want  TranslateResult
	}{
		{
			name:  "plain",
			input: TranslateInput{Locale: "fi", Context: "Main", Source: "Open"},
			want:  TranslateResult{Locale: "fi", Text: "Avaa", Translated: true},
		},
		{
			name:  "args",
			input: TranslateInput{Locale: "fi", Context: "Main", Source: "Hello %1", Args: []string{"Maailma"}},
			want:  TranslateResult{Locale: "fi", Text: "Hei Maailma", Translated: true},
		},
		{
			name:  "numerus",
			input: TranslateInput{Locale: "fi-FI", Context: "Main", Source: "%n file(s)", N: intPtr(2)},
			want:  TranslateResult{Locale: "fi", Text: "2 tiedostoa", Translated: true},
		},
		{
			name:  "unfinished falls back",
			input: TranslateInput{Locale: "fi", Context: "Main", Source: "Close"},
			want:  TranslateResult{Locale: "fi", Text: "Close"},
		},
		{
			name:  "unknown locale falls back",
			input: TranslateInput{Locale: "ja", Context: "Main", Source: "Open"},
			want:  TranslateResult{Text: "Open"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			toolResult, result, err := handler(context.Background(), nil, tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if toolResult == nil || len(toolResult.Content) != 1 {
				t.Fatalf("tool result = %+v", toolResult)
			}
			if diff := cmp.Diff(tc.want, result); diff != "" {
				t.Fatalf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("validation", func(t *testing.T) {
		for _, input := range []TranslateInput{
			{Locale: "fi", Context: "Main"},
			{Context: "Main", Source: "Open"},
			{Locale: "not a locale!", Source: "Open"},
		} {
			if _, _, err := handler(context.Background(), nil, input); err == nil {
				t.Errorf("expected error for %+v", input)
			}
		}
	})

	t.Run("no bundle", func(t *testing.T) {
		_, _, err := TranslateHandler(staticSource{})(context.Background(), nil, TranslateInput{Locale: "fi", Source: "Open"})
		if err == nil {
			t.Fatal("expected error without a bundle")
		}
	})
}

func TestLintHandler(t *testing.T) {
	source, path := testSource(t)
	handler := LintHandler(source)

	t.Run("inline content", func(t *testing.T) {
		_, result, err := handler(context.Background(), nil, LintInput{Content: brokenTS})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Language != "de" || result.Errors != 1 {
			t.Fatalf("result = %+v", result)
		}
		if got := result.Findings[0]; got.Check != "placeholders" || got.Severity != "error" || got.Source != "Hello %1" {
			t.Fatalf("finding = %+v", got)
		}
	})

	t.Run("path with minimum severity", func(t *testing.T) {
		_, all, err := handler(context.Background(), nil, LintInput{Path: path})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, errorsOnly, err := handler(context.Background(), nil, LintInput{Path: path, MinSeverity: "error"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(all.Findings) == 0 {
			t.Fatal("expected the unfinished message to be reported")
		}
		if len(errorsOnly.Findings) != 0 {
			t.Fatalf("errors = %+v", errorsOnly.Findings)
		}
	})

	t.Run("relative path inside directory", func(t *testing.T) {
		_, result, err := handler(context.Background(), nil, LintInput{Path: "app_fi.ts"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Language != "fi" {
			t.Fatalf("language = %q, want fi", result.Language)
		}
	})

	t.Run("path outside directory", func(t *testing.T) {
		outside := filepath.Join(t.TempDir(), "other_fi.ts")
		if err := os.WriteFile(outside, []byte(finnishTS), 0o644); err != nil {
			t.Fatalf("write outside file: %v", err)
		}
		for _, p := range []string{outside, "../" + filepath.Base(filepath.Dir(outside)) + "/other_fi.ts", "../../etc/passwd"} {
			if _, _, err := handler(context.Background(), nil, LintInput{Path: p}); err == nil {
				t.Fatalf("expected %s to be rejected", p)
			}
		}
	})

	t.Run("symlink leaving directory", func(t *testing.T) {
		outside := filepath.Join(t.TempDir(), "linked_fi.ts")
		if err := os.WriteFile(outside, []byte(finnishTS), 0o644); err != nil {
			t.Fatalf("write outside file: %v", err)
		}
		link := filepath.Join(filepath.Dir(path), "linked_fi.ts")
		if err := os.Symlink(outside, link); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}
		if _, _, err := handler(context.Background(), nil, LintInput{Path: "linked_fi.ts"}); err == nil {
			t.Fatal("expected symlink out of the directory to be rejected")
		}
	})

	t.Run("path without directory", func(t *testing.T) {
		noDir := LintHandler(bundleOnly{bundle: source.bundle})
		if _, _, err := noDir(context.Background(), nil, LintInput{Path: path}); err == nil {
			t.Fatal("expected path to be rejected without a translation directory")
		}
		if _, result, err := noDir(context.Background(), nil, LintInput{Catalog: "fi"}); err != nil || result.Language != "fi" {
			t.Fatalf("catalog = %+v, %v", result, err)
		}
	})

	t.Run("loaded catalog with skip", func(t *testing.T) {
		_, result, err := handler(context.Background(), nil, LintInput{Catalog: "fi", Skip: []string{"unfinished", "empty"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, f := range result.Findings {
			if f.Check == "unfinished" || f.Check == "empty" {
				t.Fatalf("skipped check reported: %+v", f)
			}
		}
	})

	t.Run("finnish messages", func(t *testing.T) {
		_, result, err := handler(context.Background(), nil, LintInput{Content: brokenTS, MessageLocale: "fi"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Findings) == 0 || strings.HasPrefix(result.Findings[0].Message, "Translation") {
			t.Fatalf("findings = %+v", result.Findings)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		for _, input := range []LintInput{
			{},
			{Path: path, Content: brokenTS},
			{Content: "<TS><context>"},
			{Catalog: "ja"},
			{Content: brokenTS, MinSeverity: "fatal"},
		} {
			if _, _, err := handler(context.Background(), nil, input); err == nil {
				t.Errorf("expected error for %+v", input)
			}
		}
	})
}

func TestStatusHandler(t *testing.T) {
	source, path := testSource(t)
	handler := StatusHandler(source)

	_, result, err := handler(context.Background(), nil, StatusInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []StatusLocale{{
		Locale:       "fi",
		Path:         path,
		Total:        4,
		Finished:     3,
		Unfinished:   1,
		Served:       3,
		Completion:   75,
		Untranslated: []string{"Main/Close"},
	}}
	if diff := cmp.Diff(want, result.Locales); diff != "" {
		t.Fatalf("locales mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(result.Markdown, "`fi`") {
		t.Fatalf("markdown = %s", result.Markdown)
	}

	if _, _, err := handler(context.Background(), nil, StatusInput{Locale: "de"}); err == nil {
		t.Fatal("expected error for a locale that is not loaded")
	}
	if _, one, err := handler(context.Background(), nil, StatusInput{Locale: "fi"}); err != nil || len(one.Locales) != 1 {
		t.Fatalf("single locale = %+v, %v", one, err)
	}
}

func TestStatusResourceHandler(t *testing.T) {
	source, _ := testSource(t)
	handler := StatusResourceHandler(source)

	result, err := handler(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "catalog://status"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("contents = %+v", result.Contents)
	}
	var rep status.Report
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(rep.Locales) != 1 || rep.Locales[0].Served != 3 {
		t.Fatalf("report = %+v", rep)
	}

	if _, err := handler(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "catalog://other"}}); err == nil {
		t.Fatal("expected error for unknown URI")
	}
}

func TestLocalesHandler(t *testing.T) {
	source, _ := testSource(t)
	_, result, err := LocalesHandler(source)(context.Background(), nil, LocalesInput{Active: "fi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := LocalesResult{
		Source:  "en",
		Locales: []i18nhttp.LanguageOption{{Tag: "fi", Label: "suomi", Active: true}},
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("locales mismatch (-want +got):\n%s", diff)
	}
}
