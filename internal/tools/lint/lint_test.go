package lint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/check"
)

const cleanTS = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="de">
<context>
    <name>Main</name>
    <message>
        <source>Open</source>
        <translation>Öffnen</translation>
    </message>
</context>
</TS>
`

const warningTS = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="de">
<context>
    <name>Main</name>
    <message>
        <source>Save.</source>
        <translation>Speichern</translation>
    </message>
</context>
</TS>
`

const errorTS = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="fi">
<context>
    <name>Main</name>
    <message>
        <source>Hello %1</source>
        <translation>Hei</translation>
    </message>
</context>
</TS>
`

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseConfig(t *testing.T) {
	t.Setenv("TSCATALOG_LINT_SKIP", "punctuation")
	cfg, err := ParseConfig(flag.NewFlagSet("tslint", flag.ContinueOnError), []string{"-strict", "-format", "json", "a.ts", "dir"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	want := Config{
		Skip:        "punctuation",
		MinSeverity: "info",
		Format:      FormatJSON,
		Strict:      true,
		Paths:       []string{"a.ts", "dir"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConfigErrors(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{"-format", "xml", "a.ts"},
		{"-min-severity", "fatal", "a.ts"},
	} {
		if _, err := ParseConfig(flag.NewFlagSet("tslint", flag.ContinueOnError), args); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestRunExitStatus(t *testing.T) {
	dir := t.TempDir()
	clean := writeFile(t, dir, "clean_de.ts", cleanTS)
	warning := writeFile(t, dir, "warning_de.ts", warningTS)
	broken := writeFile(t, dir, "broken_fi.ts", errorTS)
	malformed := writeFile(t, dir, "malformed_fi.ts", "<TS><context>")

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "clean", cfg: Config{Paths: []string{clean}}},
		{name: "warning passes", cfg: Config{Paths: []string{warning}}},
		{name: "warning fails when strict", cfg: Config{Paths: []string{warning}, Strict: true}, wantErr: true},
		{name: "skipped warning passes when strict", cfg: Config{Paths: []string{warning}, Strict: true, Skip: "punctuation"}},
		{name: "error fails", cfg: Config{Paths: []string{broken}}, wantErr: true},
		{name: "filtered error still fails", cfg: Config{Paths: []string{broken}, MinSeverity: "error"}, wantErr: true},
		{name: "parse failure fails", cfg: Config{Paths: []string{malformed}}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Run(context.Background(), tc.cfg, nil)
			if tc.wantErr != errors.Is(err, ErrFindings) {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestRunTextOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken_fi.ts", errorTS)

	var out bytes.Buffer
	_ = Run(context.Background(), Config{Paths: []string{path}}, &out)
	if !strings.Contains(out.String(), "[placeholders] Main \"Hello %1\"") {
		t.Fatalf("output = %s", out.String())
	}
	if !strings.Contains(out.String(), "1 finding(s) in "+path) {
		t.Fatalf("output = %s", out.String())
	}

	out.Reset()
	_ = Run(context.Background(), Config{Paths: []string{path}, Locale: "fi"}, &out)
	if !strings.Contains(out.String(), "1 havainto tiedostossa "+path) {
		t.Fatalf("output = %s", out.String())
	}
}

func TestRunJSONOutputExpandsDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_de.ts", warningTS)
	writeFile(t, dir, "a_de.ts", cleanTS)
	writeFile(t, dir, "notes.txt", "ignored")

	var out bytes.Buffer
	if err := Run(context.Background(), Config{Paths: []string{dir}, Format: FormatJSON}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	var rep Report
	if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(rep.Files) != 2 || filepath.Base(rep.Files[0].Path) != "a_de.ts" {
		t.Fatalf("files = %+v", rep.Files)
	}
	if diff := cmp.Diff(check.Summary{Warnings: 1}, rep.Summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	if got := rep.Files[1].Findings[0]; got.Check != check.CheckPunctuation || got.Severity != check.SeverityWarning {
		t.Fatalf("finding = %+v", got)
	}
}

func TestRunMissingPath(t *testing.T) {
	err := Run(context.Background(), Config{Paths: []string{filepath.Join(t.TempDir(), "missing.ts")}}, nil)
	if err == nil || errors.Is(err, ErrFindings) {
		t.Fatalf("err = %v", err)
	}
	if err := Run(context.Background(), Config{Paths: []string{t.TempDir()}}, nil); err == nil {
		t.Fatal("expected error for directory without .ts files")
	}
}
