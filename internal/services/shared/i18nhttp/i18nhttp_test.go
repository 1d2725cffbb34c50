package i18nhttp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/tscatalog/tscatalog/internal/platform/errors"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
)

func embeddedBundle(t *testing.T) *catalog.Bundle {
	t.Helper()
	bundle, err := catalog.LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	return bundle
}

func TestResolveLocaleFromQuery(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "http://example.com/?lang=de-AT", nil)
	res, err := ResolveLocale(req, embeddedBundle(t))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Locale != "de" || res.Source != SourceQuery || !res.Persist() {
		t.Fatalf("resolution = %+v", res)
	}
}

func TestResolveLocaleRejectsUnknownQuery(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "http://example.com/?lang=ja", nil)
	_, err := ResolveLocale(req, embeddedBundle(t))
	if apperrors.CodeOf(err) != apperrors.CodeLocaleNotFound {
		t.Fatalf("code = %v, want %v", apperrors.CodeOf(err), apperrors.CodeLocaleNotFound)
	}
}

func TestResolveLocaleFromCookieAndHeader(t *testing.T) {
	t.Parallel()
	bundle := embeddedBundle(t)

	req := httptest.NewRequest("GET", "http://example.com/", nil)
	req.AddCookie(&http.Cookie{Name: LangCookieName, Value: "fi"})
	req.Header.Set("Accept-Language", "de")
	res, err := ResolveLocale(req, bundle)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Locale != "fi" || res.Source != SourceCookie || res.Persist() {
		t.Fatalf("cookie resolution = %+v", res)
	}

	req = httptest.NewRequest("GET", "http://example.com/", nil)
	req.Header.Set("Accept-Language", "ja, de;q=0.8")
	res, err = ResolveLocale(req, bundle)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Locale != "de" || res.Source != SourceHeader {
		t.Fatalf("header resolution = %+v", res)
	}

	req = httptest.NewRequest("GET", "http://example.com/", nil)
	req.Header.Set("Accept-Language", "ja")
	res, err = ResolveLocale(req, bundle)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Locale != "" || res.Requested != language.Japanese {
		t.Fatalf("unmatched resolution = %+v", res)
	}
}

func TestSetLanguageCookie(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	SetLanguageCookie(rec, "fi")
	if got := rec.Header().Get("Set-Cookie"); !strings.HasPrefix(got, LangCookieName+"=fi") {
		t.Fatalf("Set-Cookie = %q", got)
	}
	rec = httptest.NewRecorder()
	SetLanguageCookie(rec, "")
	if got := rec.Header().Get("Set-Cookie"); got != "" {
		t.Fatalf("Set-Cookie = %q, want none", got)
	}
}

func TestBuildLanguageOptions(t *testing.T) {
	t.Parallel()

	options := BuildLanguageOptions([]string{"de", "fi"}, "fi")
	if len(options) != 2 {
		t.Fatalf("len(options) = %d, want 2", len(options))
	}
	if options[0].Label != "Deutsch" || options[1].Label != "suomi" {
		t.Fatalf("labels = %q, %q", options[0].Label, options[1].Label)
	}
	if options[0].Active || !options[1].Active {
		t.Fatalf("options = %+v", options)
	}
}
