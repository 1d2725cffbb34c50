// Package i18nhttp resolves the language of HTTP requests against a
// translation bundle.
package i18nhttp

import (
	"net/http"
	"strings"
	"time"

	apperrors "github.com/tscatalog/tscatalog/internal/platform/errors"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the caller's language preference.
	LangCookieName = "tscatalog_lang"
)

// Source records where a request's language came from.
type Source string

const (
	SourceNone   Source = ""
	SourceQuery  Source = "query"
	SourceCookie Source = "cookie"
	SourceHeader Source = "accept-language"
)

// Resolution is the outcome of matching a request against a bundle.
type Resolution struct {
	// Requested is the language the caller asked for.
	Requested language.Tag
	// Locale is the loaded locale serving the request, or "" when the
	// source texts should be used.
	Locale string
	Source Source
}

// Persist reports whether the choice should be stored in a cookie.
func (r Resolution) Persist() bool {
	return r.Source == SourceQuery
}

// ResolveLocale determines the best loaded locale for the request: the
// lang query parameter, then the language cookie, then Accept-Language.
// An explicit lang that no catalog serves is an error; an unmatched cookie
// or header falls through to the source texts.
func ResolveLocale(r *http.Request, bundle *catalog.Bundle) (Resolution, error) {
	if r == nil {
		return Resolution{Requested: language.Und}, nil
	}

	if langValue := strings.TrimSpace(r.URL.Query().Get(LangParam)); langValue != "" {
		notFound := apperrors.WithMetadata(apperrors.CodeLocaleNotFound,
			"requested locale is not loaded", map[string]string{"Locale": langValue})
		tag, err := catalog.ParseLocale(langValue)
		if err != nil {
			return Resolution{}, notFound
		}
		locale, ok := bundle.Match(tag)
		if !ok {
			return Resolution{}, notFound
		}
		return Resolution{Requested: tag, Locale: locale, Source: SourceQuery}, nil
	}

	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, err := catalog.ParseLocale(cookie.Value); err == nil {
			if locale, ok := bundle.Match(tag); ok {
				return Resolution{Requested: tag, Locale: locale, Source: SourceCookie}, nil
			}
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			resolution := Resolution{Requested: tags[0], Source: SourceHeader}
			if locale, ok := bundle.Match(tags...); ok {
				resolution.Locale = locale
			}
			return resolution, nil
		}
	}

	return Resolution{Requested: language.Und}, nil
}

// SetLanguageCookie persists the selected locale on the response.
func SetLanguageCookie(w http.ResponseWriter, locale string) {
	if w == nil || strings.TrimSpace(locale) == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    locale,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// LanguageOption describes one loaded locale.
type LanguageOption struct {
	Tag    string `json:"tag"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// BuildLanguageOptions lists locales with their self-names, marking active.
func BuildLanguageOptions(locales []string, active string) []LanguageOption {
	options := make([]LanguageOption, 0, len(locales))
	for _, locale := range locales {
		label := locale
		if tag, err := catalog.ParseLocale(locale); err == nil {
			if name := display.Self.Name(tag); name != "" {
				label = name
			}
		}
		options = append(options, LanguageOption{
			Tag:    locale,
			Label:  label,
			Active: locale == active,
		})
	}
	return options
}
