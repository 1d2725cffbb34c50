package app

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/tscatalog/tscatalog/internal/platform/errors"
	errori18n "github.com/tscatalog/tscatalog/internal/platform/errors/i18n"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/catalog"
	"github.com/tscatalog/tscatalog/internal/platform/i18n/status"
	"github.com/tscatalog/tscatalog/internal/platform/logging"
	"github.com/tscatalog/tscatalog/internal/platform/otel"
	"github.com/tscatalog/tscatalog/internal/services/shared/i18nhttp"
	"github.com/tscatalog/tscatalog/internal/services/shared/route"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// BundleSource supplies the bundle to serve. Implementations must be safe
// for concurrent use.
type BundleSource interface {
	Bundle() *catalog.Bundle
}

// StaticBundle serves a fixed bundle.
type StaticBundle struct {
	B *catalog.Bundle
}

// Bundle returns the fixed bundle.
func (s StaticBundle) Bundle() *catalog.Bundle {
	return s.B
}

type handler struct {
	source BundleSource
	logger *zap.Logger
}

// NewHandler returns the HTTP API over source.
func NewHandler(source BundleSource, logger *zap.Logger) http.Handler {
	h := &handler{source: source, logger: logging.OrNop(logger)}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /v1/locales", h.handleLocales)
	mux.HandleFunc("GET /v1/translate", h.handleTranslate)
	mux.HandleFunc("GET /v1/contexts", h.handleContexts)
	mux.HandleFunc("GET /v1/contexts/{name}", h.handleContext)
	mux.HandleFunc("GET /v1/status", h.handleStatus)
	return route.Canonical(mux)
}

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type localesResponse struct {
	Source  string                    `json:"source"`
	Locales []i18nhttp.LanguageOption `json:"locales"`
}

type translateResponse struct {
	Locale     string `json:"locale"`
	Text       string `json:"text"`
	Translated bool   `json:"translated"`
}

type contextSummary struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
	Served  int    `json:"served"`
}

type contextsResponse struct {
	Locale   string           `json:"locale"`
	Contexts []contextSummary `json:"contexts"`
}

type entryView struct {
	Source         string   `json:"source"`
	Disambiguation string   `json:"disambiguation,omitempty"`
	Numerus        bool     `json:"numerus,omitempty"`
	Status         string   `json:"status"`
	Translations   []string `json:"translations"`
	Location       string   `json:"location,omitempty"`
	Missing        []string `json:"missing_placeholders,omitempty"`
	Served         bool     `json:"served"`
	Duplicate      bool     `json:"duplicate,omitempty"`
}

type contextResponse struct {
	Locale  string      `json:"locale"`
	Context string      `json:"context"`
	Entries []entryView `json:"entries"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(body)
}

// errorLocale picks the language for an error message: the resolved
// locale, else the caller's first Accept-Language preference.
func errorLocale(r *http.Request, resolved string) string {
	if resolved != "" {
		return resolved
	}
	if r == nil {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return ""
	}
	return tags[0].String()
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, locale string, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Wrap(apperrors.CodeInternal, "unexpected error", err)
	}
	status := appErr.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
		)
	}
	message := errori18n.GetCatalog(errorLocale(r, locale)).Format(string(appErr.Code), appErr.Metadata)
	writeJSON(w, status, errorBody{Error: errorPayload{
		Code:     string(appErr.Code),
		Message:  message,
		Metadata: appErr.Metadata,
	}})
}

func (h *handler) bundle(w http.ResponseWriter, r *http.Request) (*catalog.Bundle, bool) {
	var bundle *catalog.Bundle
	if h.source != nil {
		bundle = h.source.Bundle()
	}
	if bundle == nil {
		h.writeError(w, r, "", apperrors.New(apperrors.CodeCatalogNotLoaded, "no bundle loaded"))
		return nil, false
	}
	return bundle, true
}

func (h *handler) resolve(w http.ResponseWriter, r *http.Request, bundle *catalog.Bundle) (i18nhttp.Resolution, bool) {
	res, err := i18nhttp.ResolveLocale(r, bundle)
	if err != nil {
		h.writeError(w, r, "", err)
		return res, false
	}
	if res.Persist() {
		i18nhttp.SetLanguageCookie(w, res.Locale)
	}
	return res, true
}

// requireLocale resolves a request that must name a loaded locale.
func (h *handler) requireLocale(w http.ResponseWriter, r *http.Request, bundle *catalog.Bundle) (string, bool) {
	res, ok := h.resolve(w, r, bundle)
	if !ok {
		return "", false
	}
	if res.Locale == "" {
		requested := ""
		if res.Requested != language.Und {
			requested = res.Requested.String()
		}
		h.writeError(w, r, "", apperrors.WithMetadata(apperrors.CodeLocaleNotFound,
			"no loaded locale matches the request", map[string]string{"Locale": requested}))
		return "", false
	}
	return res.Locale, true
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	bundle, ok := h.bundle(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"locales": len(bundle.Locales()),
	})
}

func (h *handler) handleLocales(w http.ResponseWriter, r *http.Request) {
	bundle, ok := h.bundle(w, r)
	if !ok {
		return
	}
	res, ok := h.resolve(w, r, bundle)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, localesResponse{
		Source:  catalog.SourceLocale,
		Locales: i18nhttp.BuildLanguageOptions(bundle.Locales(), res.Locale),
	})
}

func (h *handler) handleTranslate(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer().Start(r.Context(), "catalog.Translate")
	defer span.End()
	r = r.WithContext(ctx)

	bundle, ok := h.bundle(w, r)
	if !ok {
		return
	}
	res, ok := h.resolve(w, r, bundle)
	if !ok {
		return
	}

	query := r.URL.Query()
	context := query.Get("context")
	source := query.Get("source")
	disambiguation := query.Get("disambiguation")
	if strings.TrimSpace(source) == "" {
		h.writeError(w, r, res.Locale, apperrors.New(apperrors.CodeSourceRequired, "source is required"))
		return
	}
	args := make([]any, 0, len(query["arg"]))
	for _, arg := range query["arg"] {
		args = append(args, arg)
	}

	locale := res.Locale
	if locale == "" {
		locale = catalog.SourceLocale
	}
	span.SetAttributes(
		attribute.String("catalog.locale", locale),
		attribute.String("catalog.context", context),
	)
	translator := bundle.Translator(locale)

	var text string
	if raw, counted := query["n"]; counted {
		n, err := strconv.Atoi(strings.TrimSpace(raw[0]))
		if err != nil {
			h.writeError(w, r, res.Locale, apperrors.WithMetadata(apperrors.CodeInvalidNumerus,
				"n is not an integer", map[string]string{"Value": raw[0]}))
			return
		}
		text = translator.TranslateN(context, source, disambiguation, n, args...)
	} else {
		text = translator.Translate(context, source, disambiguation, args...)
	}
	_, translated := translator.Lookup(context, source, disambiguation)
	span.SetAttributes(attribute.Bool("catalog.translated", translated))

	writeJSON(w, http.StatusOK, translateResponse{
		Locale:     translator.Locale(),
		Text:       text,
		Translated: translated,
	})
}

func (h *handler) handleContexts(w http.ResponseWriter, r *http.Request) {
	bundle, ok := h.bundle(w, r)
	if !ok {
		return
	}
	locale, ok := h.requireLocale(w, r, bundle)
	if !ok {
		return
	}
	c := bundle.Catalog(locale)
	names := c.Contexts()
	out := contextsResponse{Locale: locale, Contexts: make([]contextSummary, 0, len(names))}
	for _, name := range names {
		summary := contextSummary{Name: name}
		for _, entry := range c.Entries(name) {
			summary.Entries++
			if entry.Served {
				summary.Served++
			}
		}
		out.Contexts = append(out.Contexts, summary)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) handleContext(w http.ResponseWriter, r *http.Request) {
	bundle, ok := h.bundle(w, r)
	if !ok {
		return
	}
	locale, ok := h.requireLocale(w, r, bundle)
	if !ok {
		return
	}
	name := r.PathValue("name")
	c := bundle.Catalog(locale)
	if !c.HasContext(name) {
		h.writeError(w, r, locale, apperrors.WithMetadata(apperrors.CodeContextNotFound,
			"context does not exist", map[string]string{"Context": name, "Locale": locale}))
		return
	}
	entries := c.Entries(name)
	out := contextResponse{Locale: locale, Context: name, Entries: make([]entryView, 0, len(entries))}
	for _, entry := range entries {
		out.Entries = append(out.Entries, entryView{
			Source:         entry.Key.Source,
			Disambiguation: entry.Key.Disambiguation,
			Numerus:        entry.Numerus,
			Status:         entry.Status.String(),
			Translations:   entry.Texts,
			Location:       entry.Location,
			Missing:        entry.Missing,
			Served:         entry.Served,
			Duplicate:      entry.Duplicate,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	bundle, ok := h.bundle(w, r)
	if !ok {
		return
	}
	rep := status.Build(bundle)
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, rep)
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(status.Markdown(rep)))
	default:
		h.writeError(w, r, "", apperrors.WithMetadata(apperrors.CodeUnsupportedFormat,
			"unsupported status format", map[string]string{"Format": format}))
	}
}
