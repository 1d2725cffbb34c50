package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnknown            = "UNKNOWN"
	CodeInternal           = "INTERNAL"
	CodeCatalogNotLoaded   = "CATALOG_NOT_LOADED"
	CodeLocaleNotFound     = "LOCALE_NOT_FOUND"
	CodeContextNotFound    = "CONTEXT_NOT_FOUND"
	CodeSourceRequired     = "SOURCE_REQUIRED"
	CodeInvalidNumerus     = "INVALID_NUMERUS"
	CodeInvalidTranslation = "INVALID_TRANSLATION"
	CodeParseFailed        = "PARSE_FAILED"
	CodeDocumentNotFound   = "DOCUMENT_NOT_FOUND"
	CodeUnsupportedFormat  = "UNSUPPORTED_FORMAT"
)

// sourceMessages are the English templates. They double as the source
// texts of the "Errors" context in the embedded translations, with the
// code as disambiguation.
var sourceMessages = map[Code]string{
	CodeUnknown:            "An unknown error occurred.",
	CodeInternal:           "An internal error occurred.",
	CodeCatalogNotLoaded:   "No translation catalog is loaded.",
	CodeLocaleNotFound:     "Locale {{.Locale}} is not available.",
	CodeContextNotFound:    "Context {{.Context}} does not exist in locale {{.Locale}}.",
	CodeSourceRequired:     "A source text is required.",
	CodeInvalidNumerus:     "The count {{.Value}} is not a whole number.",
	CodeInvalidTranslation: "The translation file has {{.Errors}} errors.",
	CodeParseFailed:        "The translation file could not be read.",
	CodeDocumentNotFound:   "No stored catalog matches {{.Path}}.",
	CodeUnsupportedFormat:  "Export format {{.Format}} is not supported.",
}
