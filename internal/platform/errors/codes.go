// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"
	// CodeInternal represents an unexpected failure.
	CodeInternal Code = "INTERNAL"

	// Catalog errors
	CodeCatalogNotLoaded   Code = "CATALOG_NOT_LOADED"
	CodeLocaleNotFound     Code = "LOCALE_NOT_FOUND"
	CodeContextNotFound    Code = "CONTEXT_NOT_FOUND"
	CodeSourceRequired     Code = "SOURCE_REQUIRED"
	CodeInvalidNumerus     Code = "INVALID_NUMERUS"
	CodeInvalidTranslation Code = "INVALID_TRANSLATION"
	CodeParseFailed        Code = "PARSE_FAILED"

	// Storage errors
	CodeDocumentNotFound Code = "DOCUMENT_NOT_FOUND"

	// Export errors
	CodeUnsupportedFormat Code = "UNSUPPORTED_FORMAT"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// BadRequest - validation failures, bad input
	case CodeSourceRequired,
		CodeInvalidNumerus,
		CodeUnsupportedFormat:
		return http.StatusBadRequest

	// UnprocessableEntity - input parsed but not acceptable
	case CodeParseFailed,
		CodeInvalidTranslation:
		return http.StatusUnprocessableEntity

	// NotFound - resource doesn't exist
	case CodeLocaleNotFound,
		CodeContextNotFound,
		CodeDocumentNotFound:
		return http.StatusNotFound

	// ServiceUnavailable - nothing loaded yet
	case CodeCatalogNotLoaded:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
