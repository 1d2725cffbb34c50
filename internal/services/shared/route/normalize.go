// Package route holds request path helpers shared by catalog HTTP handlers.
package route

import (
	"net/http"
	"strings"
)

// Canonical wraps next so requests with trailing "/" characters are redirected
// to the canonical path before routing.
func Canonical(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RedirectTrailingSlash(w, r) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedirectTrailingSlash strips trailing "/" characters from the request path
// and keeps the query string.
//
// It returns true when a redirect was written.
func RedirectTrailingSlash(w http.ResponseWriter, r *http.Request) bool {
	if w == nil || r == nil || r.URL == nil {
		return false
	}

	path := r.URL.Path
	canonical := strings.TrimRight(path, "/")
	if canonical == "" {
		canonical = "/"
	}
	if canonical == path {
		return false
	}
	if r.URL.RawQuery != "" {
		canonical += "?" + r.URL.RawQuery
	}

	status := http.StatusMovedPermanently
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		status = http.StatusPermanentRedirect
	}
	http.Redirect(w, r, canonical, status)
	return true
}
