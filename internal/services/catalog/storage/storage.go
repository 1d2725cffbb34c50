// Package storage defines persistence contracts for imported translation documents.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/tscatalog/tscatalog/internal/platform/i18n/ts"
)

// ErrNotFound indicates a requested document is missing.
var ErrNotFound = errors.New("record not found")

// DocumentRecord describes one stored .ts document.
type DocumentRecord struct {
	ID         int64
	Path       string
	Locale     string
	SHA256     string
	Contexts   int
	Messages   int
	Unfinished int
	ImportedAt time.Time
}

// DocumentStore persists parsed .ts documents keyed by their source path.
type DocumentStore interface {
	// SaveDocument stores doc under record.Path, replacing any prior import
	// of that path, and returns the stored record.
	SaveDocument(ctx context.Context, record DocumentRecord, doc *ts.Document) (DocumentRecord, error)
	// GetDocument loads the document stored under path.
	GetDocument(ctx context.Context, path string) (*ts.Document, DocumentRecord, error)
	// ListDocuments returns every stored record ordered by path.
	ListDocuments(ctx context.Context) ([]DocumentRecord, error)
	// DeleteDocument removes the document stored under path.
	DeleteDocument(ctx context.Context, path string) error
}
