// Package sqlite provides a SQLite-backed document storage implementation.
package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/tscatalog/tscatalog/internal/platform/i18n/ts"
	sqlitemigrate "github.com/tscatalog/tscatalog/internal/platform/storage/sqlitemigrate"
	"github.com/tscatalog/tscatalog/internal/services/catalog/storage"
	"github.com/tscatalog/tscatalog/internal/services/catalog/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists translation documents in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var _ storage.DocumentStore = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite document store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Digest returns the hex SHA-256 of the serialized document.
func Digest(doc *ts.Document) string {
	sum := sha256.Sum256(ts.Marshal(doc))
	return hex.EncodeToString(sum[:])
}

func unfinishedCount(doc *ts.Document) int {
	count := 0
	for _, c := range doc.Contexts {
		for _, m := range c.Messages {
			if m.Status() == ts.StatusUnfinished {
				count++
			}
		}
	}
	return count
}

// SaveDocument stores doc under record.Path, replacing a prior import.
func (s *Store) SaveDocument(ctx context.Context, record storage.DocumentRecord, doc *ts.Document) (storage.DocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.DocumentRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.DocumentRecord{}, fmt.Errorf("storage is not configured")
	}
	path := strings.TrimSpace(record.Path)
	if path == "" {
		return storage.DocumentRecord{}, fmt.Errorf("document path is required")
	}
	if doc == nil {
		return storage.DocumentRecord{}, fmt.Errorf("document is required")
	}

	record.Path = path
	record.Locale = strings.TrimSpace(record.Locale)
	record.SHA256 = Digest(doc)
	record.Contexts = len(doc.Contexts)
	record.Messages = doc.MessageCount()
	record.Unfinished = unfinishedCount(doc)
	if record.ImportedAt.IsZero() {
		record.ImportedAt = s.now()
	}
	record.ImportedAt = record.ImportedAt.UTC().Truncate(time.Millisecond)

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.DocumentRecord{}, fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := deleteDocument(ctx, tx, path); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return storage.DocumentRecord{}, err
	}

	trailing := 0
	if doc.TrailingNewline {
		trailing = 1
	}
	result, err := tx.ExecContext(
		ctx,
		`INSERT INTO documents (
		   path, locale, version, language, source_language, trailing_newline,
		   sha256, context_count, message_count, unfinished_count, imported_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Path,
		record.Locale,
		doc.Version,
		doc.Language,
		doc.SourceLanguage,
		trailing,
		record.SHA256,
		record.Contexts,
		record.Messages,
		record.Unfinished,
		toMillis(record.ImportedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.DocumentRecord{}, fmt.Errorf("document %q was saved concurrently: %w", path, err)
		}
		return storage.DocumentRecord{}, fmt.Errorf("insert document: %w", err)
	}
	record.ID, err = result.LastInsertId()
	if err != nil {
		return storage.DocumentRecord{}, fmt.Errorf("read document id: %w", err)
	}

	for ci, c := range doc.Contexts {
		contextID, err := insertReturningID(ctx, tx,
			`INSERT INTO contexts (document_id, position, name, comment) VALUES (?, ?, ?, ?)`,
			record.ID, ci, c.Name, c.Comment)
		if err != nil {
			return storage.DocumentRecord{}, fmt.Errorf("insert context %q: %w", c.Name, err)
		}
		for mi, m := range c.Messages {
			if err := insertMessage(ctx, tx, contextID, mi, m); err != nil {
				return storage.DocumentRecord{}, fmt.Errorf("insert message %q in %q: %w", m.Source, c.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.DocumentRecord{}, fmt.Errorf("commit document: %w", err)
	}
	return record, nil
}

func insertReturningID(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func insertMessage(ctx context.Context, tx *sql.Tx, contextID int64, position int, m ts.Message) error {
	numerus := 0
	if m.Numerus {
		numerus = 1
	}
	messageID, err := insertReturningID(ctx, tx,
		`INSERT INTO messages (
		   context_id, position, message_id, numerus, source, old_source, comment,
		   old_comment, extra_comment, translator_comment, status, translation
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		contextID, position, m.ID, numerus, m.Source, m.OldSource, m.Comment,
		m.OldComment, m.ExtraComment, m.TranslatorComment, int(m.Translation.Status), m.Translation.Text)
	if err != nil {
		return err
	}
	for i, form := range m.Translation.NumerusForms {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO numerus_forms (message_id, position, text) VALUES (?, ?, ?)`,
			messageID, i, form); err != nil {
			return fmt.Errorf("insert numerus form: %w", err)
		}
	}
	for i, loc := range m.Locations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO locations (message_id, position, filename, line) VALUES (?, ?, ?, ?)`,
			messageID, i, loc.Filename, loc.Line); err != nil {
			return fmt.Errorf("insert location: %w", err)
		}
	}
	return nil
}

const recordColumns = `id, path, locale, sha256, context_count, message_count, unfinished_count, imported_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (storage.DocumentRecord, error) {
	var (
		record     storage.DocumentRecord
		importedAt int64
	)
	if err := row.Scan(
		&record.ID,
		&record.Path,
		&record.Locale,
		&record.SHA256,
		&record.Contexts,
		&record.Messages,
		&record.Unfinished,
		&importedAt,
	); err != nil {
		return storage.DocumentRecord{}, err
	}
	record.ImportedAt = fromMillis(importedAt)
	return record, nil
}

// GetDocument loads the document stored under path.
func (s *Store) GetDocument(ctx context.Context, path string) (*ts.Document, storage.DocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.DocumentRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, storage.DocumentRecord{}, fmt.Errorf("storage is not configured")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, storage.DocumentRecord{}, fmt.Errorf("document path is required")
	}

	var (
		doc      ts.Document
		trailing int
	)
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+recordColumns+`, version, language, source_language, trailing_newline
		 FROM documents WHERE path = ?`, path)
	var importedAt int64
	var record storage.DocumentRecord
	err := row.Scan(
		&record.ID, &record.Path, &record.Locale, &record.SHA256,
		&record.Contexts, &record.Messages, &record.Unfinished, &importedAt,
		&doc.Version, &doc.Language, &doc.SourceLanguage, &trailing,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.DocumentRecord{}, storage.ErrNotFound
		}
		return nil, storage.DocumentRecord{}, fmt.Errorf("get document: %w", err)
	}
	record.ImportedAt = fromMillis(importedAt)
	doc.TrailingNewline = trailing != 0

	if err := s.loadContexts(ctx, record.ID, &doc); err != nil {
		return nil, storage.DocumentRecord{}, err
	}
	return &doc, record, nil
}

func (s *Store) loadContexts(ctx context.Context, documentID int64, doc *ts.Document) error {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, comment FROM contexts WHERE document_id = ? ORDER BY position`, documentID)
	if err != nil {
		return fmt.Errorf("list contexts: %w", err)
	}
	contextIndex := map[int64]int{}
	for rows.Next() {
		var (
			id int64
			c  ts.Context
		)
		if err := rows.Scan(&id, &c.Name, &c.Comment); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan context: %w", err)
		}
		contextIndex[id] = len(doc.Contexts)
		doc.Contexts = append(doc.Contexts, c)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterate contexts: %w", err)
	}
	_ = rows.Close()

	type messageRef struct{ context, message int }
	messageIndex := map[int64]messageRef{}
	rows, err = s.sqlDB.QueryContext(ctx,
		`SELECT m.id, m.context_id, m.message_id, m.numerus, m.source, m.old_source, m.comment,
		        m.old_comment, m.extra_comment, m.translator_comment, m.status, m.translation
		 FROM messages m JOIN contexts c ON c.id = m.context_id
		 WHERE c.document_id = ?
		 ORDER BY c.position, m.position`, documentID)
	if err != nil {
		return fmt.Errorf("list messages: %w", err)
	}
	for rows.Next() {
		var (
			id, contextID   int64
			numerus, status int
			m               ts.Message
		)
		if err := rows.Scan(&id, &contextID, &m.ID, &numerus, &m.Source, &m.OldSource, &m.Comment,
			&m.OldComment, &m.ExtraComment, &m.TranslatorComment, &status, &m.Translation.Text); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan message: %w", err)
		}
		m.Numerus = numerus != 0
		m.Translation.Status = ts.Status(status)
		ci := contextIndex[contextID]
		messageIndex[id] = messageRef{context: ci, message: len(doc.Contexts[ci].Messages)}
		doc.Contexts[ci].Messages = append(doc.Contexts[ci].Messages, m)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterate messages: %w", err)
	}
	_ = rows.Close()

	message := func(id int64) *ts.Message {
		ref, ok := messageIndex[id]
		if !ok {
			return nil
		}
		return &doc.Contexts[ref.context].Messages[ref.message]
	}

	rows, err = s.sqlDB.QueryContext(ctx,
		`SELECT f.message_id, f.text
		 FROM numerus_forms f
		 JOIN messages m ON m.id = f.message_id
		 JOIN contexts c ON c.id = m.context_id
		 WHERE c.document_id = ?
		 ORDER BY f.message_id, f.position`, documentID)
	if err != nil {
		return fmt.Errorf("list numerus forms: %w", err)
	}
	for rows.Next() {
		var (
			id   int64
			text string
		)
		if err := rows.Scan(&id, &text); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan numerus form: %w", err)
		}
		if m := message(id); m != nil {
			m.Translation.NumerusForms = append(m.Translation.NumerusForms, text)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterate numerus forms: %w", err)
	}
	_ = rows.Close()

	rows, err = s.sqlDB.QueryContext(ctx,
		`SELECT l.message_id, l.filename, l.line
		 FROM locations l
		 JOIN messages m ON m.id = l.message_id
		 JOIN contexts c ON c.id = m.context_id
		 WHERE c.document_id = ?
		 ORDER BY l.message_id, l.position`, documentID)
	if err != nil {
		return fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id  int64
			loc ts.Location
		)
		if err := rows.Scan(&id, &loc.Filename, &loc.Line); err != nil {
			return fmt.Errorf("scan location: %w", err)
		}
		if m := message(id); m != nil {
			m.Locations = append(m.Locations, loc)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate locations: %w", err)
	}
	return nil
}

// ListDocuments returns every stored record ordered by path.
func (s *Store) ListDocuments(ctx context.Context) ([]storage.DocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+recordColumns+` FROM documents ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	records := make([]storage.DocumentRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return records, nil
}

// DeleteDocument removes the document stored under path.
func (s *Store) DeleteDocument(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("document path is required")
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := deleteDocument(ctx, tx, path); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// deleteDocument removes a document, deleting child rows first.
func deleteDocument(ctx context.Context, tx *sql.Tx, path string) error {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM documents WHERE path = ?`, path).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("find document: %w", err)
	}
	statements := []string{
		`DELETE FROM locations WHERE message_id IN (
		   SELECT m.id FROM messages m JOIN contexts c ON c.id = m.context_id WHERE c.document_id = ?)`,
		`DELETE FROM numerus_forms WHERE message_id IN (
		   SELECT m.id FROM messages m JOIN contexts c ON c.id = m.context_id WHERE c.document_id = ?)`,
		`DELETE FROM messages WHERE context_id IN (SELECT id FROM contexts WHERE document_id = ?)`,
		`DELETE FROM contexts WHERE document_id = ?`,
		`DELETE FROM documents WHERE id = ?`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
