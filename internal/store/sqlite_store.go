package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/structflo/structflo-ner/pkg/ner"
)

// Store is the SQLite-backed data store. Safe for concurrent use.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    source TEXT,
    engine TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

-- Note: No foreign keys - referential integrity managed at application level
CREATE TABLE IF NOT EXISTS entities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id TEXT NOT NULL,
    text TEXT NOT NULL,
    category TEXT NOT NULL,
    char_start INTEGER NOT NULL,
    char_end INTEGER NOT NULL,
    alignment TEXT,
    attributes TEXT
);

CREATE INDEX IF NOT EXISTS idx_entities_document ON entities(document_id);
CREATE INDEX IF NOT EXISTS idx_entities_category ON entities(category);
`

// New creates a new in-memory store.
func New() (*Store, error) {
	return NewWithDSN(":memory:")
}

// NewWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewWithDSN(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveDocument inserts or replaces a document.
func (s *Store) SaveDocument(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO documents (id, text, source, engine, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			source = excluded.source,
			engine = excluded.engine
	`, doc.ID, doc.Text, doc.Source, doc.Engine, doc.CreatedAt)
	return err
}

// GetDocument retrieves a document by ID. Returns nil when absent.
func (s *Store) GetDocument(id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc Document
	var source sql.NullString
	err := s.db.QueryRow(`
		SELECT id, text, source, engine, created_at FROM documents WHERE id = ?
	`, id).Scan(&doc.ID, &doc.Text, &source, &doc.Engine, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if source.Valid {
		doc.Source = source.String
	}
	return &doc, nil
}

// DeleteDocument removes a document and its entities.
func (s *Store) DeleteDocument(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM entities WHERE document_id = ?", id); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM documents WHERE id = ?", id)
	return err
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments() ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, text, source, engine, created_at
		FROM documents ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var doc Document
		var source sql.NullString
		if err := rows.Scan(&doc.ID, &doc.Text, &source, &doc.Engine, &doc.CreatedAt); err != nil {
			return nil, err
		}
		if source.Valid {
			doc.Source = source.String
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// CountDocuments returns the total number of documents.
func (s *Store) CountDocuments() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&count)
	return count, err
}

// SaveEntities replaces the entity rows for a document in one transaction.
func (s *Store) SaveEntities(documentID string, entities []EntityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entities WHERE document_id = ?", documentID); err != nil {
		return err
	}
	for _, e := range entities {
		attrsJSON, err := marshalAttributes(e.Attributes)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO entities (document_id, text, category, char_start, char_end, alignment, attributes)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, documentID, e.Text, e.Category, e.Start, e.End, e.Alignment, attrsJSON)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetEntities returns all entity rows for a document in insertion order.
func (s *Store) GetEntities(documentID string) ([]EntityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, document_id, text, category, char_start, char_end, alignment, attributes
		FROM entities WHERE document_id = ? ORDER BY id
	`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntities(rows)
}

// ListEntitiesByCategory returns every stored entity of a category.
func (s *Store) ListEntitiesByCategory(category string) ([]EntityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, document_id, text, category, char_start, char_end, alignment, attributes
		FROM entities WHERE category = ? ORDER BY id
	`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntities(rows)
}

// CountEntities returns the total number of stored entities.
func (s *Store) CountEntities() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM entities").Scan(&count)
	return count, err
}

// SaveResult persists a document and its extraction result together.
func (s *Store) SaveResult(doc *Document, result *ner.Result) error {
	if err := s.SaveDocument(doc); err != nil {
		return err
	}
	entities := result.AllEntities()
	records := make([]EntityRecord, 0, len(entities))
	for _, e := range entities {
		records = append(records, EntityRecord{
			DocumentID: doc.ID,
			Text:       e.Text,
			Category:   e.Category,
			Start:      e.Start,
			End:        e.End,
			Alignment:  e.Alignment,
			Attributes: e.Attributes,
		})
	}
	return s.SaveEntities(doc.ID, records)
}

// GetResult reassembles the bucketed result for a document. Returns nil when
// the document is absent.
func (s *Store) GetResult(documentID string) (*ner.Result, error) {
	doc, err := s.GetDocument(documentID)
	if err != nil || doc == nil {
		return nil, err
	}
	records, err := s.GetEntities(documentID)
	if err != nil {
		return nil, err
	}

	result := ner.NewResult(doc.Text)
	for _, r := range records {
		result.Add(ner.Entity{
			Text:       r.Text,
			Category:   r.Category,
			Start:      r.Start,
			End:        r.End,
			Alignment:  r.Alignment,
			Attributes: r.Attributes,
		})
	}
	return result, nil
}

func scanEntities(rows *sql.Rows) ([]EntityRecord, error) {
	var entities []EntityRecord
	for rows.Next() {
		var e EntityRecord
		var alignment, attrsJSON sql.NullString
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.Text, &e.Category,
			&e.Start, &e.End, &alignment, &attrsJSON); err != nil {
			return nil, err
		}
		if alignment.Valid {
			e.Alignment = alignment.String
		}
		if attrsJSON.Valid && attrsJSON.String != "" {
			if err := json.Unmarshal([]byte(attrsJSON.String), &e.Attributes); err != nil {
				e.Attributes = nil
			}
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func marshalAttributes(attrs map[string]string) (string, error) {
	if len(attrs) == 0 {
		return "", nil
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal attributes: %w", err)
	}
	return string(b), nil
}

// Compile-time interface check
var _ Storer = (*Store)(nil)
