// Package store provides SQLite-backed persistence for extraction results.
package store

// Document is a processed source text.
type Document struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Source    string `json:"source,omitempty"`
	Engine    string `json:"engine"` // "fast" or "llm"
	CreatedAt int64  `json:"createdAt"`
}

// EntityRecord is one extracted entity row belonging to a document.
// Start and End are byte offsets into the document text; -1 means the span
// could not be aligned.
type EntityRecord struct {
	ID         int64             `json:"id"`
	DocumentID string            `json:"documentId"`
	Text       string            `json:"text"`
	Category   string            `json:"category"`
	Start      int               `json:"charStart"`
	End        int               `json:"charEnd"`
	Alignment  string            `json:"alignment,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Storer defines the persistence surface. Store is the sole implementation.
type Storer interface {
	SaveDocument(doc *Document) error
	GetDocument(id string) (*Document, error)
	DeleteDocument(id string) error
	ListDocuments() ([]*Document, error)
	CountDocuments() (int, error)

	SaveEntities(documentID string, entities []EntityRecord) error
	GetEntities(documentID string) ([]EntityRecord, error)
	ListEntitiesByCategory(category string) ([]EntityRecord, error)
	CountEntities() (int, error)

	Close() error
}
