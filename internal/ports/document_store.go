package ports

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a document does not exist
var ErrNotFound = errors.New("document not found")

// Document is a schemaless record as held by a document store
type Document map[string]any

// Snapshot pairs a document with its id
type Snapshot struct {
	ID   string
	Data Document
}

// Filter is an equality condition on a top-level field
type Filter struct {
	Field string
	Value any
}

// QueryOptions controls ordering and size of a query result
type QueryOptions struct {
	OrderBy    string
	Descending bool
	Limit      int
}

// DocumentStore defines the interface for the case store backends
type DocumentStore interface {
	// Get returns the document with the given id, or ErrNotFound
	Get(ctx context.Context, collection, id string) (Document, error)

	// Query returns documents matching every filter
	Query(ctx context.Context, collection string, filters []Filter, opts QueryOptions) ([]Snapshot, error)

	// Set creates or replaces a document
	Set(ctx context.Context, collection, id string, doc Document) error

	// Update merges top-level fields into an existing document.
	// It returns ErrNotFound when the document does not exist.
	Update(ctx context.Context, collection, id string, fields Document) error

	// Close releases the backend connection
	Close() error
}
