package docstore

import (
	"context"
	"sync"

	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of the DocumentStore interface
type MemoryStore struct {
	collections map[string]map[string]ports.Document
	mu          sync.RWMutex
	logger      *zap.Logger
}

// NewMemoryStore creates a new in-memory document store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]ports.Document),
		logger:      logger,
	}
}

// Get retrieves a document by id
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (ports.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneDocument(doc), nil
}

// Query returns documents matching every filter
func (s *MemoryStore) Query(ctx context.Context, collection string, filters []ports.Filter, opts ports.QueryOptions) ([]ports.Snapshot, error) {
	if err := validateFilters(filters, opts); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var snaps []ports.Snapshot
	for id, doc := range s.collections[collection] {
		if matchesFilters(doc, filters) {
			snaps = append(snaps, ports.Snapshot{ID: id, Data: cloneDocument(doc)})
		}
	}
	return sortAndLimit(snaps, opts), nil
}

// Set creates or replaces a document
func (s *MemoryStore) Set(ctx context.Context, collection, id string, doc ports.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]ports.Document)
		s.collections[collection] = docs
	}
	docs[id] = cloneDocument(doc)
	return nil
}

// Update merges fields into an existing document
func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields ports.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return ports.ErrNotFound
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() error {
	s.logger.Debug("Closing memory store")
	return nil
}
