package docstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// FirestoreStore is a Firestore implementation of the DocumentStore interface
type FirestoreStore struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestoreStore initialises a Firebase app for projectID and opens its
// Firestore client. An empty credentialsFile uses application default
// credentials.
func NewFirestoreStore(ctx context.Context, projectID, credentialsFile string, logger *zap.Logger) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firestore client: %w", err)
	}

	logger.Info("Firestore document store initialised", zap.String("project_id", projectID))
	return &FirestoreStore{client: client, logger: logger}, nil
}

// Get retrieves a document by id
func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (ports.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if snap != nil && !snap.Exists() {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return snap.Data(), nil
}

// Query returns documents matching every filter
func (s *FirestoreStore) Query(ctx context.Context, collection string, filters []ports.Filter, opts ports.QueryOptions) ([]ports.Snapshot, error) {
	if err := validateFilters(filters, opts); err != nil {
		return nil, err
	}

	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, "==", f.Value)
	}
	if opts.OrderBy != "" {
		dir := firestore.Asc
		if opts.Descending {
			dir = firestore.Desc
		}
		q = q.OrderBy(opts.OrderBy, dir)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var snaps []ports.Snapshot
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", collection, err)
		}
		snaps = append(snaps, ports.Snapshot{ID: doc.Ref.ID, Data: doc.Data()})
	}
	return snaps, nil
}

// Set creates or replaces a document
func (s *FirestoreStore) Set(ctx context.Context, collection, id string, doc ports.Document) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, map[string]any(doc)); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update merges top-level fields into an existing document
func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fields ports.Document) error {
	ref := s.client.Collection(collection).Doc(id)
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if snap != nil && !snap.Exists() {
			return ports.ErrNotFound
		}
		if err != nil {
			return err
		}
		return tx.Update(ref, updates)
	})
	if errors.Is(err, ports.ErrNotFound) {
		return ports.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return nil
}

// Close closes the Firestore client
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
