package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
)

// sqlDialect holds the statements that differ between database/sql backends
type sqlDialect struct {
	name       string
	schema     []string
	upsert     string
	selectLock string
	jsonField  func(field string) string
}

// sqlStore keeps documents as JSON in a single documents table keyed by
// collection and id
type sqlStore struct {
	db      *sql.DB
	dialect sqlDialect
	logger  *zap.Logger
}

func newSQLStore(db *sql.DB, dialect sqlDialect, logger *zap.Logger) (*sqlStore, error) {
	for _, stmt := range dialect.schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create %s schema: %w", dialect.name, err)
		}
	}
	return &sqlStore{db: db, dialect: dialect, logger: logger}, nil
}

// Get retrieves a document by id
func (s *sqlStore) Get(ctx context.Context, collection, id string) (ports.Document, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return decodeDocument(data)
}

// Query returns documents matching every filter. Filtering happens in SQL;
// ordering and limit are applied after decoding so that timestamps compare
// as times.
func (s *sqlStore) Query(ctx context.Context, collection string, filters []ports.Filter, opts ports.QueryOptions) ([]ports.Snapshot, error) {
	if err := validateFilters(filters, opts); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(`SELECT id, data FROM documents WHERE collection = ?`)
	args := []any{collection}
	for _, f := range filters {
		fmt.Fprintf(&b, " AND %s = ?", s.dialect.jsonField(f.Field))
		args = append(args, filterValue(f.Value))
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	var snaps []ports.Snapshot
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", collection, err)
		}
		doc, err := decodeDocument(data)
		if err != nil {
			s.logger.Warn("Skipping undecodable document",
				zap.String("collection", collection),
				zap.String("id", id),
				zap.Error(err))
			continue
		}
		snaps = append(snaps, ports.Snapshot{ID: id, Data: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s rows: %w", collection, err)
	}
	return sortAndLimit(snaps, opts), nil
}

// Set creates or replaces a document
func (s *sqlStore) Set(ctx context.Context, collection, id string, doc ports.Document) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, collection, id, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update merges fields into an existing document inside a transaction
func (s *sqlStore) Update(ctx context.Context, collection, id string, fields ports.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin update of %s/%s: %w", collection, id, err)
	}
	defer tx.Rollback()

	var data []byte
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`+s.dialect.selectLock,
		collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load %s/%s for update: %w", collection, id, err)
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return err
	}
	for k, v := range fields {
		doc[k] = v
	}
	merged, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(merged), time.Now().UTC(), collection, id); err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit update of %s/%s: %w", collection, id, err)
	}
	return nil
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close %s database: %w", s.dialect.name, err)
	}
	return nil
}
