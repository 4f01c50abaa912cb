package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yash2163/ComplaintHandling-POC/internal/adapters/docstore"
	"github.com/yash2163/ComplaintHandling-POC/internal/config"
	"github.com/yash2163/ComplaintHandling-POC/internal/ports"
	"go.uber.org/zap"
)

// StoreFactory creates document stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateDocumentStore creates a document store based on the configuration
func (f *StoreFactory) CreateDocumentStore(ctx context.Context) (ports.DocumentStore, error) {
	storeCfg := f.cfg.GetStore()

	var (
		store ports.DocumentStore
		err   error
	)
	switch storeCfg.Type {
	case "memory":
		store = docstore.NewMemoryStore(f.logger)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(storeCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		store, err = docstore.NewSQLiteStore(storeCfg.SQLitePath, f.logger)
	case "mysql":
		store, err = docstore.NewMySQLStore(storeCfg.MySQLDSN, f.logger)
	case "postgres":
		store, err = docstore.NewPostgresStore(ctx, storeCfg.PostgresURL, f.logger)
	case "firestore":
		store, err = docstore.NewFirestoreStore(ctx, storeCfg.FirestoreProject, storeCfg.CredentialsFile, f.logger)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeCfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
