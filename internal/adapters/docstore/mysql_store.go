package docstore

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var mysqlDialect = sqlDialect{
	name: "MySQL",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection VARCHAR(128) NOT NULL,
			id VARCHAR(255) NOT NULL,
			data JSON NOT NULL,
			updated_at DATETIME(6),
			PRIMARY KEY (collection, id)
		)`,
	},
	upsert: `INSERT INTO documents (collection, id, data, updated_at) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE data = VALUES(data), updated_at = VALUES(updated_at)`,
	selectLock: ` FOR UPDATE`,
	jsonField: func(field string) string {
		return fmt.Sprintf("JSON_UNQUOTE(JSON_EXTRACT(data, '$.%s'))", field)
	},
}

// MySQLStore is a MySQL implementation of the DocumentStore interface
type MySQLStore struct {
	*sqlStore
}

// NewMySQLStore connects to MySQL using dsn and ensures the schema exists
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	store, err := newSQLStore(db, mysqlDialect, logger)
	if err != nil {
		return nil, err
	}
	return &MySQLStore{store}, nil
}
