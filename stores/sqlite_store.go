package stores

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sharedMemoryDSN keeps one in-memory database across the pool's connections.
const sharedMemoryDSN = "file::memory:?cache=shared"

// SQLiteStore implements MessageStore for SQLite databases
type SQLiteStore struct {
	gormStore
	dbPath string
}

// NewSQLiteStore creates a new SQLite store. The "memory" type opens an in-memory
// database that lives as long as the process.
func NewSQLiteStore(config *StoreConfig) (*SQLiteStore, error) {
	var path string
	switch config.Type {
	case "sqlite":
		path = config.Connection
		if path == "" {
			path = "parsa_history.sqlite"
		}
	case "memory":
		path = sharedMemoryDSN
	default:
		return nil, fmt.Errorf("invalid store type for SQLite store: %s", config.Type)
	}

	store := &SQLiteStore{dbPath: path}
	if err := store.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}
	return store, nil
}

// NewSQLiteStoreSimple creates a new SQLite store with just a file path
func NewSQLiteStoreSimple(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStore(NewStoreConfig("sqlite", dbPath))
}

// Connect establishes a connection to the SQLite database
func (s *SQLiteStore) Connect() error {
	db, err := gorm.Open(sqlite.Open(s.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to SQLite database: %w", err)
	}
	s.db = db
	return s.migrate()
}
