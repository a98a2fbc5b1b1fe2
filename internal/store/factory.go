package store

import (
	"fmt"
	"log"
)

// New constructs a Store from cfg. A SQLite backend that fails to open
// falls back to cfg.FallbackType if set, so a misconfigured or
// unreachable database degrades gracefully instead of aborting startup.
func New(cfg Config) (Store, error) {
	switch cfg.Type {
	case BackendMemory, "":
		log.Println("store: using in-memory pipeline artifact store")
		return NewMemoryStore(), nil

	case BackendSQLite:
		log.Printf("store: using SQLite pipeline artifact store at %s", cfg.SQLitePath)
		sqliteStore, err := NewSQLiteStore(cfg.SQLitePath, cfg.SQLiteTimeout)
		if err != nil {
			if cfg.FallbackType != "" && cfg.FallbackType != cfg.Type {
				log.Printf("store: SQLite init failed: %v; falling back to %s", err, cfg.FallbackType)
				return New(Config{Type: cfg.FallbackType})
			}
			return nil, fmt.Errorf("store: sqlite init failed: %w", err)
		}
		return sqliteStore, nil

	default:
		return nil, fmt.Errorf("store: unknown backend type %q", cfg.Type)
	}
}

// NewFromEnv constructs a Store using ConfigFromEnv.
func NewFromEnv() (Store, error) {
	return New(ConfigFromEnv())
}
