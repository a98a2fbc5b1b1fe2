package store

import (
	"os"
	"strconv"
)

// BackendType names which Store implementation to construct.
type BackendType string

const (
	BackendMemory BackendType = "memory"
	BackendSQLite BackendType = "sqlite"
)

// Config selects and parameterizes a Store backend.
type Config struct {
	Type          BackendType
	SQLitePath    string
	SQLiteTimeout int // busy timeout in milliseconds
	FallbackType  BackendType
}

// DefaultConfig returns an in-memory configuration.
func DefaultConfig() Config {
	return Config{
		Type:          BackendMemory,
		SQLitePath:    "./data/semra-pipeline.db",
		SQLiteTimeout: 5000,
	}
}

// ConfigFromEnv reads SEMRA_STORE_TYPE, SEMRA_STORE_SQLITE_PATH, and
// SEMRA_STORE_SQLITE_TIMEOUT, falling back to DefaultConfig for anything
// unset.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("SEMRA_STORE_TYPE"); v != "" {
		cfg.Type = BackendType(v)
	}
	if v := os.Getenv("SEMRA_STORE_SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}
	if v := os.Getenv("SEMRA_STORE_SQLITE_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SQLiteTimeout = n
		}
	}
	return cfg
}
