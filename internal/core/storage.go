package core

import (
	"context"
	"fmt"

	"inventorycore/internal/infra/persistence/memory"
	"inventorycore/internal/infra/persistence/postgres"
	"inventorycore/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig selects and parameterizes a backend.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
}

// OpenPersistentStore opens the configured backend. An empty driver means
// sqlite. The returned close func releases the backend's connections.
func OpenPersistentStore(ctx context.Context, cfg StorageConfig, engine *RulesEngine) (PersistentStore, func() error, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine), func() error { return nil }, nil
	case StorageSQLite:
		store, err := sqlite.NewStore(ctx, cfg.SQLitePath, engine)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case StoragePostgres:
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN, engine)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
