// Package sqlite provides the public API for the SQLite shoebox store.
// This package exposes the factory functions for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/shoebox/internal/sqlite"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	store := sqlite.NewBackend()
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "/home/ann/.local/share/shoebox",
//	})
//	defer store.Detach()
func NewBackend() types.Store {
	return sqlite.NewBackend()
}

// Open creates a backend and attaches it to the library described by cfg.
// The caller must Detach the returned store.
func Open(cfg types.Config) (types.Store, error) {
	store := sqlite.NewBackend()
	if err := store.Attach(cfg); err != nil {
		return nil, fmt.Errorf("open library at %s: %w", cfg.DataDir, err)
	}
	return store, nil
}
