// Package storage provides the public API for opening thoughts storage.
// This package exposes the factory function while keeping the record store
// and index implementation internal.
package storage

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/thoughts/internal/storage"
	"github.com/mesh-intelligence/thoughts/pkg/types"
)

// Storage is an open data directory. Use Thoughts and AreasOfLife for the
// repositories and Close when done.
type Storage = storage.Storage

// CascadeError is returned when deleting an area of life could not rewrite
// every thought that referenced it.
type CascadeError = storage.CascadeError

// Report counts the repairs made when storage is opened or reconciled.
type Report = storage.Report

// Open opens the data directory described by config and repairs any
// inconsistency left by an interrupted write. A nil logger disables logging.
//
// Example:
//
//	s, err := storage.Open(types.Config{
//	    Backend: types.BackendJSON,
//	    DataDir: "data",
//	}, nil)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
func Open(config types.Config, logger *zap.Logger) (*Storage, error) {
	return storage.Open(config, logger)
}
