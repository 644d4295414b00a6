// Package recordstore provides single-collection record persistence keyed by
// opaque, store-assigned handles. Records are JSON documents. Keyed auxiliary
// values (counters, maps) are written with SaveWithID under a fixed handle.
//
// Three backends share the Store contract: json (one pretty-printed file per
// collection), sqlite (one table per collection) and bolt (one bucket per
// collection).
package recordstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/thoughts/pkg/types"
)

// Store persists the records of a single collection.
type Store interface {
	// Save writes v as a new record and returns its newly issued handle.
	Save(v any) (string, error)

	// SaveWithID writes v under handle, creating or replacing the record.
	// Returns the handle written, which always equals the one given.
	SaveWithID(v any, handle string) (string, error)

	// Get decodes the record stored under handle into v.
	// Returns ErrNotFound if no record has that handle.
	Get(handle string, v any) error

	// All returns every record in the collection keyed by handle.
	// An empty or never-written collection returns an empty map.
	All() (map[string]json.RawMessage, error)

	// Delete removes the record stored under handle.
	// Returns ErrNotFound if no record has that handle.
	Delete(handle string) error
}

// Backend opens named collections inside one data directory.
type Backend interface {
	Collection(name string) (Store, error)
	Close() error
}

// Record store errors. IO and decode failures are returned wrapped and are
// never reported as ErrNotFound.
var (
	ErrNotFound      = errors.New("record not found")
	ErrClosed        = errors.New("record store is closed")
	ErrInvalidHandle = errors.New("invalid record handle")
)

// Open creates the data directory if needed and opens the backend selected
// by config.
func Open(config types.Config) (Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	switch config.Backend {
	case types.BackendJSON:
		return newFileBackend(config.DataDir), nil
	case types.BackendSQLite:
		return openSQLiteBackend(config.DataDir)
	case types.BackendBolt:
		return openBoltBackend(config.DataDir)
	default:
		return nil, types.ErrBackendUnknown
	}
}

// newHandle generates a UUID v7 handle.
func newHandle() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// encode marshals a record body.
func encode(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return data, nil
}

// decode unmarshals a record body stored under handle.
func decode(handle string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding record %s: %w", handle, err)
	}
	return nil
}
