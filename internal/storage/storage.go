// Package storage implements the Thought and AreaOfLife repositories on top
// of a record store. It assigns public IDs from durable per-kind counters,
// maps public IDs to record store handles through a persisted index, and
// strips deleted areas of life from the thoughts that reference them.
//
// Layout inside the data directory: collections "thoughts", "areas-of-life"
// and "ids". The ids collection holds the counters and the two index maps.
package storage

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/thoughts/internal/recordstore"
	"github.com/mesh-intelligence/thoughts/pkg/types"
)

// Collection names.
const (
	thoughtsCollection    = "thoughts"
	areasOfLifeCollection = "areas-of-life"
	idsCollection         = "ids"
)

// Keys of the auxiliary records in the ids collection.
const (
	lastThoughtIDKey    = "last-thought-id"
	lastAreaOfLifeIDKey = "last-area-of-life-id"
	mapThoughtIDKey     = "map-thought-id"
	mapAreaOfLifeIDKey  = "map-area-of-life-id"
)

// ErrClosed is wrapped together with types.ErrConnection by every operation
// on a closed Storage.
var ErrClosed = errors.New("storage is closed")

// Storage owns one data directory. All repository operations run under a
// single reader/writer lock: reads share it, and any write (including the
// index update, the counter increment and the area of life cascade) holds it
// exclusively.
type Storage struct {
	mu     sync.RWMutex
	closed bool
	logger *zap.Logger

	backend     recordstore.Backend
	thoughts    recordstore.Store
	areasOfLife recordstore.Store
	ids         recordstore.Store

	thoughtIndex    handleIndex
	areaOfLifeIndex handleIndex

	thoughtRepo    *ThoughtRepo
	areaOfLifeRepo *AreaOfLifeRepo

	// repaired is what the reconcile pass in Open fixed.
	repaired Report
}

// Open opens the record store described by config, then runs Reconcile to
// repair any damage left by an interrupted write. A nil logger disables
// logging.
func Open(config types.Config, logger *zap.Logger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	backend, err := recordstore.Open(config)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}

	s := &Storage{
		logger:  logger,
		backend: backend,
	}
	for _, c := range []struct {
		name  string
		store *recordstore.Store
	}{
		{thoughtsCollection, &s.thoughts},
		{areasOfLifeCollection, &s.areasOfLife},
		{idsCollection, &s.ids},
	} {
		store, err := backend.Collection(c.name)
		if err != nil {
			backend.Close()
			return nil, fmt.Errorf("open collection %s: %w", c.name, err)
		}
		*c.store = store
	}

	s.thoughtIndex = handleIndex{store: s.ids, key: mapThoughtIDKey}
	s.areaOfLifeIndex = handleIndex{store: s.ids, key: mapAreaOfLifeIDKey}
	s.thoughtRepo = &ThoughtRepo{s: s}
	s.areaOfLifeRepo = &AreaOfLifeRepo{s: s}

	report, err := s.Reconcile()
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	s.repaired = report
	if !report.Empty() {
		logger.Info("repaired storage on open", report.fields()...)
	}

	logger.Debug("storage opened",
		zap.String("backend", config.Backend),
		zap.String("data_dir", config.DataDir))
	return s, nil
}

// Thoughts returns the thought repository.
func (s *Storage) Thoughts() types.ThoughtRepository {
	return s.thoughtRepo
}

// AreasOfLife returns the area of life repository.
func (s *Storage) AreasOfLife() types.AreaOfLifeRepository {
	return s.areaOfLifeRepo
}

// Repaired returns the repairs made while opening.
func (s *Storage) Repaired() Report {
	return s.repaired
}

// Close releases the record store. Close is idempotent; after Close every
// operation fails with ErrClosed.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.backend.Close()
}

// checkOpen returns an error if the storage has been closed.
// The caller must hold s.mu.
func (s *Storage) checkOpen() error {
	if s.closed {
		return fmt.Errorf("%w: %w", types.ErrConnection, ErrClosed)
	}
	return nil
}

// classify maps a record store error onto the repository error kinds. The
// underlying error is kept as text only so record store types never cross
// the repository boundary.
func classify(err error) error {
	if errors.Is(err, recordstore.ErrNotFound) {
		return types.ErrNotFound
	}
	return connectionError(err)
}

// connectionError wraps err as an ErrConnection.
func connectionError(err error) error {
	return fmt.Errorf("%w: %v", types.ErrConnection, err)
}
