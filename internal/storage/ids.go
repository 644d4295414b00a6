package storage

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/thoughts/internal/recordstore"
	"github.com/mesh-intelligence/thoughts/pkg/types"
)

// NewThoughtID allocates the next thought ID.
// Returns an error wrapping types.ErrNewID if the counter cannot be read or
// persisted; no ID is handed out in that case.
func (s *Storage) NewThoughtID() (types.ThoughtID, error) {
	id, err := s.allocate(lastThoughtIDKey)
	return types.ThoughtID(id), err
}

// NewAreaOfLifeID allocates the next area of life ID.
func (s *Storage) NewAreaOfLifeID() (types.AreaOfLifeID, error) {
	id, err := s.allocate(lastAreaOfLifeIDKey)
	return types.AreaOfLifeID(id), err
}

func (s *Storage) allocate(key string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return 0, fmt.Errorf("%w: %w", types.ErrNewID, err)
	}
	id, err := s.nextID(key)
	if err != nil {
		s.logger.Warn("cannot allocate ID", zap.String("counter", key), zap.Error(err))
		return 0, fmt.Errorf("%w: %s: %v", types.ErrNewID, key, err)
	}
	s.logger.Debug("allocated ID", zap.String("counter", key), zap.Uint64("id", id))
	return id, nil
}

// nextID performs read, increment, write on the counter stored under key.
// The caller must hold s.mu for writing.
func (s *Storage) nextID(key string) (uint64, error) {
	last, err := s.lastID(key)
	if err != nil {
		return 0, err
	}
	if last == math.MaxUint64 {
		return 0, errors.New("counter exhausted")
	}
	next := last + 1
	if _, err := s.ids.SaveWithID(next, key); err != nil {
		return 0, fmt.Errorf("persisting counter: %w", err)
	}
	return next, nil
}

// lastID returns the counter stored under key, or 0 if it was never written.
// A counter that exists but cannot be decoded is an error, never a reset.
func (s *Storage) lastID(key string) (uint64, error) {
	var last uint64
	err := s.ids.Get(key, &last)
	if errors.Is(err, recordstore.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading counter: %w", err)
	}
	return last, nil
}

// raiseCounter moves the counter stored under key up to id if it is lower,
// so the allocator never hands out an ID already in use. It reports whether
// the counter moved.
// The caller must hold s.mu for writing.
func (s *Storage) raiseCounter(key string, id uint64) (bool, error) {
	last, err := s.lastID(key)
	if err != nil {
		return false, err
	}
	if id <= last {
		return false, nil
	}
	s.logger.Info("raising ID counter",
		zap.String("counter", key), zap.Uint64("from", last), zap.Uint64("to", id))
	if _, err := s.ids.SaveWithID(id, key); err != nil {
		return false, fmt.Errorf("persisting counter: %w", err)
	}
	return true, nil
}
