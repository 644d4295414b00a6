package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/thoughts/internal/recordstore"
	"github.com/mesh-intelligence/thoughts/pkg/types"
)

// ThoughtRepo implements types.ThoughtRepository.
type ThoughtRepo struct {
	s *Storage
}

// Save creates or updates a thought.
func (r *ThoughtRepo) Save(t types.Thought) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkOpen(); err != nil {
		return err
	}
	return r.save(t)
}

// save writes t at its indexed handle, or as a new record followed by a new
// index entry. The record is written before the index so an interrupted
// create leaves an orphan that Reconcile can re-index.
// The caller must hold r.s.mu for writing.
func (r *ThoughtRepo) save(t types.Thought) error {
	r.s.logger.Debug("save thought", zap.Stringer("id", t.ID))
	model := newThoughtModel(t)

	handle, err := r.s.thoughtIndex.lookup(uint64(t.ID))
	switch {
	case err == nil:
		sid, err := r.s.thoughts.SaveWithID(model, handle)
		if err != nil {
			r.s.logger.Warn("unable to save thought", zap.Stringer("id", t.ID), zap.Error(err))
			return fmt.Errorf("save thought %s: %w", t.ID, connectionError(err))
		}
		if sid != handle {
			return fmt.Errorf("save thought %s: %w", t.ID,
				connectionError(fmt.Errorf("record moved from handle %s to %s", handle, sid)))
		}
	case errors.Is(err, recordstore.ErrNotFound):
		r.s.logger.Debug("create thought record", zap.Stringer("id", t.ID))
		handle, err := r.s.thoughts.Save(model)
		if err != nil {
			r.s.logger.Warn("unable to save thought", zap.Stringer("id", t.ID), zap.Error(err))
			return fmt.Errorf("save thought %s: %w", t.ID, connectionError(err))
		}
		if err := r.s.thoughtIndex.put(uint64(t.ID), handle); err != nil {
			r.s.logger.Warn("unable to save thought ID", zap.Stringer("id", t.ID), zap.Error(err))
			return fmt.Errorf("save thought %s: %w", t.ID, connectionError(err))
		}
		// An ID saved without going through the allocator must not be
		// handed out again.
		if _, err := r.s.raiseCounter(lastThoughtIDKey, uint64(t.ID)); err != nil {
			r.s.logger.Warn("unable to raise thought counter", zap.Stringer("id", t.ID), zap.Error(err))
			return fmt.Errorf("save thought %s: %w", t.ID, connectionError(err))
		}
	default:
		return fmt.Errorf("save thought %s: %w", t.ID, connectionError(err))
	}
	return nil
}

// Get returns the thought with the given ID.
func (r *ThoughtRepo) Get(id types.ThoughtID) (types.Thought, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.checkOpen(); err != nil {
		return types.Thought{}, err
	}
	return r.get(id)
}

func (r *ThoughtRepo) get(id types.ThoughtID) (types.Thought, error) {
	r.s.logger.Debug("get thought", zap.Stringer("id", id))

	handle, err := r.s.thoughtIndex.lookup(uint64(id))
	if err != nil {
		return types.Thought{}, fmt.Errorf("get thought %s: %w", id, classify(err))
	}
	var m thoughtModel
	if err := r.s.thoughts.Get(handle, &m); err != nil {
		r.s.logger.Warn("unable to fetch thought", zap.Stringer("id", id), zap.Error(err))
		return types.Thought{}, fmt.Errorf("get thought %s: %w", id, classify(err))
	}
	if m.ThoughtID != id.String() {
		return types.Thought{}, fmt.Errorf("get thought %s: %w", id,
			connectionError(fmt.Errorf("record %s holds thought id %q", handle, m.ThoughtID)))
	}
	return m.toThought(id, r.s.logger), nil
}

// GetAll returns every decodable thought ordered by ID.
func (r *ThoughtRepo) GetAll() ([]types.Thought, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.checkOpen(); err != nil {
		return nil, err
	}
	return r.getAll()
}

func (r *ThoughtRepo) getAll() ([]types.Thought, error) {
	r.s.logger.Debug("get all thoughts")

	records, err := r.s.thoughts.All()
	if err != nil {
		r.s.logger.Warn("unable to load all thoughts", zap.Error(err))
		return nil, fmt.Errorf("get all thoughts: %w", connectionError(err))
	}

	thoughts := make([]types.Thought, 0, len(records))
	for handle, body := range records {
		var m thoughtModel
		if err := json.Unmarshal(body, &m); err != nil {
			r.s.logger.Warn("skipping undecodable thought record",
				zap.String("handle", handle), zap.Error(err))
			continue
		}
		id, err := types.ParseThoughtID(m.ThoughtID)
		if err != nil {
			r.s.logger.Warn("skipping thought record with invalid ID",
				zap.String("handle", handle), zap.Error(err))
			continue
		}
		thoughts = append(thoughts, m.toThought(id, r.s.logger))
	}
	slices.SortFunc(thoughts, func(a, b types.Thought) int {
		return cmpUint(uint64(a.ID), uint64(b.ID))
	})
	return thoughts, nil
}

// Delete removes the thought and its index entry.
func (r *ThoughtRepo) Delete(id types.ThoughtID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkOpen(); err != nil {
		return err
	}
	r.s.logger.Debug("delete thought", zap.Stringer("id", id))

	handle, err := r.s.thoughtIndex.lookup(uint64(id))
	if err != nil {
		return fmt.Errorf("delete thought %s: %w", id, classify(err))
	}
	if err := r.s.thoughts.Delete(handle); err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			r.s.pruneDangling(r.s.thoughtIndex, uint64(id))
		} else {
			r.s.logger.Warn("unable to delete thought", zap.Stringer("id", id), zap.Error(err))
		}
		return fmt.Errorf("delete thought %s: %w", id, classify(err))
	}
	if err := r.s.thoughtIndex.remove(uint64(id)); err != nil {
		r.s.logger.Warn("unable to remove thought ID", zap.Stringer("id", id), zap.Error(err))
		return fmt.Errorf("delete thought %s: %w", id, connectionError(err))
	}
	return nil
}

// pruneDangling drops an index entry whose record is already gone. Failure
// is only logged; Reconcile drops such entries on the next open.
// The caller must hold s.mu for writing.
func (s *Storage) pruneDangling(ix handleIndex, id uint64) {
	if err := ix.remove(id); err != nil {
		s.logger.Warn("unable to prune dangling index entry",
			zap.String("index", ix.key), zap.Uint64("id", id), zap.Error(err))
	}
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
