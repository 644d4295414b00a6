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

// AreaOfLifeRepo implements types.AreaOfLifeRepository.
type AreaOfLifeRepo struct {
	s *Storage
}

// Save creates or updates an area of life.
func (r *AreaOfLifeRepo) Save(a types.AreaOfLife) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkOpen(); err != nil {
		return err
	}
	r.s.logger.Debug("save area of life", zap.Stringer("id", a.ID))
	model := newAreaOfLifeModel(a)

	handle, err := r.s.areaOfLifeIndex.lookup(uint64(a.ID))
	switch {
	case err == nil:
		sid, err := r.s.areasOfLife.SaveWithID(model, handle)
		if err != nil {
			r.s.logger.Warn("unable to save area of life", zap.Stringer("id", a.ID), zap.Error(err))
			return fmt.Errorf("save area of life %s: %w", a.ID, connectionError(err))
		}
		if sid != handle {
			return fmt.Errorf("save area of life %s: %w", a.ID,
				connectionError(fmt.Errorf("record moved from handle %s to %s", handle, sid)))
		}
	case errors.Is(err, recordstore.ErrNotFound):
		r.s.logger.Debug("create area of life record", zap.Stringer("id", a.ID))
		handle, err := r.s.areasOfLife.Save(model)
		if err != nil {
			r.s.logger.Warn("unable to save area of life", zap.Stringer("id", a.ID), zap.Error(err))
			return fmt.Errorf("save area of life %s: %w", a.ID, connectionError(err))
		}
		if err := r.s.areaOfLifeIndex.put(uint64(a.ID), handle); err != nil {
			r.s.logger.Warn("unable to save area of life ID", zap.Stringer("id", a.ID), zap.Error(err))
			return fmt.Errorf("save area of life %s: %w", a.ID, connectionError(err))
		}
		// An ID saved without going through the allocator must not be
		// handed out again.
		if _, err := r.s.raiseCounter(lastAreaOfLifeIDKey, uint64(a.ID)); err != nil {
			r.s.logger.Warn("unable to raise area of life counter", zap.Stringer("id", a.ID), zap.Error(err))
			return fmt.Errorf("save area of life %s: %w", a.ID, connectionError(err))
		}
	default:
		return fmt.Errorf("save area of life %s: %w", a.ID, connectionError(err))
	}
	return nil
}

// Get returns the area of life with the given ID.
func (r *AreaOfLifeRepo) Get(id types.AreaOfLifeID) (types.AreaOfLife, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.checkOpen(); err != nil {
		return types.AreaOfLife{}, err
	}
	r.s.logger.Debug("get area of life", zap.Stringer("id", id))

	handle, err := r.s.areaOfLifeIndex.lookup(uint64(id))
	if err != nil {
		return types.AreaOfLife{}, fmt.Errorf("get area of life %s: %w", id, classify(err))
	}
	var m areaOfLifeModel
	if err := r.s.areasOfLife.Get(handle, &m); err != nil {
		r.s.logger.Warn("unable to fetch area of life", zap.Stringer("id", id), zap.Error(err))
		return types.AreaOfLife{}, fmt.Errorf("get area of life %s: %w", id, classify(err))
	}
	if m.AreaOfLifeID != id.String() {
		return types.AreaOfLife{}, fmt.Errorf("get area of life %s: %w", id,
			connectionError(fmt.Errorf("record %s holds area of life id %q", handle, m.AreaOfLifeID)))
	}
	return types.AreaOfLife{ID: id, Name: m.Name}, nil
}

// GetAll returns every decodable area of life ordered by ID.
func (r *AreaOfLifeRepo) GetAll() ([]types.AreaOfLife, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if err := r.s.checkOpen(); err != nil {
		return nil, err
	}
	r.s.logger.Debug("get all areas of life")

	records, err := r.s.areasOfLife.All()
	if err != nil {
		r.s.logger.Warn("unable to load all areas of life", zap.Error(err))
		return nil, fmt.Errorf("get all areas of life: %w", connectionError(err))
	}

	areas := make([]types.AreaOfLife, 0, len(records))
	for handle, body := range records {
		var m areaOfLifeModel
		if err := json.Unmarshal(body, &m); err != nil {
			r.s.logger.Warn("skipping undecodable area of life record",
				zap.String("handle", handle), zap.Error(err))
			continue
		}
		id, err := types.ParseAreaOfLifeID(m.AreaOfLifeID)
		if err != nil {
			r.s.logger.Warn("skipping area of life record with invalid ID",
				zap.String("handle", handle), zap.Error(err))
			continue
		}
		areas = append(areas, types.AreaOfLife{ID: id, Name: m.Name})
	}
	slices.SortFunc(areas, func(a, b types.AreaOfLife) int {
		return cmpUint(uint64(a.ID), uint64(b.ID))
	})
	return areas, nil
}

// Delete removes the area of life and its index entry, then strips the ID
// from every thought that references it. A cascade failure is reported as a
// *CascadeError after the area of life itself is gone.
func (r *AreaOfLifeRepo) Delete(id types.AreaOfLifeID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkOpen(); err != nil {
		return err
	}
	r.s.logger.Debug("delete area of life", zap.Stringer("id", id))

	handle, err := r.s.areaOfLifeIndex.lookup(uint64(id))
	if err != nil {
		return fmt.Errorf("delete area of life %s: %w", id, classify(err))
	}
	if err := r.s.areasOfLife.Delete(handle); err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			r.s.pruneDangling(r.s.areaOfLifeIndex, uint64(id))
		} else {
			r.s.logger.Warn("unable to delete area of life", zap.Stringer("id", id), zap.Error(err))
		}
		return fmt.Errorf("delete area of life %s: %w", id, classify(err))
	}
	if err := r.s.areaOfLifeIndex.remove(uint64(id)); err != nil {
		r.s.logger.Warn("unable to remove area of life ID", zap.Stringer("id", id), zap.Error(err))
		return fmt.Errorf("delete area of life %s: %w", id, connectionError(err))
	}

	return r.s.removeAreaOfLifeReferences(id)
}
