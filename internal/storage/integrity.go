package storage

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/thoughts/pkg/types"
)

// CascadeError reports thoughts that still reference an area of life after
// it was deleted because rewriting them failed. It unwraps to the
// underlying save errors, each of which wraps types.ErrConnection.
type CascadeError struct {
	AreaOfLife types.AreaOfLifeID
	Stale      []types.ThoughtID
	Err        error
}

func (e *CascadeError) Error() string {
	ids := make([]string, len(e.Stale))
	for i, id := range e.Stale {
		ids[i] = id.String()
	}
	return fmt.Sprintf("area of life %s deleted but still referenced by thoughts [%s]: %v",
		e.AreaOfLife, strings.Join(ids, ", "), e.Err)
}

func (e *CascadeError) Unwrap() error {
	return e.Err
}

// removeAreaOfLifeReferences rewrites every thought that references id
// without it. Every affected thought is attempted; those that fail are
// reported in a *CascadeError and left for Reconcile. Nothing is rolled back.
// The caller must hold s.mu for writing.
func (s *Storage) removeAreaOfLifeReferences(id types.AreaOfLifeID) error {
	thoughts, err := s.thoughtRepo.getAll()
	if err != nil {
		return fmt.Errorf("delete area of life %s from thoughts: %w", id, err)
	}

	var (
		stale []types.ThoughtID
		errs  []error
	)
	for _, t := range thoughts {
		if !t.HasAreaOfLife(id) {
			continue
		}
		s.logger.Debug("delete area of life from thought",
			zap.Stringer("area_of_life_id", id), zap.Stringer("thought_id", t.ID))
		if err := s.thoughtRepo.save(t.WithoutAreaOfLife(id)); err != nil {
			s.logger.Warn("unable to save thought", zap.Stringer("thought_id", t.ID), zap.Error(err))
			stale = append(stale, t.ID)
			errs = append(errs, err)
		}
	}
	if len(stale) > 0 {
		return &CascadeError{AreaOfLife: id, Stale: stale, Err: errors.Join(errs...)}
	}
	return nil
}
