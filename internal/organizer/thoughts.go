package organizer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/thoughts/pkg/types"
)

// CreateThought validates the title, checks that every referenced area of
// life exists and stores a new thought under a fresh ID.
func (s *Service) CreateThought(title string, areas []types.AreaOfLifeID) (types.ThoughtID, error) {
	s.logger.Debug("create thought", zap.String("title", title))

	if err := s.validateTitle(title); err != nil {
		return 0, err
	}
	if err := s.CheckAreasOfLifeExistence(areas); err != nil {
		return 0, err
	}
	id, err := s.ids.NewThoughtID()
	if err != nil {
		return 0, err
	}
	if err := s.thoughts.Save(types.NewThought(id, title, areas)); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateThought replaces the title and areas of life of an existing thought.
func (s *Service) UpdateThought(id types.ThoughtID, title string, areas []types.AreaOfLifeID) error {
	s.logger.Debug("update thought", zap.Stringer("id", id))

	if err := s.validateTitle(title); err != nil {
		return err
	}
	if _, err := s.thoughts.Get(id); err != nil {
		return err
	}
	if err := s.CheckAreasOfLifeExistence(areas); err != nil {
		return err
	}
	return s.thoughts.Save(types.NewThought(id, title, areas))
}

// FindThought returns the thought with the given ID.
func (s *Service) FindThought(id types.ThoughtID) (types.Thought, error) {
	s.logger.Debug("find thought", zap.Stringer("id", id))
	return s.thoughts.Get(id)
}

// ListThoughts returns every thought ordered by ID.
func (s *Service) ListThoughts() ([]types.Thought, error) {
	s.logger.Debug("list thoughts")
	return s.thoughts.GetAll()
}

// DeleteThought removes the thought with the given ID.
func (s *Service) DeleteThought(id types.ThoughtID) error {
	s.logger.Debug("delete thought", zap.Stringer("id", id))
	if err := s.thoughts.Delete(id); err != nil {
		return fmt.Errorf("delete thought: %w", err)
	}
	return nil
}
