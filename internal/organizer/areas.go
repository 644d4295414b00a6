package organizer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/thoughts/pkg/types"
)

// CreateAreaOfLife validates the name and stores a new area of life.
func (s *Service) CreateAreaOfLife(name string) (types.AreaOfLifeID, error) {
	s.logger.Debug("create area of life", zap.String("name", name))

	if err := s.validateName(name); err != nil {
		return 0, err
	}
	id, err := s.ids.NewAreaOfLifeID()
	if err != nil {
		return 0, err
	}
	if err := s.areasOfLife.Save(types.AreaOfLife{ID: id, Name: name}); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateAreaOfLife renames an existing area of life.
func (s *Service) UpdateAreaOfLife(id types.AreaOfLifeID, name string) error {
	s.logger.Debug("update area of life", zap.Stringer("id", id))

	if err := s.validateName(name); err != nil {
		return err
	}
	if _, err := s.areasOfLife.Get(id); err != nil {
		return err
	}
	return s.areasOfLife.Save(types.AreaOfLife{ID: id, Name: name})
}

// ListAreasOfLife returns every area of life ordered by ID.
func (s *Service) ListAreasOfLife() ([]types.AreaOfLife, error) {
	s.logger.Debug("list areas of life")
	return s.areasOfLife.GetAll()
}

// DeleteAreaOfLife removes the area of life and every reference to it.
func (s *Service) DeleteAreaOfLife(id types.AreaOfLifeID) error {
	s.logger.Debug("delete area of life", zap.Stringer("id", id))
	if err := s.areasOfLife.Delete(id); err != nil {
		return fmt.Errorf("delete area of life: %w", err)
	}
	return nil
}
