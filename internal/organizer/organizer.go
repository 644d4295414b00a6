// Package organizer implements the thought and area of life use cases on top
// of the repositories: input validation, reference checks and ID allocation.
package organizer

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/thoughts/pkg/types"
)

// Service runs use cases against a set of repositories.
//
// Each use case makes several repository calls and each call locks storage
// on its own. A DeleteAreaOfLife running between the existence check and the
// save of CreateThought or UpdateThought can leave the new thought pointing
// at the deleted area of life; storage strips such references the next time
// it is opened. The thoughts CLI runs one use case per process.
type Service struct {
	thoughts    types.ThoughtRepository
	areasOfLife types.AreaOfLifeRepository
	ids         types.IDAllocator
	validate    *validator.Validate
	logger      *zap.Logger
}

// New creates a Service. A nil logger disables logging.
func New(thoughts types.ThoughtRepository, areasOfLife types.AreaOfLifeRepository, ids types.IDAllocator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		thoughts:    thoughts,
		areasOfLife: areasOfLife,
		ids:         ids,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger,
	}
}

// MissingAreasError reports areas of life that were referenced but do not
// exist. It matches types.ErrNotFound.
type MissingAreasError struct {
	IDs []types.AreaOfLifeID
}

func (e *MissingAreasError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("areas of life [%s] not found", strings.Join(ids, ", "))
}

func (e *MissingAreasError) Unwrap() error {
	return types.ErrNotFound
}

// Validation rules. validator counts string lengths in characters.
var (
	titleRule = fmt.Sprintf("min=%d,max=%d", types.TitleMinLen, types.TitleMaxLen)
	nameRule  = fmt.Sprintf("min=%d,max=%d", types.NameMinLen, types.NameMaxLen)
)

func (s *Service) validateTitle(title string) error {
	return s.check("title", title, titleRule, types.ErrInvalidTitle)
}

func (s *Service) validateName(name string) error {
	return s.check("name", name, nameRule, types.ErrInvalidName)
}

// check validates value against rule and wraps the first failure with
// sentinel.
func (s *Service) check(field, value, rule string, sentinel error) error {
	err := s.validate.Var(value, rule)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	s.logger.Debug("rejected input", zap.String("field", field), zap.String("rule", fieldErrs[0].Tag()))
	return fmt.Errorf("%w: %s", sentinel, formatFieldError(field, value, fieldErrs[0]))
}

func formatFieldError(field, value string, e validator.FieldError) string {
	actual := utf8.RuneCountInString(value)
	switch e.Tag() {
	case "min":
		return fmt.Sprintf("%s must have at least %s characters but has %d", field, e.Param(), actual)
	case "max":
		return fmt.Sprintf("%s must have at most %s characters but has %d", field, e.Param(), actual)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// CheckAreasOfLifeExistence returns a *MissingAreasError listing every ID in
// ids that has no area of life.
func (s *Service) CheckAreasOfLifeExistence(ids []types.AreaOfLifeID) error {
	ids = slices.Clone(ids)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	var missing []types.AreaOfLifeID
	for _, id := range ids {
		_, err := s.areasOfLife.Get(id)
		switch {
		case err == nil:
		case errors.Is(err, types.ErrNotFound):
			missing = append(missing, id)
		default:
			return err
		}
	}
	if len(missing) > 0 {
		return &MissingAreasError{IDs: missing}
	}
	return nil
}
