package organizer

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mesh-intelligence/thoughts/internal/storage"
	"github.com/mesh-intelligence/thoughts/pkg/types"
)

func newTestService(t *testing.T) (*Service, *storage.Storage) {
	t.Helper()
	s, err := storage.Open(types.Config{Backend: types.BackendJSON, DataDir: t.TempDir()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s.Thoughts(), s.AreasOfLife(), s, zaptest.NewLogger(t)), s
}

func TestTitleValidation(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr bool
	}{
		{"empty", "", true},
		{"too short", "ab", true},
		{"min length", "abc", false},
		{"max length", strings.Repeat("a", 80), false},
		{"too long", strings.Repeat("a", 81), true},
		{"multibyte counted as characters", strings.Repeat("é", 80), false},
		{"short multibyte", "日本", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			_, err := svc.CreateThought(tt.title, nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidTitle)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNameValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"too short", "Work", true},
		{"min length", "Works", false},
		{"max length", strings.Repeat("n", 30), false},
		{"too long", strings.Repeat("n", 31), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			_, err := svc.CreateAreaOfLife(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidationMessage(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateThought("ab", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title must have at least 3 characters but has 2")
}

func TestInvalidInputDoesNotConsumeID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateThought("x", nil)
	require.ErrorIs(t, err, types.ErrInvalidTitle)
	_, err = svc.CreateThought("valid title", []types.AreaOfLifeID{9})
	require.ErrorIs(t, err, types.ErrNotFound)

	id, err := svc.CreateThought("valid title", nil)
	require.NoError(t, err)
	assert.Equal(t, types.ThoughtID(1), id)
}

func TestCreateThoughtWithAreas(t *testing.T) {
	svc, _ := newTestService(t)
	work, err := svc.CreateAreaOfLife("Work stuff")
	require.NoError(t, err)

	id, err := svc.CreateThought("Ship feature", []types.AreaOfLifeID{work, work})
	require.NoError(t, err)

	got, err := svc.FindThought(id)
	require.NoError(t, err)
	assert.Equal(t, []types.AreaOfLifeID{work}, got.AreasOfLife)
}

func TestCheckAreasOfLifeExistence(t *testing.T) {
	svc, _ := newTestService(t)
	a, err := svc.CreateAreaOfLife("Health")
	require.NoError(t, err)

	assert.NoError(t, svc.CheckAreasOfLifeExistence(nil))
	assert.NoError(t, svc.CheckAreasOfLifeExistence([]types.AreaOfLifeID{a}))

	err = svc.CheckAreasOfLifeExistence([]types.AreaOfLifeID{7, a, 5, 7})
	require.ErrorIs(t, err, types.ErrNotFound)
	var missing *MissingAreasError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []types.AreaOfLifeID{5, 7}, missing.IDs)
	assert.Equal(t, "areas of life [5, 7] not found", err.Error())
}

func TestUpdateThought(t *testing.T) {
	svc, _ := newTestService(t)
	a, err := svc.CreateAreaOfLife("Family")
	require.NoError(t, err)
	id, err := svc.CreateThought("first draft", nil)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateThought(id, "second draft", []types.AreaOfLifeID{a}))
	got, err := svc.FindThought(id)
	require.NoError(t, err)
	assert.Equal(t, types.NewThought(id, "second draft", []types.AreaOfLifeID{a}), got)

	assert.ErrorIs(t, svc.UpdateThought(99, "second draft", nil), types.ErrNotFound)
	assert.ErrorIs(t, svc.UpdateThought(id, "no", nil), types.ErrInvalidTitle)
	assert.ErrorIs(t, svc.UpdateThought(id, "second draft", []types.AreaOfLifeID{42}), types.ErrNotFound)

	all, err := svc.ListThoughts()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpdateAreaOfLife(t *testing.T) {
	svc, _ := newTestService(t)
	id, err := svc.CreateAreaOfLife("Hobby")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateAreaOfLife(id, "Hobbies"))
	areas, err := svc.ListAreasOfLife()
	require.NoError(t, err)
	assert.Equal(t, []types.AreaOfLife{{ID: id, Name: "Hobbies"}}, areas)

	assert.ErrorIs(t, svc.UpdateAreaOfLife(5, "Hobbies"), types.ErrNotFound)
	assert.ErrorIs(t, svc.UpdateAreaOfLife(id, "Hob"), types.ErrInvalidName)
}

func TestDeleteAreaOfLifeStripsThoughts(t *testing.T) {
	svc, _ := newTestService(t)
	work, err := svc.CreateAreaOfLife("Work stuff")
	require.NoError(t, err)
	id, err := svc.CreateThought("Ship feature", []types.AreaOfLifeID{work})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAreaOfLife(work))

	got, err := svc.FindThought(id)
	require.NoError(t, err)
	assert.Empty(t, got.AreasOfLife)
	assert.ErrorIs(t, svc.DeleteAreaOfLife(work), types.ErrNotFound)
}

func TestDeleteThought(t *testing.T) {
	svc, _ := newTestService(t)
	id, err := svc.CreateThought("short lived", nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteThought(id))
	_, err = svc.FindThought(id)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteThought(id), types.ErrNotFound)

	list, err := svc.ListThoughts()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestConnectionErrorsPropagate(t *testing.T) {
	svc, s := newTestService(t)
	require.NoError(t, s.Close())

	_, err := svc.CreateThought("after close", nil)
	assert.ErrorIs(t, err, types.ErrNewID)
	_, err = svc.ListThoughts()
	assert.ErrorIs(t, err, types.ErrConnection)
	err = svc.CheckAreasOfLifeExistence([]types.AreaOfLifeID{1})
	assert.ErrorIs(t, err, types.ErrConnection)
	var missing *MissingAreasError
	assert.False(t, errors.As(err, &missing))
}

func TestStaleReferenceFromInterleavedDeleteIsRepairedOnReopen(t *testing.T) {
	cfg := types.Config{Backend: types.BackendJSON, DataDir: t.TempDir()}
	s, err := storage.Open(cfg, nil)
	require.NoError(t, err)
	svc := New(s.Thoughts(), s.AreasOfLife(), s, zaptest.NewLogger(t))

	area, err := svc.CreateAreaOfLife("Side project")
	require.NoError(t, err)
	require.NoError(t, svc.CheckAreasOfLifeExistence([]types.AreaOfLifeID{area}))

	// The area of life disappears after the check but before the save.
	require.NoError(t, svc.DeleteAreaOfLife(area))
	id, err := s.NewThoughtID()
	require.NoError(t, err)
	require.NoError(t, s.Thoughts().Save(types.NewThought(id, "Late save", []types.AreaOfLifeID{area})))
	require.NoError(t, s.Close())

	s, err = storage.Open(cfg, nil)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 1, s.Repaired().StrippedReferences)

	got, err := New(s.Thoughts(), s.AreasOfLife(), s, nil).FindThought(id)
	require.NoError(t, err)
	assert.Empty(t, got.AreasOfLife)
}
