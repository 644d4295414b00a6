package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/thoughts/pkg/storage"
	"github.com/mesh-intelligence/thoughts/pkg/types"
)

func TestOpen(t *testing.T) {
	s, err := storage.Open(types.Config{Backend: types.BackendJSON, DataDir: t.TempDir()}, nil)
	require.NoError(t, err)
	defer s.Close()

	id, err := s.NewThoughtID()
	require.NoError(t, err)
	require.NoError(t, s.Thoughts().Save(types.NewThought(id, "hello", nil)))

	got, err := s.Thoughts().Get(id)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Title)
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	_, err := storage.Open(types.Config{Backend: "nope", DataDir: t.TempDir()}, nil)
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}
