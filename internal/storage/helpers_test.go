package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mesh-intelligence/thoughts/pkg/types"
)

var allBackends = []string{types.BackendJSON, types.BackendSQLite, types.BackendBolt}

// openTestStorage opens storage on a fresh temp dir with the json backend.
func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	return openBackend(t, types.Config{Backend: types.BackendJSON, DataDir: t.TempDir()})
}

func openBackend(t *testing.T, cfg types.Config) *Storage {
	t.Helper()
	s, err := Open(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createArea(t *testing.T, s *Storage, name string) types.AreaOfLife {
	t.Helper()
	id, err := s.NewAreaOfLifeID()
	require.NoError(t, err)
	a := types.AreaOfLife{ID: id, Name: name}
	require.NoError(t, s.AreasOfLife().Save(a))
	return a
}

func createThought(t *testing.T, s *Storage, title string, areas ...types.AreaOfLifeID) types.Thought {
	t.Helper()
	id, err := s.NewThoughtID()
	require.NoError(t, err)
	th := types.NewThought(id, title, areas)
	require.NoError(t, s.Thoughts().Save(th))
	return th
}
