package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/thoughts/pkg/types"
)

// testEnv holds isolated config and data directories for one test.
type testEnv struct {
	configDir string
	dataDir   string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	t.Setenv("THOUGHTS_BACKEND", "")
	t.Setenv("THOUGHTS_LOG_LEVEL", "")
	root := t.TempDir()
	return testEnv{
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

// run executes the CLI with the env's directories and returns stdout,
// stderr and the command error.
func (e testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// mustRun is run that fails the test on error.
func (e testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := e.run(t, args...)
	require.NoError(t, err, "stderr: %s", stderr)
	return out
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "version")
	assert.Contains(t, out, "thoughts v"+Version)
	assert.Contains(t, out, modulePath)

	_, err := os.Stat(env.configDir)
	assert.True(t, os.IsNotExist(err), "version must not create the config dir")
}

func TestInitWritesConfig(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "init", "--backend", "bolt")
	assert.Contains(t, out, "Initialized bolt storage")

	data, err := os.ReadFile(filepath.Join(env.configDir, "config.yaml"))
	require.NoError(t, err)
	var cfg configFile
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, "bolt", cfg.Backend)
	assert.Equal(t, env.dataDir, cfg.DataDir)

	_, err = os.Stat(filepath.Join(env.dataDir, "records.bolt"))
	assert.NoError(t, err)
}

func TestInitKeepsExistingConfig(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(env.configDir, 0o755))
	path := filepath.Join(env.configDir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: sqlite\n"), 0o644))

	out := env.mustRun(t, "init")
	assert.Contains(t, out, "Initialized sqlite storage")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "backend: sqlite\n", string(data))
}

func TestConfigBackendIsUsed(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.MkdirAll(env.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "config.yaml"),
		[]byte("backend: sqlite\nlog_level: warn\n"), 0o644))

	env.mustRun(t, "area", "create", "Work life")

	_, err := os.Stat(filepath.Join(env.dataDir, "records.db"))
	assert.NoError(t, err)
}

func TestDefaultConfigWrittenOnFirstRun(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "thought", "list")

	data, err := os.ReadFile(filepath.Join(env.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfigYAML, string(data))

	_, err = os.Stat(filepath.Join(env.dataDir, "thoughts.json"))
	assert.True(t, os.IsNotExist(err), "listing must not write records")
}

func TestDeleteAreaOfLifeEndToEnd(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, "Created area of life 1\n", env.mustRun(t, "area", "create", "Work life"))
	assert.Equal(t, "Created thought 1\n", env.mustRun(t, "thought", "create", "Ship feature", "--area", "1"))

	var got types.Thought
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "--json", "thought", "get", "1")), &got))
	assert.Equal(t, []types.AreaOfLifeID{1}, got.AreasOfLife)

	assert.Equal(t, "Deleted area of life 1\n", env.mustRun(t, "area", "delete", "1"))

	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "--json", "thought", "get", "1")), &got))
	assert.Equal(t, types.Thought{ID: 1, Title: "Ship feature", AreasOfLife: []types.AreaOfLifeID{}}, got)

	_, _, err := env.run(t, "area", "delete", "1")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestThoughtListAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "area", "create", "Health")
	env.mustRun(t, "area", "create", "Family")
	env.mustRun(t, "thought", "create", "Go running", "--area", "1")
	env.mustRun(t, "thought", "create", "Call mum")

	out := env.mustRun(t, "thought", "list")
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Go running")
	assert.Contains(t, out, "Call mum")

	// Only the areas change; the title is kept.
	env.mustRun(t, "thought", "update", "2", "--area", "1,2")
	var got types.Thought
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "--json", "thought", "get", "2")), &got))
	assert.Equal(t, types.Thought{ID: 2, Title: "Call mum", AreasOfLife: []types.AreaOfLifeID{1, 2}}, got)

	env.mustRun(t, "thought", "update", "2", "--title", "Call dad", "--area", "")
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "--json", "thought", "get", "2")), &got))
	assert.Equal(t, types.Thought{ID: 2, Title: "Call dad", AreasOfLife: []types.AreaOfLifeID{}}, got)

	var all []types.Thought
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "--json", "thought", "list")), &all))
	assert.Len(t, all, 2)

	env.mustRun(t, "thought", "delete", "1")
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "--json", "thought", "list")), &all))
	require.Len(t, all, 1)
	assert.Equal(t, types.ThoughtID(2), all[0].ID)
}

func TestAreaListAndRename(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "area", "create", "Hobby")
	env.mustRun(t, "area", "update", "1", "Hobbies")

	var areas []types.AreaOfLife
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "--json", "area", "list")), &areas))
	assert.Equal(t, []types.AreaOfLife{{ID: 1, Name: "Hobbies"}}, areas)

	out := env.mustRun(t, "area", "list")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Hobbies")
}

func TestRepair(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, "Nothing to repair\n", env.mustRun(t, "repair"))

	var report map[string]int
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "--json", "repair")), &report))
	assert.Equal(t, 0, report["reindexed"])
	assert.Contains(t, report, "stripped_references")
}

func TestExitCodes(t *testing.T) {
	env := newTestEnv(t)
	blocked := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocked, nil, 0o644))

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown thought", []string{"thought", "get", "99"}, exitUserError},
		{"malformed id", []string{"thought", "get", "abc"}, exitUserError},
		{"title too short", []string{"thought", "create", "ab"}, exitUserError},
		{"missing area", []string{"thought", "create", "Dangling", "--area", "7"}, exitUserError},
		{"name too short", []string{"area", "create", "Job"}, exitUserError},
		{"missing argument", []string{"area", "create"}, exitUserError},
		{"unknown flag", []string{"thought", "list", "--nope"}, exitUserError},
		{"unknown backend", []string{"--backend", "mongo", "thought", "list"}, exitUserError},
		{"bad log level", []string{"--log-level", "loud", "thought", "list"}, exitUserError},
		{"data dir is a file", []string{"--data-dir", blocked, "thought", "list"}, exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, exitCode(err), "error: %v", err)
		})
	}
	assert.Equal(t, exitSuccess, exitCode(nil))
}
