package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "statelydb-mcp/internal/errors"
	"statelydb-mcp/internal/runner"
	"statelydb-mcp/internal/runner/runnertest"
)

// initCreatesDir mimics "stately schema init <dir>".
func initCreatesDir(cmd runner.Command) (runner.Result, error) {
	dir := cmd.Args[len(cmd.Args)-1]
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return runner.Result{}, err
	}
	return runner.Result{Stdout: "Initialized schema in " + dir}, nil
}

func newManager(t *testing.T, fake *runnertest.Fake) (*Manager, string) {
	t.Helper()
	root := t.TempDir()
	return NewManager(fake, Options{CLI: "stately", Root: root, Logger: zerolog.Nop()}), root
}

func TestProvisionRunsSchemaInit(t *testing.T) {
	fake := runnertest.New().On("stately schema init", initCreatesDir)
	m, root := newManager(t, fake)

	ws, err := m.Provision(context.Background())
	require.NoError(t, err)
	assert.DirExists(t, ws.Path)
	assert.Equal(t, root, filepath.Dir(ws.Path))
	assert.True(t, strings.HasPrefix(filepath.Base(ws.Path), NamePrefix))

	lines := fake.CallLines()
	require.Len(t, lines, 1)
	assert.Equal(t, "stately schema init "+ws.Path, lines[0])

	m.Dispose(ws)
	assert.NoDirExists(t, ws.Path)
}

func TestProvisionNamesAreUnique(t *testing.T) {
	fake := runnertest.New().On("stately schema init", initCreatesDir)
	m, _ := newManager(t, fake)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		ws, err := m.Provision(context.Background())
		require.NoError(t, err)
		assert.False(t, seen[ws.Path], "duplicate workspace %s", ws.Path)
		seen[ws.Path] = true
		m.Dispose(ws)
	}
}

func TestProvisionCreatesDirWhenInitDoesNot(t *testing.T) {
	fake := runnertest.New().On("stately schema init", runnertest.Stdout("ok"))
	m, _ := newManager(t, fake)

	ws, err := m.Provision(context.Background())
	require.NoError(t, err)
	assert.DirExists(t, ws.Path)
	m.Dispose(ws)
}

func TestProvisionSpawnFailure(t *testing.T) {
	fake := runnertest.New().On("stately schema init", runnertest.Fail("", errors.New("executable file not found")))
	m, root := newManager(t, fake)

	ws, err := m.Provision(context.Background())
	require.Error(t, err)
	assert.Nil(t, ws)
	assert.Equal(t, apperrors.CodeWorkspaceInit, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "Failed to initialize stately schema")
	assert.Contains(t, err.Error(), "executable file not found")

	entries, readErr := os.ReadDir(root)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestProvisionNonZeroExitRemovesPartialDir(t *testing.T) {
	fake := runnertest.New().On("stately schema init", func(cmd runner.Command) (runner.Result, error) {
		res, err := initCreatesDir(cmd)
		res.Stderr = "permission denied"
		res.ExitCode = 1
		return res, err
	})
	m, root := newManager(t, fake)

	_, err := m.Provision(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 1")
	assert.Contains(t, err.Error(), "permission denied")

	entries, readErr := os.ReadDir(root)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "partially initialized workspace must be removed")
}

func TestProvisionOutput(t *testing.T) {
	m, root := newManager(t, runnertest.New())

	ws, err := m.ProvisionOutput("statelygo")
	require.NoError(t, err)
	assert.DirExists(t, ws.Path)
	assert.Equal(t, root, filepath.Dir(ws.Path))
	assert.True(t, strings.HasPrefix(filepath.Base(ws.Path), "statelygo"))

	m.Dispose(ws)
	assert.NoDirExists(t, ws.Path)
}

func TestWriteFile(t *testing.T) {
	fake := runnertest.New().On("stately schema init", initCreatesDir)
	m, _ := newManager(t, fake)
	ws, err := m.Provision(context.Background())
	require.NoError(t, err)
	defer m.Dispose(ws)

	path, err := ws.WriteFile("schema.ts", "define X {}")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws.Path, "schema.ts"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "define X {}", string(data))
}

func TestWriteFileRejectsEscape(t *testing.T) {
	fake := runnertest.New().On("stately schema init", initCreatesDir)
	m, root := newManager(t, fake)
	ws, err := m.Provision(context.Background())
	require.NoError(t, err)
	defer m.Dispose(ws)

	_, err = ws.WriteFile("../schema.ts", "define X {}")
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(root, "schema.ts"))
}

func TestDisposeToleratesMissingAndNil(t *testing.T) {
	m, root := newManager(t, runnertest.New())
	m.Dispose(nil)
	m.Dispose(&Workspace{})
	m.Dispose(&Workspace{Path: filepath.Join(root, "never-created")})
}
