// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package workspace provisions and disposes per-invocation temporary directories.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "statelydb-mcp/internal/errors"
	"statelydb-mcp/internal/paths"
	"statelydb-mcp/internal/runner"
)

// NamePrefix starts every schema workspace directory name.
const NamePrefix = "statelydb-mcp-"

// Workspace is a directory owned by exactly one tool invocation.
type Workspace struct {
	Path    string
	Created time.Time
}

// File returns the absolute path of name inside the workspace.
func (w *Workspace) File(name string) string {
	return filepath.Join(w.Path, name)
}

// WriteFile writes content to name inside the workspace and returns its path.
// Names that escape the workspace are rejected.
func (w *Workspace) WriteFile(name, content string) (string, error) {
	if _, err := paths.ResolveWithinBase(name, w.Path); err != nil {
		return "", fmt.Errorf("invalid file name %q: %w", name, err)
	}
	path := w.File(name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}

// Manager creates and removes workspaces under a temp root.
type Manager struct {
	runner  runner.Runner
	cli     string
	root    string
	timeout time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

// Options configures a Manager.
type Options struct {
	// CLI is the stately binary used for "schema init".
	CLI string
	// Root is the parent directory; empty means os.TempDir().
	Root string
	// InitTimeout bounds "schema init"; zero uses the runner default.
	InitTimeout time.Duration
	Logger      zerolog.Logger
}

// NewManager returns a Manager that runs initialization through r.
func NewManager(r runner.Runner, opts Options) *Manager {
	cli := opts.CLI
	if cli == "" {
		cli = "stately"
	}
	return &Manager{
		runner:  r,
		cli:     cli,
		root:    opts.Root,
		timeout: opts.InitTimeout,
		logger:  opts.Logger,
		now:     time.Now,
	}
}

func (m *Manager) tempRoot() string {
	if m.root != "" {
		return m.root
	}
	return os.TempDir()
}

// uniqueName embeds a millisecond timestamp and a random suffix.
func (m *Manager) uniqueName(created time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s%d-%s", NamePrefix, created.UnixMilli(), suffix)
}

// Provision reserves a directory and lets "stately schema init" create it.
func (m *Manager) Provision(ctx context.Context) (*Workspace, error) {
	created := m.now()
	path := filepath.Join(m.tempRoot(), m.uniqueName(created))

	res, err := m.runner.Run(ctx, runner.Command{
		Name:    m.cli,
		Args:    []string{"schema", "init", path},
		Timeout: m.timeout,
	})
	if err == nil {
		err = res.Err()
		if err != nil {
			err = fmt.Errorf("%w%s", err, diagnostics(res))
		}
	}
	if err != nil {
		m.logger.Error().Err(err).Str("path", path).Msg("failed to initialize stately schema")
		// init may have created the directory before failing
		m.remove(path)
		return nil, apperrors.Wrap(apperrors.CodeWorkspaceInit, "Failed to initialize stately schema", err)
	}

	if info, statErr := os.Stat(path); statErr != nil || !info.IsDir() {
		if mkErr := os.MkdirAll(path, 0o755); mkErr != nil {
			return nil, apperrors.Wrap(apperrors.CodeWorkspaceInit, "Failed to initialize stately schema", mkErr)
		}
	}

	m.logger.Debug().Str("path", path).Msg("workspace provisioned")
	return &Workspace{Path: path, Created: created}, nil
}

// ProvisionOutput creates an empty unique directory whose name starts with prefix.
func (m *Manager) ProvisionOutput(prefix string) (*Workspace, error) {
	created := m.now()
	path, err := os.MkdirTemp(m.tempRoot(), prefix)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeWorkspaceInit, "Failed to create output directory", err)
	}
	m.logger.Debug().Str("path", path).Msg("output directory provisioned")
	return &Workspace{Path: path, Created: created}, nil
}

// Dispose removes the workspace recursively. Failures are logged, never returned.
func (m *Manager) Dispose(ws *Workspace) {
	if ws == nil || ws.Path == "" {
		return
	}
	m.remove(ws.Path)
}

func (m *Manager) remove(path string) {
	if err := os.RemoveAll(path); err != nil {
		m.logger.Warn().
			Err(apperrors.Wrap(apperrors.CodeCleanup, "failed to clean up temporary directory", err)).
			Str("path", path).
			Msg("cleanup failed")
		return
	}
	m.logger.Debug().Str("path", path).Msg("workspace removed")
}

func diagnostics(res runner.Result) string {
	var b strings.Builder
	if s := strings.TrimSpace(res.Stderr); s != "" {
		b.WriteString("\n")
		b.WriteString(s)
	}
	if s := strings.TrimSpace(res.Stdout); s != "" {
		b.WriteString("\n")
		b.WriteString(s)
	}
	return b.String()
}
