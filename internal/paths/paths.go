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

// Package paths keeps file access inside a workspace directory.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var errEscapes = errors.New("path escapes workspace")

// ResolveDir returns the absolute, symlink-free form of dir.
func ResolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("invalid directory: %v", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory: %w", err)
	}
	return resolved, nil
}

// ResolveWithinBase joins a relative name onto base and rejects results that
// leave base, lexically or through a symlinked parent.
func ResolveWithinBase(name, base string) (string, error) {
	if strings.TrimSpace(name) == "" || strings.IndexByte(name, 0) != -1 {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("absolute paths are not allowed")
	}

	baseResolved, err := ResolveDir(base)
	if err != nil {
		return "", err
	}
	target := filepath.Join(baseResolved, name)
	if !within(target, baseResolved) {
		return "", errEscapes
	}

	parent, err := filepath.EvalSymlinks(filepath.Dir(target))
	if err != nil {
		return "", fmt.Errorf("failed to resolve parent path: %v", err)
	}
	if !within(parent, baseResolved) {
		return "", errEscapes
	}
	resolved := filepath.Join(parent, filepath.Base(target))
	if info, err := os.Lstat(resolved); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return "", fmt.Errorf("%s is a symlink", name)
	}
	return resolved, nil
}

func within(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator)))
}
