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

// Package collect harvests files produced by the code generator.
package collect

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/h2non/filetype"

	apperrors "statelydb-mcp/internal/errors"
	"statelydb-mcp/internal/paths"
)

// DefaultMaxFileSizeBytes caps how much of a single generated file is read.
const DefaultMaxFileSizeBytes int64 = 2 * 1024 * 1024

// sniffLen is how many leading bytes are inspected for binary signatures.
const sniffLen = 8192

// File is one generated file, addressed relative to the collection root.
type File struct {
	// Path uses forward slashes regardless of OS.
	Path    string
	Content string
	Size    int64
	// Binary files and oversize files carry no Content.
	Binary    bool
	Truncated bool
}

// Options bounds a collection.
type Options struct {
	MaxFileSizeBytes int64
	// Exclude holds doublestar globs matched against slash-separated relative paths.
	Exclude []string
}

// Collect walks root recursively and reads every regular file.
// An empty or missing root yields no files and no error. Symlinks are not followed.
func Collect(root string, opts Options) ([]File, error) {
	if opts.MaxFileSizeBytes <= 0 {
		opts.MaxFileSizeBytes = DefaultMaxFileSizeBytes
	}
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, apperrors.New(apperrors.CodeCollect, fmt.Sprintf("invalid exclude pattern %q", pattern))
		}
	}

	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	// WalkDir does not descend into a symlinked root
	root, err := paths.ResolveDir(root)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCollect, "failed to resolve output directory", err)
	}

	var files []File
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if excluded(rel, opts.Exclude) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			// symlinks, sockets and devices are skipped
			return nil
		}

		file, err := readFile(path, rel, opts.MaxFileSizeBytes)
		if err != nil {
			return err
		}
		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCollect, "failed to collect generated files", err)
	}
	return files, nil
}

func excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func readFile(path, rel string, maxSize int64) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	file := File{Path: rel, Size: info.Size()}
	if info.Size() > maxSize {
		file.Truncated = true
		return file, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	if isBinary(data) {
		file.Binary = true
		return file, nil
	}
	file.Content = string(data)
	return file, nil
}

func isBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if bytes.IndexByte(head, 0) != -1 {
		return true
	}
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		return true
	}
	return !utf8.Valid(data)
}
