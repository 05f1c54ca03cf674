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

package collect

import (
	"fmt"
	"path"
	"strings"
)

var languageTags = map[string]string{
	".ts":   "typescript",
	".js":   "javascript",
	".py":   "python",
	".rb":   "ruby",
	".go":   "go",
	".json": "json",
	".md":   "markdown",
}

// LanguageTag returns the fence tag for a file name, or "" for unknown extensions.
func LanguageTag(name string) string {
	return languageTags[path.Ext(name)]
}

// Render formats files as labeled, syntax-tagged code blocks.
func Render(language string, files []File) string {
	blocks := make([]string, 0, len(files))
	for _, f := range files {
		blocks = append(blocks, renderFile(f))
	}
	return fmt.Sprintf("Generated the following files for language %s:\n\n%s", language, strings.Join(blocks, "\n\n"))
}

func renderFile(f File) string {
	content := f.Content
	switch {
	case f.Binary:
		content = fmt.Sprintf("(binary file, %d bytes, content omitted)", f.Size)
	case f.Truncated:
		content = fmt.Sprintf("(file too large, %d bytes, content omitted)", f.Size)
	}
	return fmt.Sprintf("File: %s\nContents:\n```%s\n%s\n```", f.Path, LanguageTag(f.Path), content)
}
