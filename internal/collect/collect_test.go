package collect

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func relPaths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestCollectRecursive(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.go":             "package schema\n",
		"README.md":           "# schema\n",
		"nested/deep/item.ts": "export {}\n",
	})

	files, err := Collect(root, Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go", "README.md", "nested/deep/item.ts"}, relPaths(files))

	for _, f := range files {
		if f.Path == "nested/deep/item.ts" {
			assert.Equal(t, "export {}\n", f.Content)
			assert.False(t, f.Binary)
		}
	}
}

func TestCollectEmptyAndMissing(t *testing.T) {
	files, err := Collect(t.TempDir(), Options{})
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = Collect(filepath.Join(t.TempDir(), "missing"), Options{})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCollectSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))
	writeTree(t, root, map[string]string{"real.py": "print(1)\n"})
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link.txt")))

	files, err := Collect(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"real.py"}, relPaths(files))
}

func TestCollectSymlinkedRoot(t *testing.T) {
	target := t.TempDir()
	writeTree(t, target, map[string]string{"schema.py": "x = 1\n"})
	link := filepath.Join(t.TempDir(), "out")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	files, err := Collect(link, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"schema.py"}, relPaths(files))
}

func TestCollectBinaryAndOversize(t *testing.T) {
	root := t.TempDir()
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d}
	require.NoError(t, os.WriteFile(filepath.Join(root, "logo.png"), png, 0o644))
	writeTree(t, root, map[string]string{"big.json": strings.Repeat("x", 64)})

	files, err := Collect(root, Options{MaxFileSizeBytes: 32})
	require.NoError(t, err)
	require.Len(t, files, 2)

	byPath := map[string]File{}
	for _, f := range files {
		byPath[f.Path] = f
	}
	assert.True(t, byPath["logo.png"].Binary)
	assert.Empty(t, byPath["logo.png"].Content)
	assert.True(t, byPath["big.json"].Truncated)
	assert.Equal(t, int64(64), byPath["big.json"].Size)
}

func TestCollectExclude(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"go.mod":          "module github.com/stately/schema\n",
		"schema.go":       "package schema\n",
		"vendor/a/a.go":   "package a\n",
		"vendor/b/b/b.go": "package b\n",
		"docs/notes.md":   "notes\n",
	})

	files, err := Collect(root, Options{Exclude: []string{"vendor/**", "*.mod"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"schema.go", "docs/notes.md"}, relPaths(files))

	_, err = Collect(root, Options{Exclude: []string{"[unterminated"}})
	assert.Error(t, err)
}

func TestLanguageTag(t *testing.T) {
	tests := map[string]string{
		"index.ts":       "typescript",
		"lib/util.js":    "javascript",
		"models.py":      "python",
		"client.rb":      "ruby",
		"main.go":        "go",
		"package.json":   "json",
		"README.md":      "markdown",
		"go.mod":         "",
		"Makefile":       "",
		"archive.tar.gz": "",
	}
	for name, want := range tests {
		assert.Equal(t, want, LanguageTag(name), name)
	}
}

func TestRender(t *testing.T) {
	out := Render("go", []File{
		{Path: "main.go", Content: "package main"},
		{Path: "README.md", Content: "# hi"},
		{Path: "blob.bin", Binary: true, Size: 12},
	})

	expected := "Generated the following files for language go:\n\n" +
		"File: main.go\nContents:\n```go\npackage main\n```\n\n" +
		"File: README.md\nContents:\n```markdown\n# hi\n```\n\n" +
		"File: blob.bin\nContents:\n```\n(binary file, 12 bytes, content omitted)\n```"
	assert.Equal(t, expected, out)
}
