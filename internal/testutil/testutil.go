// Package testutil holds filesystem fixtures and assertions shared by tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTree creates files below root. Keys are slash-separated relative paths.
func WriteTree(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
}

// FileAssertions checks the state of a directory tree, e.g. a published site.
type FileAssertions struct {
	t       testing.TB
	baseDir string
}

// NewFileAssertions creates a new file assertions helper.
func NewFileAssertions(t testing.TB, baseDir string) *FileAssertions {
	return &FileAssertions{t: t, baseDir: baseDir}
}

func (fa *FileAssertions) path(rel string) string {
	return filepath.Join(fa.baseDir, filepath.FromSlash(rel))
}

// Exists requires a regular file at rel.
func (fa *FileAssertions) Exists(rel string) *FileAssertions {
	fa.t.Helper()
	require.FileExists(fa.t, fa.path(rel))
	return fa
}

// Missing requires that nothing exists at rel.
func (fa *FileAssertions) Missing(rel string) *FileAssertions {
	fa.t.Helper()
	require.NoFileExists(fa.t, fa.path(rel))
	return fa
}

// Contains requires the file at rel to contain want.
func (fa *FileAssertions) Contains(rel, want string) *FileAssertions {
	fa.t.Helper()
	require.Contains(fa.t, fa.Read(rel), want)
	return fa
}

// Equals requires the file at rel to hold exactly want.
func (fa *FileAssertions) Equals(rel, want string) *FileAssertions {
	fa.t.Helper()
	require.Equal(fa.t, want, fa.Read(rel))
	return fa
}

// Read returns the content of the file at rel.
func (fa *FileAssertions) Read(rel string) string {
	fa.t.Helper()
	// #nosec G304 -- test helper, paths are controlled by test code
	data, err := os.ReadFile(fa.path(rel))
	require.NoError(fa.t, err)
	return string(data)
}
