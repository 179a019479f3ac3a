package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	dir := t.TempDir()
	resolvedDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	t.Run("rejects empty path", func(t *testing.T) {
		_, err := CleanPath("SQLITE_PATH", "")
		assert.ErrorContains(t, err, "SQLITE_PATH: path cannot be empty")
	})

	t.Run("rejects shell metacharacters", func(t *testing.T) {
		for _, path := range []string{"db;rm -rf /", "$(whoami).db", "a|b", "x`y`"} {
			_, err := CleanPath("SQLITE_PATH", path)
			assert.ErrorContains(t, err, "forbidden character", path)
		}
	})

	t.Run("cleans a path that does not exist yet", func(t *testing.T) {
		got, err := CleanPath("SQLITE_PATH", filepath.Join(dir, "data", "..", "slotwise.db"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "slotwise.db"), got)
	})

	t.Run("resolves symlinks", func(t *testing.T) {
		target := filepath.Join(dir, "catalog.yaml")
		require.NoError(t, os.WriteFile(target, []byte("windows: {}\n"), 0o600))
		link := filepath.Join(dir, "link.yaml")
		require.NoError(t, os.Symlink(target, link))

		got, err := CleanPath("SCHEDULE_CATALOG_PATH", link)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(resolvedDir, "catalog.yaml"), got)
	})

	t.Run("makes relative paths absolute", func(t *testing.T) {
		got, err := CleanPath("SQLITE_PATH", "slotwise.db")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})
}

func TestCleanFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := CleanFile("SCHEDULE_CATALOG_PATH", filepath.Join(dir, "nope.yaml"))
		assert.ErrorContains(t, err, "SCHEDULE_CATALOG_PATH")
	})

	t.Run("directory", func(t *testing.T) {
		_, err := CleanFile("SCHEDULE_CATALOG_PATH", dir)
		assert.ErrorContains(t, err, "is a directory")
	})

	t.Run("existing file", func(t *testing.T) {
		path := filepath.Join(dir, "catalog.yaml")
		require.NoError(t, os.WriteFile(path, []byte("windows: {}\n"), 0o600))
		got, err := CleanFile("SCHEDULE_CATALOG_PATH", path)
		require.NoError(t, err)
		assert.Equal(t, "catalog.yaml", filepath.Base(got))
	})
}
