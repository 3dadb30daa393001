package cryptox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadOrCreatePepper(t *testing.T) {
	t.Run("empty path disables pepper", func(t *testing.T) {
		pepper, err := LoadOrCreatePepper("")
		require.NoError(t, err)
		require.Empty(t, pepper)
	})

	t.Run("creates then reloads the same pepper", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "secrets", "pepper")

		first, err := LoadOrCreatePepper(path)
		require.NoError(t, err)
		require.NotEmpty(t, first)

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0600), info.Mode().Perm())

		second, err := LoadOrCreatePepper(path)
		require.NoError(t, err)
		require.Equal(t, first, second)
	})

	t.Run("trims whitespace from existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pepper")
		require.NoError(t, os.WriteFile(path, []byte("s3cret\n"), 0600))

		pepper, err := LoadOrCreatePepper(path)
		require.NoError(t, err)
		require.Equal(t, "s3cret", pepper)
	})

	t.Run("rejects empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pepper")
		require.NoError(t, os.WriteFile(path, []byte("  \n"), 0600))

		_, err := LoadOrCreatePepper(path)
		require.Error(t, err)
	})
}
