package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TestWriteFile
// =============================================================================

func TestWriteFile(t *testing.T) {
	t.Run("writes file and verifies content", func(t *testing.T) {
		targetPath := filepath.Join(t.TempDir(), "Chương 1.txt")
		expected := []byte("Nhà sư mở cuộn giấy.")

		require.NoError(t, WriteFile(targetPath, expected, 0644))

		actual, err := os.ReadFile(targetPath)
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		targetPath := filepath.Join(t.TempDir(), "overwrite.txt")

		require.NoError(t, WriteFile(targetPath, []byte("original content"), 0644))
		require.NoError(t, WriteFile(targetPath, []byte("new content"), 0644))

		actual, err := os.ReadFile(targetPath)
		require.NoError(t, err)
		assert.Equal(t, "new content", string(actual))
	})

	t.Run("creates parent directories if they do not exist", func(t *testing.T) {
		targetPath := filepath.Join(t.TempDir(), "nested", "dirs", "test.txt")

		require.NoError(t, WriteFile(targetPath, []byte("content"), 0644))

		actual, err := os.ReadFile(targetPath)
		require.NoError(t, err)
		assert.Equal(t, "content", string(actual))
	})

	t.Run("applies permissions", func(t *testing.T) {
		targetPath := filepath.Join(t.TempDir(), "config.yaml")

		require.NoError(t, WriteFile(targetPath, []byte("version: 1"), 0600))

		info, err := os.Stat(targetPath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})
}

// =============================================================================
// TestAtomicWriter
// =============================================================================

func TestAtomicWriter(t *testing.T) {
	t.Run("Write and Commit flow", func(t *testing.T) {
		targetPath := filepath.Join(t.TempDir(), "atomic.txt")

		writer, err := NewAtomicWriter(targetPath, 0644)
		require.NoError(t, err)

		_, err = writer.Write([]byte("Hello, "))
		require.NoError(t, err)
		_, err = writer.Write([]byte("World!"))
		require.NoError(t, err)

		// Nothing is visible before commit.
		_, err = os.Stat(targetPath)
		assert.True(t, os.IsNotExist(err))

		require.NoError(t, writer.Commit())

		content, err := os.ReadFile(targetPath)
		require.NoError(t, err)
		assert.Equal(t, "Hello, World!", string(content))
	})

	t.Run("Abort cleans up temp file", func(t *testing.T) {
		tempDir := t.TempDir()
		targetPath := filepath.Join(tempDir, "aborted.txt")

		writer, err := NewAtomicWriter(targetPath, 0644)
		require.NoError(t, err)

		_, err = writer.Write([]byte("should be aborted"))
		require.NoError(t, err)
		require.NoError(t, writer.Abort())

		_, err = os.Stat(targetPath)
		assert.True(t, os.IsNotExist(err), "target file should not exist after abort")

		entries, err := os.ReadDir(tempDir)
		require.NoError(t, err)
		for _, entry := range entries {
			assert.False(t, strings.HasPrefix(entry.Name(), ".tmp-"),
				"temp file should be cleaned up after abort")
		}
	})
}

// =============================================================================
// TestUniquePath
// =============================================================================

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()

	first := UniquePath(dir, "Phần 1", ".txt")
	assert.Equal(t, filepath.Join(dir, "Phần 1.txt"), first)
	require.NoError(t, WriteFile(first, []byte("a"), 0644))

	second := UniquePath(dir, "Phần 1", ".txt")
	assert.Equal(t, filepath.Join(dir, "Phần 1 (1).txt"), second)
	require.NoError(t, WriteFile(second, []byte("b"), 0644))

	assert.Equal(t, filepath.Join(dir, "Phần 1 (2).txt"), UniquePath(dir, "Phần 1", ".txt"))
}
