package pkg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesToString(t *testing.T) {
	assert.Equal(t, "bench press", BytesToString([]byte("bench press")))
	assert.Equal(t, "", BytesToString(nil))
}

func TestPathExists(t *testing.T) {
	tempDir := t.TempDir()

	exists, err := PathExists(tempDir, true)
	require.NoError(t, err)
	assert.True(t, exists)

	// a dir is not a file
	exists, err = PathExists(tempDir, false)
	require.NoError(t, err)
	assert.False(t, exists)

	tempFile := filepath.Join(tempDir, "service.log")
	require.NoError(t, os.WriteFile(tempFile, []byte("log line"), 0o600))

	exists, err = PathExists(tempFile, false)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = PathExists(filepath.Join(tempDir, "missing"), false)
	require.NoError(t, err)
	assert.False(t, exists)
}
