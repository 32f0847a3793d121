package local_fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS_Delete(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "gifts"), 0755))
	file := filepath.Join(dir, "gifts", "a.png")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	c, err := NewClient(&Config{SavePath: dir})
	require.NoError(t, err)

	require.NoError(t, c.Delete(context.Background(), "gifts/a.png", "gifts/missing.png"))
	_, err = os.Stat(file)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalFS_RejectsEscape(t *testing.T) {
	c, err := NewClient(&Config{SavePath: t.TempDir()})
	require.NoError(t, err)

	assert.Error(t, c.Delete(context.Background(), "../../etc/passwd"))
}
