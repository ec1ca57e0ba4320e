package moduleutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteArtifactAtomicallyLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "file.conf")

	require.NoError(t, WriteArtifactAtomically(path, []byte("hello\n"), 0o644))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(content))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestAbandonArtifactIsNoOpWhenMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, AbandonArtifact(filepath.Join(dir, "missing.conf")))
}

func TestSignalReloadNoOpWithNilRunner(t *testing.T) {
	require.NoError(t, SignalReload(nil, nil, "true", nil))
}
