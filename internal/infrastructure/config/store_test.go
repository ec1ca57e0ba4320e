package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/kernelkit/confd/internal/domain/configtree"
)

func TestStoreLoadStartupRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "startup.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"format_version": 1,
		"source": "test",
		"tree": {"hostname": "infix-1", "interfaces": {"eth0": {"enabled": true}}}
	}`), 0o644))

	s := New()
	tree, err := s.LoadStartup(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, tree.Get("/hostname"))
	require.Equal(t, "infix-1", tree.Get("/hostname").Value.String())
}

func TestStoreLoadMissingFileIsNotFound(t *testing.T) {
	s := New()
	_, err := s.LoadStartup(context.Background(), "/nonexistent/path.json")
	require.Error(t, err)
}

func TestStoreSaveStartupAtomicWriteAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "startup.json")

	original := map[string]interface{}{
		"hostname": "router-2",
		"interfaces": map[string]interface{}{
			"eth0": map[string]interface{}{"enabled": true},
		},
	}
	tree := configtree.FromJSON(original)

	s := New()
	require.NoError(t, s.SaveStartup(context.Background(), path, tree))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	reloaded, err := s.LoadStartup(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "router-2", reloaded.Get("/hostname").Value.String())

	if diff := cmp.Diff(original, reloaded.ToJSON()); diff != "" {
		t.Fatalf("round-tripped tree does not match original (-want +got):\n%s", diff)
	}
}
