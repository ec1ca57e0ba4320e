package dns

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/translator"
)

type fakeProc struct {
	calls [][]string
}

func (f *fakeProc) Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return nil, nil, nil
}

func TestHandleChangeWritesResolvConfAndSignalsReload(t *testing.T) {
	dir := t.TempDir()
	resolvConf = filepath.Join(dir, "resolv.conf")
	defer func() { resolvConf = "/etc/resolv.conf" }()

	proc := &fakeProc{}
	tr := New(45, proc)

	diff := []configtree.DiffEntry{
		{Path: "/dns-resolver/search", Op: configtree.OpCreate, NewValue: configtree.NewValue("example.com")},
		{Path: "/dns-resolver/server/address", Op: configtree.OpCreate, NewValue: configtree.NewValue("10.0.0.1")},
	}
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventChange, diff, nil))

	content, err := os.ReadFile(resolvConf)
	require.NoError(t, err)
	require.Contains(t, string(content), "search example.com")
	require.Contains(t, string(content), "nameserver 10.0.0.1")
	require.Len(t, proc.calls, 1)
	require.Equal(t, []string{"resolvconf", "-u"}, proc.calls[0])
}

func TestHandleChangeAllDeletedRemovesArtifact(t *testing.T) {
	dir := t.TempDir()
	resolvConf = filepath.Join(dir, "resolv.conf")
	defer func() { resolvConf = "/etc/resolv.conf" }()
	require.NoError(t, os.WriteFile(resolvConf+".next", []byte("stale"), 0o644))

	proc := &fakeProc{}
	tr := New(45, proc)

	diff := []configtree.DiffEntry{
		{Path: "/dns-resolver/search", Op: configtree.OpDelete, OldValue: configtree.NewValue("example.com")},
	}
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventChange, diff, nil))
	_, err := os.Stat(resolvConf + ".next")
	require.True(t, os.IsNotExist(err))
}
