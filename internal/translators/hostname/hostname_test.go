package hostname

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

func TestHandleChangeWritesHostnameFile(t *testing.T) {
	dir := t.TempDir()
	artifactPath = filepath.Join(dir, "hostname")
	defer func() { artifactPath = "/etc/hostname" }()

	proc := &fakeProc{}
	tr := New(5, proc)

	diff := []configtree.DiffEntry{
		{Path: "/system/hostname", Op: configtree.OpReplace, NewValue: configtree.NewValue("router1")},
	}
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventChange, diff, nil))

	content, err := os.ReadFile(artifactPath)
	require.NoError(t, err)
	require.Equal(t, "router1\n", string(content))
	require.Len(t, proc.calls, 1)
	require.Equal(t, []string{"hostname", "router1"}, proc.calls[0])
}

func TestHandleChangeIgnoresNonChangeEvents(t *testing.T) {
	tr := New(5, &fakeProc{})
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventUpdate, nil, nil))
}
