package containers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/translator"
)

type fakeProc struct{ calls [][]string }

func (f *fakeProc) Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return nil, nil, nil
}

func TestHandleChangeWritesJobScriptAndEnablesUnit(t *testing.T) {
	dir := t.TempDir()
	jobQueueDir = dir
	defer func() { jobQueueDir = "/run/containers/queue" }()

	proc := &fakeProc{}
	tr := New(80, proc)

	diff := []configtree.DiffEntry{
		{Path: "/containers/container/web/image", Op: configtree.OpCreate, NewValue: configtree.NewValue("nginx:latest")},
	}
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventChange, diff, nil))

	content, err := os.ReadFile(filepath.Join(dir, "S01-web.sh"))
	require.NoError(t, err)
	require.Contains(t, string(content), "container run --name web nginx:latest")
	require.Equal(t, []string{"initctl", "enable", "container@web"}, proc.calls[0])
}
