package runner

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kernelkit/confd/internal/domain/generation"
)

type fakeProc struct {
	calls [][]string
	fail  bool
}

func (f *fakeProc) Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.fail {
		return nil, []byte("boom"), os.ErrInvalid
	}
	return []byte("ok"), nil, nil
}

func writeAction(t *testing.T, root string, gen int, phase, entity, file, content string) {
	t.Helper()
	dir := filepath.Join(root, itoa(gen), "action", phase, entity)
	require.NoError(t, os.MkdirAll(dir, 0o775))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o774))
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func TestRunnerRunPromotesGenerationDespiteActionFailure(t *testing.T) {
	root := t.TempDir()
	writeAction(t, root, 0, "init", "eth0", "10-addr.ip", "addr add 192.0.2.1/24 dev eth0\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "0", "dag", "eth0"), 0o775))

	proc := &fakeProc{fail: true}
	r := New(root, proc)

	err := r.Run(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, proc.calls, 1)

	target, err := os.Readlink(filepath.Join(root, "current"))
	require.NoError(t, err)
	require.Equal(t, "0", target)

	_, err = os.Lstat(filepath.Join(root, "next"))
	require.True(t, os.IsNotExist(err))
}

func TestRunnerRunWithNoActionsStillPromotes(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "0", "action"), 0o775))

	proc := &fakeProc{}
	r := New(root, proc)

	require.NoError(t, r.Run(context.Background(), 0))

	target, err := os.Readlink(filepath.Join(root, "current"))
	require.NoError(t, err)
	require.Equal(t, "0", target)
}

func TestParsePriorityPrefix(t *testing.T) {
	require.Equal(t, 10, parsePriorityPrefix("10-addr.ip"))
	require.Equal(t, generation.MaxPriority+1, parsePriorityPrefix("noprefix.ip"))
}
