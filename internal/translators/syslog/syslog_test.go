package syslog

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

func TestHandleChangeWritesFileAction(t *testing.T) {
	dir := t.TempDir()
	syslogDir = dir
	defer func() { syslogDir = "/etc/syslog.d" }()

	proc := &fakeProc{}
	tr := New(60, proc)

	diff := []configtree.DiffEntry{
		{Path: "/syslog/actions/file/messages/facility-filter/facility-list", Op: configtree.OpCreate, NewValue: configtree.NewValue("*.info")},
	}
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventChange, diff, nil))

	content, err := os.ReadFile(filepath.Join(dir, "log-file-messages.conf"))
	require.NoError(t, err)
	require.Contains(t, string(content), "*.info")
	require.Equal(t, []string{"initctl", "touch", "sysklogd"}, proc.calls[0])
}
