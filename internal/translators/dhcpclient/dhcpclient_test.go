package dhcpclient

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

func TestHandleChangeEnablesClientUnit(t *testing.T) {
	dir := t.TempDir()
	configDir = dir
	defer func() { configDir = "/etc/dhcp-client" }()

	proc := &fakeProc{}
	tr := New(30, proc)

	diff := []configtree.DiffEntry{
		{Path: "/dhcp-client/client-if/eth0/client-id", Op: configtree.OpCreate, NewValue: configtree.NewValue("router1")},
	}
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventChange, diff, nil))

	content, err := os.ReadFile(filepath.Join(dir, "eth0.conf"))
	require.NoError(t, err)
	require.Contains(t, string(content), "interface eth0")
	require.Equal(t, []string{"initctl", "touch", "dhcp-client@eth0"}, proc.calls[0])
}
