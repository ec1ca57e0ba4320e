package dhcpserver

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

func TestHandleChangeWritesSubnetConfig(t *testing.T) {
	dir := t.TempDir()
	dnsmasqDir = dir
	defer func() { dnsmasqDir = "/etc/dnsmasq.d" }()

	proc := &fakeProc{}
	tr := New(40, proc)

	diff := []configtree.DiffEntry{
		{Path: "/dhcp-server/subnet/lan/range/lower", Op: configtree.OpCreate, NewValue: configtree.NewValue("10.0.0.10")},
		{Path: "/dhcp-server/subnet/lan/range/upper", Op: configtree.OpCreate, NewValue: configtree.NewValue("10.0.0.200")},
	}
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventChange, diff, nil))

	content, err := os.ReadFile(filepath.Join(dir, "lan.conf"))
	require.NoError(t, err)
	require.Contains(t, string(content), "dhcp-range=set:lan,10.0.0.10,10.0.0.200,12h")
	require.Equal(t, []string{"initctl", "touch", "dnsmasq"}, proc.calls[0])
}
