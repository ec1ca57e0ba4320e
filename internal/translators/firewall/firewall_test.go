package firewall

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

func TestHandleChangeRollsStagedZonesOntoLiveDir(t *testing.T) {
	dir := t.TempDir()
	liveDir = filepath.Join(dir, "firewalld")
	stageDir = filepath.Join(dir, "firewalld+")
	defer func() {
		liveDir = "/etc/firewalld"
		stageDir = "/etc/firewalld+"
	}()

	proc := &fakeProc{}
	tr := New(50, proc)

	diff := []configtree.DiffEntry{
		{Path: "/firewall/zone/lan/default-action", Op: configtree.OpCreate, NewValue: configtree.NewValue("accept")},
		{Path: "/firewall/zone/lan/interface/eth0", Op: configtree.OpCreate, NewValue: configtree.NewValue("eth0")},
	}
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventChange, diff, nil))

	content, err := os.ReadFile(filepath.Join(liveDir, "zones", "lan.xml"))
	require.NoError(t, err)
	require.Contains(t, string(content), `target="ACCEPT"`)
	require.Contains(t, string(content), `interface name="eth0"`)

	_, err = os.Stat(stageDir)
	require.True(t, os.IsNotExist(err))
	require.Equal(t, []string{"initctl", "touch", "firewalld"}, proc.calls[0])
}
