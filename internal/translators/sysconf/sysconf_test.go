package sysconf

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

func TestHandleChangeWritesActiveSlotMarker(t *testing.T) {
	dir := t.TempDir()
	activeSlotMarker = filepath.Join(dir, "active-slot")
	defer func() { activeSlotMarker = "/var/lib/confd/active-slot" }()

	tr := New(10, &fakeProc{})
	diff := []configtree.DiffEntry{
		{Path: "/system-software/active-slot", Op: configtree.OpReplace, NewValue: configtree.NewValue("slot-b")},
	}
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventChange, diff, nil))

	content, err := os.ReadFile(activeSlotMarker)
	require.NoError(t, err)
	require.Equal(t, "slot-b\n", string(content))
}

func TestHandleChangeSignalsFactoryReset(t *testing.T) {
	proc := &fakeProc{}
	tr := New(10, proc)
	diff := []configtree.DiffEntry{
		{Path: "/system-software/factory-reset-requested", Op: configtree.OpReplace, NewValue: configtree.NewValue(true)},
	}
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventChange, diff, nil))
	require.Equal(t, []string{"factory", "-y"}, proc.calls[0])
}
