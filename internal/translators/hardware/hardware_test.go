package hardware

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/translator"
)

func TestApplyUSBAuthorizationWritesSysfsAttribute(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "authorized")
	require.NoError(t, os.WriteFile(path, []byte("1\n"), 0o644))
	usbPortPath["usb0"] = path
	defer delete(usbPortPath, "usb0")

	tr := New(9)
	diff := []configtree.DiffEntry{
		{Path: "/hardware/component/usb0/infix-hardware:state/admin-state", Op: configtree.OpReplace, NewValue: configtree.NewValue("disabled")},
	}
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventChange, diff, nil))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "0\n", string(content))
}

func TestHandleUpdateIsNoOp(t *testing.T) {
	tr := New(9)
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventUpdate, nil, nil))
}
