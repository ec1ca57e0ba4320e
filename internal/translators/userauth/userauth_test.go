package userauth

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

func TestHandleChangeWritesAuthorizedKeys(t *testing.T) {
	dir := t.TempDir()
	authorizedKeysDir = dir
	defer func() { authorizedKeysDir = "/etc/ssh/authorized_keys.d" }()

	proc := &fakeProc{}
	tr := New(65, proc)

	diff := []configtree.DiffEntry{
		{Path: "/system/authentication/user/admin/authorized-key/k1/key-data", Op: configtree.OpCreate, NewValue: configtree.NewValue("ssh-ed25519 AAAA...")},
	}
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventChange, diff, nil))

	content, err := os.ReadFile(filepath.Join(dir, "admin"))
	require.NoError(t, err)
	require.Contains(t, string(content), "ssh-ed25519 AAAA...")
	require.Equal(t, []string{"augtool", "save"}, proc.calls[0])
}
