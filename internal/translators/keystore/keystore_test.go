package keystore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/translator"
)

func TestHandleChangeStagesPrivateKey(t *testing.T) {
	dir := t.TempDir()
	sshPrivateKey = filepath.Join(dir, "ssh.key")
	defer func() { sshPrivateKey = "/etc/ssh/ssh_host_ed25519_key" }()

	tr := New(8)
	diff := []configtree.DiffEntry{
		{Path: "/keystore/asymmetric-keys/hostkey/cleartext-private-key", Op: configtree.OpCreate, NewValue: configtree.NewValue("PRIVATEKEYDATA")},
	}
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventChange, diff, nil))

	content, err := os.ReadFile(sshPrivateKey)
	require.NoError(t, err)
	require.Equal(t, "PRIVATEKEYDATA", string(content))
}
