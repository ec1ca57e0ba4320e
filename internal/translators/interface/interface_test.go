package ifmod

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/generation"
	"github.com/kernelkit/confd/internal/domain/translator"
	"github.com/kernelkit/confd/internal/ports"
)

type fakeDagger struct {
	opened        map[string]string
	openedCurrent map[string]string
	deps          map[string]string
	skips         []string
	nodes         []string
}

func newFakeDagger() *fakeDagger {
	return &fakeDagger{opened: map[string]string{}, openedCurrent: map[string]string{}, deps: map[string]string{}}
}

func (f *fakeDagger) Claim(ctx context.Context) (generation.Number, error) { return 0, nil }

func (f *fakeDagger) Open(ctx context.Context, phase generation.Phase, entity string, priority int, script string) (io.WriteCloser, error) {
	return &fakeWriter{dest: f.opened, key: string(phase) + ":" + entity + ":" + script}, nil
}
func (f *fakeDagger) OpenCurrent(ctx context.Context, phase generation.Phase, entity string, priority int, script string) (io.WriteCloser, error) {
	return &fakeWriter{dest: f.openedCurrent, key: string(phase) + ":" + entity + ":" + script}, nil
}
func (f *fakeDagger) AddDep(ctx context.Context, dependent, dependee string) error {
	f.deps[dependent] = dependee
	return nil
}
func (f *fakeDagger) AddNode(ctx context.Context, entity string) error {
	f.nodes = append(f.nodes, entity)
	return nil
}
func (f *fakeDagger) Skip(ctx context.Context, entity string) error {
	f.skips = append(f.skips, entity)
	return nil
}
func (f *fakeDagger) Evolve(ctx context.Context) error  { return nil }
func (f *fakeDagger) Abandon(ctx context.Context) error { return nil }

type fakeWriter struct {
	dest map[string]string
	key  string
	buf  []byte
}

func (w *fakeWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	w.dest[w.key] = string(w.buf)
	return len(p), nil
}
func (w *fakeWriter) Close() error { return nil }

func TestInferKindFromName(t *testing.T) {
	require.Equal(t, KindBridge, inferKind("br0"))
	require.Equal(t, KindLAG, inferKind("bond0"))
	require.Equal(t, KindVeth, inferKind("veth0a"))
	require.Equal(t, KindVLAN, inferKind("eth0.10"))
	require.Equal(t, KindLoopback, inferKind("lo"))
	require.Equal(t, KindEthernet, inferKind("eth0"))
}

func TestHandleChangeCreatesVLANAndRegistersDependency(t *testing.T) {
	tr := New(20)
	dag := newFakeDagger()

	diff := []configtree.DiffEntry{
		{Path: "/interfaces/eth0.10/type", Op: configtree.OpCreate, NewValue: configtree.NewValue("vlan")},
		{Path: "/interfaces/eth0.10/vlan/id", Op: configtree.OpCreate, NewValue: configtree.NewValue("10")},
		{Path: "/interfaces/eth0.10/vlan/lower-layer-if", Op: configtree.OpCreate, NewValue: configtree.NewValue("eth0")},
	}

	var asPorts ports.Dagger = dag
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventChange, diff, asPorts))
	require.Equal(t, "eth0", dag.deps["eth0.10"])

	script := dag.opened["init:eth0.10:ip.ip"]
	require.Contains(t, script, "link add link eth0 name eth0.10 type vlan id 10")
}

func TestHandleChangeSkipsVethPeer(t *testing.T) {
	tr := New(20)
	dag := newFakeDagger()

	diff := []configtree.DiffEntry{
		{Path: "/interfaces/veth0a/type", Op: configtree.OpCreate, NewValue: configtree.NewValue("veth")},
		{Path: "/interfaces/veth0a/veth/peer", Op: configtree.OpCreate, NewValue: configtree.NewValue("veth0b")},
	}

	var asPorts ports.Dagger = dag
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventChange, diff, asPorts))
	require.Contains(t, dag.skips, "veth0b")
}

func TestHandleChangeStagesDeleteIntoCurrentGeneration(t *testing.T) {
	tr := New(20)
	dag := newFakeDagger()

	diff := []configtree.DiffEntry{
		{Path: "/interfaces/eth1/name", Op: configtree.OpDelete},
	}

	var asPorts ports.Dagger = dag
	require.NoError(t, tr.HandleEvent(context.Background(), translator.EventChange, diff, asPorts))

	require.Contains(t, dag.openedCurrent["exit:eth1:ip.ip"], "link del dev eth1")
	require.Empty(t, dag.opened["exit:eth1:ip.ip"])
}

func TestHandleChangeRejectsNameExceedingKernelLimit(t *testing.T) {
	tr := New(20)
	dag := newFakeDagger()

	diff := []configtree.DiffEntry{
		{Path: "/interfaces/this-name-is-way-too-long-for-ifnamsiz/type", Op: configtree.OpCreate, NewValue: configtree.NewValue("ethernet")},
	}

	var asPorts ports.Dagger = dag
	require.Error(t, tr.HandleEvent(context.Background(), translator.EventChange, diff, asPorts))
}

func TestMustDeleteOnPhysicalAddressChange(t *testing.T) {
	entries := []configtree.DiffEntry{
		{Path: "/interfaces/eth0/address", Op: configtree.OpReplace, NewValue: configtree.NewValue("aa:bb:cc:dd:ee:ff")},
	}
	require.True(t, mustDelete(KindEthernet, entries))
}

func TestMustDeleteFalseWithoutReplace(t *testing.T) {
	entries := []configtree.DiffEntry{
		{Path: "/interfaces/eth0/enabled", Op: configtree.OpCreate, NewValue: configtree.NewValue("true")},
	}
	require.False(t, mustDelete(KindEthernet, entries))
}
