package transaction

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/generation"
	"github.com/kernelkit/confd/internal/domain/translator"
	"github.com/kernelkit/confd/internal/ports"
)

type fakeDagger struct {
	claimed  bool
	abandons int
	gen      generation.Number
}

func (f *fakeDagger) Claim(ctx context.Context) (generation.Number, error) {
	f.claimed = true
	return f.gen, nil
}
func (f *fakeDagger) Open(ctx context.Context, phase generation.Phase, entity string, priority int, script string) (io.WriteCloser, error) {
	return nil, nil
}
func (f *fakeDagger) OpenCurrent(ctx context.Context, phase generation.Phase, entity string, priority int, script string) (io.WriteCloser, error) {
	return nil, nil
}
func (f *fakeDagger) AddDep(ctx context.Context, dependent, dependee string) error { return nil }
func (f *fakeDagger) AddNode(ctx context.Context, entity string) error            { return nil }
func (f *fakeDagger) Skip(ctx context.Context, entity string) error               { return nil }
func (f *fakeDagger) Evolve(ctx context.Context) error                            { return nil }
func (f *fakeDagger) Abandon(ctx context.Context) error {
	f.abandons++
	return nil
}

type fakeRunner struct {
	ran  bool
	fail bool
}

func (f *fakeRunner) Run(ctx context.Context, n generation.Number) error {
	f.ran = true
	if f.fail {
		return errors.New("boom")
	}
	return nil
}

type fakeRegistry struct {
	translators []ports.Translator
}

func (f *fakeRegistry) Register(t ports.Translator) error { return nil }
func (f *fakeRegistry) ValidateDependencies() error       { return nil }
func (f *fakeRegistry) Ordered() []ports.Translator       { return f.translators }
func (f *fakeRegistry) Get(typ translator.Type) (ports.Translator, error) {
	for _, t := range f.translators {
		if t.Metadata().Type == typ {
			return t, nil
		}
	}
	return nil, errors.New("not found")
}

type fakeTranslator struct {
	md      translator.Metadata
	reject  bool
	calls   int
}

func (f *fakeTranslator) Metadata() translator.Metadata { return f.md }
func (f *fakeTranslator) HandleEvent(ctx context.Context, ev translator.Event, diff []configtree.DiffEntry, dag ports.Dagger) error {
	f.calls++
	if f.reject {
		return errors.New("rejected")
	}
	return nil
}

func sampleDiff() []configtree.DiffEntry {
	return []configtree.DiffEntry{{Path: "/interfaces/eth0/enabled", Op: configtree.OpReplace, Modified: true}}
}

func TestCoordinatorCommitsOnDone(t *testing.T) {
	tr := &fakeTranslator{md: translator.Metadata{Name: "interface", Type: "interface", XPath: "/interfaces"}}
	reg := &fakeRegistry{translators: []ports.Translator{tr}}
	dag := &fakeDagger{gen: 3}
	run := &fakeRunner{}

	c := New(reg, dag, run)

	ctx := context.Background()
	require.NoError(t, c.HandleEvent(ctx, "req-1", translator.EventChange, sampleDiff()))
	require.Equal(t, 1, tr.calls)

	require.NoError(t, c.HandleEvent(ctx, "req-1", translator.EventDone, nil))
	require.True(t, run.ran)
}

func TestCoordinatorAbandonsOnTranslatorRejection(t *testing.T) {
	tr := &fakeTranslator{md: translator.Metadata{Name: "interface", Type: "interface", XPath: "/interfaces"}, reject: true}
	reg := &fakeRegistry{translators: []ports.Translator{tr}}
	dag := &fakeDagger{gen: 1}
	run := &fakeRunner{}

	c := New(reg, dag, run)

	err := c.HandleEvent(context.Background(), "req-2", translator.EventChange, sampleDiff())
	require.Error(t, err)
	require.Equal(t, 1, dag.abandons)
}

func TestCoordinatorSkipsUntouchedTranslator(t *testing.T) {
	tr := &fakeTranslator{md: translator.Metadata{Name: "dns", Type: "dns", XPath: "/dns"}}
	reg := &fakeRegistry{translators: []ports.Translator{tr}}
	dag := &fakeDagger{gen: 0}
	run := &fakeRunner{}

	c := New(reg, dag, run)
	require.NoError(t, c.HandleEvent(context.Background(), "req-3", translator.EventChange, sampleDiff()))
	require.Equal(t, 0, tr.calls)
}
