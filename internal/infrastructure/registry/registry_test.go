package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/translator"
	"github.com/kernelkit/confd/internal/ports"
)

type fakeTranslator struct {
	md translator.Metadata
}

func (f fakeTranslator) Metadata() translator.Metadata { return f.md }

func (f fakeTranslator) HandleEvent(ctx context.Context, ev translator.Event, diff []configtree.DiffEntry, dag ports.Dagger) error {
	return nil
}

func TestRegistryOrdersByDependencyThenPriority(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(fakeTranslator{md: translator.Metadata{Name: "firewall", Type: "firewall", XPath: "/firewall", Priority: 50, Dependencies: []translator.Type{"interface"}}}))
	require.NoError(t, r.Register(fakeTranslator{md: translator.Metadata{Name: "interface", Type: "interface", XPath: "/interfaces", Priority: 10}}))
	require.NoError(t, r.Register(fakeTranslator{md: translator.Metadata{Name: "hostname", Type: "hostname", XPath: "/hostname", Priority: 5}}))

	require.NoError(t, r.ValidateDependencies())

	ordered := r.Ordered()
	require.Len(t, ordered, 3)
	require.Equal(t, translator.Type("hostname"), ordered[0].Metadata().Type)
	require.Equal(t, translator.Type("interface"), ordered[1].Metadata().Type)
	require.Equal(t, translator.Type("firewall"), ordered[2].Metadata().Type)
}

func TestRegistryDetectsMissingDependency(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(fakeTranslator{md: translator.Metadata{Name: "firewall", Type: "firewall", XPath: "/firewall", Dependencies: []translator.Type{"interface"}}}))

	err := r.ValidateDependencies()
	require.Error(t, err)
}

func TestRegistryDetectsCycle(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(fakeTranslator{md: translator.Metadata{Name: "a", Type: "a", XPath: "/a", Dependencies: []translator.Type{"b"}}}))
	require.NoError(t, r.Register(fakeTranslator{md: translator.Metadata{Name: "b", Type: "b", XPath: "/b", Dependencies: []translator.Type{"a"}}}))

	err := r.ValidateDependencies()
	require.Error(t, err)
}

func TestRegistryRejectsDuplicateRegistration(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(fakeTranslator{md: translator.Metadata{Name: "a", Type: "a", XPath: "/a"}}))
	err := r.Register(fakeTranslator{md: translator.Metadata{Name: "a", Type: "a", XPath: "/a"}})
	require.Error(t, err)
}

func TestRegistryGetUnknownType(t *testing.T) {
	r := New()
	_, err := r.Get("missing")
	require.Error(t, err)
}
