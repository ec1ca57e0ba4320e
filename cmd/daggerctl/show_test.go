package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kernelkit/confd/internal/domain/generation"
	"github.com/kernelkit/confd/internal/infrastructure/dagger"
)

func TestReadGenerationCollectsActionsDepsAndSkips(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	g, err := dagger.New(root)
	require.NoError(t, err)
	_, err = g.Claim(ctx)
	require.NoError(t, err)

	w, err := g.Open(ctx, generation.PhaseInit, "eth0.10", 10, "ip.ip")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, g.AddDep(ctx, "eth0.10", "eth0"))
	require.NoError(t, g.AddNode(ctx, "eth0"))
	require.NoError(t, g.Skip(ctx, "veth0b"))

	summary, err := readGeneration(root, 0)
	require.NoError(t, err)
	require.Equal(t, 0, summary.Generation)

	byName := make(map[string]entitySummary)
	for _, e := range summary.Entities {
		byName[e.Entity] = e
	}

	require.Contains(t, byName["eth0.10"].Init, "10-ip.ip")
	require.Equal(t, []string{"eth0"}, byName["eth0.10"].Depends)
	require.True(t, byName["veth0b"].Skipped)
}

func TestResolveGenerationNext(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	g, err := dagger.New(root)
	require.NoError(t, err)
	n, err := g.Claim(ctx)
	require.NoError(t, err)

	resolved, err := resolveGeneration(root, "next")
	require.NoError(t, err)
	require.Equal(t, int(n), resolved)
}
