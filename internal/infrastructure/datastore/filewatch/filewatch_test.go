package filewatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/translator"
)

func TestDatastoreSubscribeSynthesizesChangeSequence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"hostname":"a"}`), 0o644))

	ds, err := New(path)
	require.NoError(t, err)

	var mu sync.Mutex
	var events []translator.Event
	done := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, ds.Subscribe(ctx, func(ctx context.Context, requestID string, ev translator.Event, diff []configtree.DiffEntry) error {
		mu.Lock()
		events = append(events, ev)
		n := len(events)
		mu.Unlock()
		if ev == translator.EventDone && n > 0 {
			select {
			case done <- struct{}{}:
			default:
			}
		}
		return nil
	}))

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{"hostname":"b"}`), 0o644))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for DONE event")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, events, translator.EventUpdate)
	require.Contains(t, events, translator.EventChange)
	require.Contains(t, events, translator.EventDone)
}

func TestDiffDocumentsDetectsReplace(t *testing.T) {
	prev := map[string]interface{}{"hostname": "a"}
	next := map[string]interface{}{"hostname": "b"}

	diff := diffDocuments(prev, next)
	require.Len(t, diff, 1)
	require.Equal(t, "/hostname", diff[0].Path)
	require.Equal(t, configtree.OpReplace, diff[0].Op)
}

func TestDiffDocumentsDetectsCreateAndDelete(t *testing.T) {
	prev := map[string]interface{}{"a": "1"}
	next := map[string]interface{}{"b": "2"}

	diff := diffDocuments(prev, next)
	require.Len(t, diff, 2)
}
