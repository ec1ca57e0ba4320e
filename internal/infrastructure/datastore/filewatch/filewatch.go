// Package filewatch is the concrete ports.Datastore this module ships so
// the daemon is runnable standalone (spec §6.1): it watches a JSON
// configuration document on disk with fsnotify and synthesizes the
// UPDATE -> CHANGE -> DONE/ABORT sequence a real YANG datastore (sysrepo)
// would deliver, computing the diff with a recursive JSON tree-walk.
package filewatch

import (
	"context"
	"encoding/json"
	"os"
	"reflect"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"

	"github.com/kernelkit/confd/internal/domain/confderr"
	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/translator"
	"github.com/kernelkit/confd/internal/ports"
)

// Datastore watches a single JSON document for changes.
type Datastore struct {
	path string

	mu   sync.Mutex
	last map[string]interface{}

	group singleflight.Group
}

var _ ports.Datastore = (*Datastore)(nil)

// New returns a Datastore watching path. The file must already exist;
// its initial content is read as the datastore's starting tree.
func New(path string) (*Datastore, error) {
	d := &Datastore{path: path}
	initial, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	d.last = initial
	return d, nil
}

func readDocument(path string) (map[string]interface{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, confderr.Wrap(confderr.ErrCodeInternal, "read watched document", err,
			map[string]interface{}{"path": path})
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, confderr.Wrap(confderr.ErrCodeValidation, "parse watched document", err,
			map[string]interface{}{"path": path})
	}
	return decoded, nil
}

// CurrentTree implements ports.Datastore.
func (d *Datastore) CurrentTree(ctx context.Context) (*configtree.Tree, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return configtree.FromJSON(d.last), nil
}

// Subscribe implements ports.Datastore. Filesystem events are handled one
// at a time on the watcher goroutine; each reload runs through the
// singleflight group, but calls never overlap, so the group does not merge
// them. A reload whose document equals the last processed revision is
// dropped, so repeated notifications for an unchanged document (an
// editor's write-then-rename, or a bare touch) trigger nothing, and each
// distinct revision produces its own UPDATE/CHANGE/DONE sequence.
func (d *Datastore) Subscribe(ctx context.Context, handler ports.ChangeHandler) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return confderr.Wrap(confderr.ErrCodeInternal, "create filesystem watcher", err, nil)
	}
	if err := watcher.Add(d.path); err != nil {
		watcher.Close()
		return confderr.Wrap(confderr.ErrCodeInternal, "watch configuration document", err,
			map[string]interface{}{"path": d.path})
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				d.group.Do(d.path, func() (interface{}, error) {
					d.reload(ctx, handler)
					return nil, nil
				})
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

func (d *Datastore) reload(ctx context.Context, handler ports.ChangeHandler) {
	next, err := readDocument(d.path)
	if err != nil {
		return
	}

	d.mu.Lock()
	prev := d.last
	d.mu.Unlock()

	if reflect.DeepEqual(prev, next) {
		return
	}

	requestID := newRequestID()
	diff := diffDocuments(prev, next)

	if err := handler(ctx, requestID, translator.EventUpdate, diff); err != nil {
		return
	}
	if err := handler(ctx, requestID, translator.EventChange, diff); err != nil {
		handler(ctx, requestID, translator.EventAbort, diff)
		return
	}

	d.mu.Lock()
	d.last = next
	d.mu.Unlock()

	handler(ctx, requestID, translator.EventDone, diff)
}
