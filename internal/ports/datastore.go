package ports

import (
	"context"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/translator"
)

// Datastore is the source of configuration change notifications (spec §6.1).
// The reference implementation subscribes to sysrepo; this module's
// adapter watches a JSON document on disk and synthesizes the same
// UPDATE/CHANGE/DONE/ABORT sequence from successive revisions.
type Datastore interface {
	// Subscribe registers handler to receive every lifecycle event for the
	// datastore's lifetime. Subscribe does not block; cancel ctx to stop
	// watching.
	Subscribe(ctx context.Context, handler ChangeHandler) error

	// CurrentTree returns the datastore's present configuration tree,
	// used to seed a translator's UPDATE-time leaf inference.
	CurrentTree(ctx context.Context) (*configtree.Tree, error)
}

// ChangeHandler is invoked once per lifecycle event delivered by a
// Datastore. requestID correlates the UPDATE/CHANGE/.../DONE-or-ABORT
// sequence belonging to one edit, matching the reference implementation's
// deduplication of a single sysrepo event into one call per subscriber.
type ChangeHandler func(ctx context.Context, requestID string, ev translator.Event, diff []configtree.DiffEntry) error
