package ports

import (
	"context"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/translator"
)

// Translator encapsulates the lifecycle for one configuration module (spec
// §4.1, §4.3). The contract mirrors the reference implementation's sysrepo
// callbacks:
//   - Metadata() documents identity, subscription XPath, and ordering.
//   - HandleEvent() is invoked with the relevant subtree diff for UPDATE
//     (only when Metadata().WantsUpdate is set) and for CHANGE; on CHANGE
//     it validates and stages actions into the open generation via the
//     Dagger handed to it, returning an error to veto the transaction.
//     The coordinator does not dispatch DONE or ABORT to translators.
//
// Implementations must honour context cancellation and must not block
// indefinitely; the coordinator enforces no timeout of its own.
type Translator interface {
	Metadata() translator.Metadata
	HandleEvent(ctx context.Context, ev translator.Event, diff []configtree.DiffEntry, dag Dagger) error
}

// TranslatorRegistry manages translator discovery, dependency validation,
// and priority ordering. Infrastructure adapters populate the registry at
// startup (see cmd/confd/translators.go) while the transaction
// coordinator walks it in priority order for each lifecycle event.
// Registries must be safe for concurrent use.
type TranslatorRegistry interface {
	Register(t Translator) error
	ValidateDependencies() error
	Ordered() []Translator
	Get(typ translator.Type) (Translator, error)
}
