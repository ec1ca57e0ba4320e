package ports

import (
	"context"

	"github.com/kernelkit/confd/internal/domain/configtree"
)

// ConfigStore loads and persists the three JSON configuration documents the
// daemon is invoked against (spec §6.3): the factory-default document
// shipped with the image, the startup document restored on boot, and the
// failure document substituted when startup validation fails (fail-secure
// bootstrap). The document bodies are schema-free JSON (spec §6); only the
// small envelope around them (format version, source path) is validated
// with go-playground/validator.
type ConfigStore interface {
	LoadFactory(ctx context.Context, path string) (*configtree.Tree, error)
	LoadStartup(ctx context.Context, path string) (*configtree.Tree, error)
	LoadFailure(ctx context.Context, path string) (*configtree.Tree, error)

	// SaveStartup atomically persists tree as the new startup document via
	// a temp-file-plus-rename so a crash mid-write cannot corrupt the file
	// the next boot depends on.
	SaveStartup(ctx context.Context, path string, tree *configtree.Tree) error
}
