package ports

import (
	"context"
	"io"

	"github.com/kernelkit/confd/internal/domain/generation"
)

// Dagger is the staged-action generator's contract (spec §4.2), grounded on
// the reference implementation's dagger_fopen/dagger_add_dep/dagger_evolve
// family. A Dagger instance is scoped to one open transaction: Claim starts
// it, and exactly one of Evolve or Abandon ends it.
//
// The coordinator claims and abandons generations through this interface
// and hands the same instance to translators as the Dagger parameter of
// Translator.HandleEvent. The generation runner does not use it; it reads
// the scratch area from disk.
type Dagger interface {
	// Claim reserves the next generation number and creates its scratch
	// directory, failing if another transaction already has one claimed
	// (the "next" lock is held via O_CREAT|O_EXCL).
	Claim(ctx context.Context) (generation.Number, error)

	// Open returns a writer for an action file in the claimed generation,
	// creating parent directories as needed. A new file gets the
	// extension-appropriate shebang as its first bytes; an existing file is
	// appended to. priority must be in [0, generation.MaxPriority].
	Open(ctx context.Context, phase generation.Phase, entity string, priority int, script string) (io.WriteCloser, error)

	// OpenCurrent returns a writer for an action file in the current
	// (about-to-exit) generation, creating parent directories as needed.
	// Teardown/delete actions belong here rather than in the claimed
	// generation: the generation runner's exit phase scans the previous
	// generation relative to the one it promotes, which is exactly what
	// "current" denotes at the moment a new generation is claimed. It
	// fails if no current generation exists yet.
	OpenCurrent(ctx context.Context, phase generation.Phase, entity string, priority int, script string) (io.WriteCloser, error)

	// AddDep records that dependent must be configured after dependee at
	// init and torn down before dependee at exit.
	AddDep(ctx context.Context, dependent, dependee string) error

	// AddNode registers an entity with no dependencies so it still
	// receives an ordering slot (e.g. the top-level "tree" node in the
	// reference implementation).
	AddNode(ctx context.Context, entity string) error

	// Skip marks an entity whose action files the generation runner leaves
	// unprocessed when it runs the claimed generation.
	Skip(ctx context.Context, entity string) error

	// Evolve promotes the claimed generation to current, making it the
	// target of the next generation runner invocation, and releases the
	// next lock.
	Evolve(ctx context.Context) error

	// Abandon discards the claimed generation's scratch directory and
	// releases the next lock without promoting anything.
	Abandon(ctx context.Context) error
}
