package ports

import (
	"context"

	"github.com/kernelkit/confd/internal/domain/generation"
)

// GenerationRunner executes a claimed generation's staged actions in
// dependency order (spec §4.4): exit actions for removed/changed entities
// first (leaves before roots), then init actions for new/changed entities
// (roots before leaves).
type GenerationRunner interface {
	// Run executes the previous generation's exit actions and generation
	// n's init actions, then promotes n to current. A failing action is
	// logged and stops neither the run nor the promotion; an error is
	// returned only when the dependency order cannot be computed or the
	// promotion fails. The runner does not roll back a partially applied
	// generation (spec §7).
	Run(ctx context.Context, n generation.Number) error
}

// ProcessRunner spawns external interpreters (ip -batch, bridge -batch,
// sh, sysctl -batch) against a pre-built argv, never a shell string (spec
// §9: "never interpolate un-sanitized user strings into shell strings").
type ProcessRunner interface {
	// Run executes name with args, feeding stdin (if non-nil) and
	// returning captured stdout/stderr. It must not invoke a shell.
	Run(ctx context.Context, name string, args []string, stdin []byte) (stdout, stderr []byte, err error)
}
