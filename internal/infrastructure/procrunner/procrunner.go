// Package procrunner adapts pkg/procexec to the ports.ProcessRunner
// contract, the seam the generation runner uses so tests can substitute a
// fake without spawning real interpreters.
package procrunner

import (
	"context"

	"github.com/kernelkit/confd/pkg/procexec"
)

// Runner is the production ports.ProcessRunner, invoking real external
// interpreters.
type Runner struct{}

// New returns a Runner.
func New() *Runner {
	return &Runner{}
}

// Run implements ports.ProcessRunner.
func (r *Runner) Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
	res, err := procexec.Run(ctx, name, args, stdin)
	return []byte(res.Stdout), []byte(res.Stderr), err
}
