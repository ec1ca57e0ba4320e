// Package procexec runs the external interpreters the generation runner
// depends on (ip -batch, bridge -batch, sh, sysctl -batch) without ever
// building a shell command line, per spec §9's "never interpolate
// un-sanitized user strings into shell strings". It is grounded on the
// teacher's internal/plugins/internalexec package, generalized here to take
// stdin (for the "-batch" interpreters, which read their script on stdin
// rather than as an argv path) and a context for cancellation.
package procexec

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// Result captures stdout/stderr produced by a completed run.
type Result struct {
	Stdout string
	Stderr string
}

// Run executes name with args, writing stdin to the child's standard input
// if non-nil, and returns the captured output. It never invokes a shell:
// name and args are passed directly to exec.CommandContext.
func Run(ctx context.Context, name string, args []string, stdin []byte) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()

	return Result{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}, err
}

// PrimaryOutput returns stderr if present, otherwise stdout — used when
// surfacing a single diagnostic line for a failed action file.
func PrimaryOutput(res Result) string {
	if res.Stderr != "" {
		return res.Stderr
	}
	return res.Stdout
}
