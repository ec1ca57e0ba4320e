// Package moduleutil factors out the repeated shape spec §4.3 describes
// for "Other Translators": scan the diff under the module's XPath,
// early-exit if nothing changed, write a boundary artifact atomically via
// a .next-file-plus-rename, then signal a downstream daemon to reload.
// Grounded on the teacher's internal/plugins/command package for the
// pattern of a small, focused helper called from several otherwise
// unrelated plugin implementations.
package moduleutil

import (
	"context"
	"os"
	"path/filepath"

	"github.com/kernelkit/confd/internal/domain/confderr"
	"github.com/kernelkit/confd/internal/ports"
)

// WriteArtifactAtomically writes content to path via a sibling ".next"
// file followed by a rename, so an aborted transaction can clean up by
// removing the .next file without disturbing the live artifact (spec
// §4.3: "generate a config file atomically via a .next-file + rename").
func WriteArtifactAtomically(path string, content []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o775); err != nil {
		return confderr.Wrap(confderr.ErrCodeInternal, "create artifact directory", err,
			map[string]interface{}{"path": path})
	}

	next := path + ".next"
	if err := os.WriteFile(next, content, mode); err != nil {
		return confderr.Wrap(confderr.ErrCodeInternal, "write staged artifact", err,
			map[string]interface{}{"path": next})
	}
	if err := os.Rename(next, path); err != nil {
		return confderr.Wrap(confderr.ErrCodeInternal, "promote staged artifact", err,
			map[string]interface{}{"path": path})
	}
	return nil
}

// AbandonArtifact removes a staged .next file left behind by an aborted
// transaction, a no-op if it was never created.
func AbandonArtifact(path string) error {
	err := os.Remove(path + ".next")
	if err != nil && !os.IsNotExist(err) {
		return confderr.Wrap(confderr.ErrCodeInternal, "remove abandoned artifact", err,
			map[string]interface{}{"path": path})
	}
	return nil
}

// SignalReload runs the process supervisor command that asks a downstream
// daemon to reload or restart (spec §4.3's per-module "Reload signal"
// column), e.g. "resolvconf -u" or "initctl touch dnsmasq".
func SignalReload(ctx context.Context, proc ports.ProcessRunner, name string, args []string) error {
	if proc == nil {
		return nil
	}
	_, stderr, err := proc.Run(ctx, name, args, nil)
	if err != nil {
		return confderr.Wrap(confderr.ErrCodeExecution, "reload signal failed", err,
			map[string]interface{}{"command": name, "stderr": string(stderr)})
	}
	return nil
}
