// Package hostname owns "/system/hostname": it writes /etc/hostname on
// CHANGE and signals a reload (sethostname plus whatever consumers watch
// the file, e.g. the shell prompt and syslog tag) during CHANGE.
// Grounded on original_source/src/confd/src/ietf-system.c's
// hostname_change_cb, which calls sethostname() directly from the change
// callback; this translator keeps that synchronous, single-leaf shape but
// routes the actual syscall through a reload signal so the effect is
// staged the same way every other boundary-artifact module is.
package hostname

import (
	"context"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/translator"
	"github.com/kernelkit/confd/internal/ports"
	"github.com/kernelkit/confd/internal/translators/moduleutil"
)

const xpath = "/system/hostname"

// artifactPath is overridable in tests so they do not touch the real
// /etc/hostname of whatever machine runs them.
var artifactPath = "/etc/hostname"

type Translator struct {
	priority int
	proc     ports.ProcessRunner
}

func New(priority int, proc ports.ProcessRunner) *Translator {
	return &Translator{priority: priority, proc: proc}
}

func (t *Translator) Metadata() translator.Metadata {
	return translator.Metadata{
		Name:     "hostname",
		Type:     "hostname",
		XPath:    xpath,
		Priority: t.priority,
	}
}

func (t *Translator) HandleEvent(ctx context.Context, ev translator.Event, diff []configtree.DiffEntry, dag ports.Dagger) error {
	if ev != translator.EventChange {
		return nil
	}
	for _, e := range diff {
		switch e.Op {
		case configtree.OpDelete:
			if err := moduleutil.AbandonArtifact(artifactPath); err != nil {
				return err
			}
		default:
			name := e.NewValue.String()
			if name == "" {
				continue
			}
			if err := moduleutil.WriteArtifactAtomically(artifactPath, []byte(name+"\n"), 0o644); err != nil {
				return err
			}
			if err := moduleutil.SignalReload(ctx, t.proc, "hostname", []string{name}); err != nil {
				return err
			}
		}
	}
	return nil
}
