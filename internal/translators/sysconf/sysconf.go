// Package sysconf owns "/system-software": bundle activation bookkeeping
// and factory-reset signalling. Grounded on
// original_source/src/confd/src/infix-system-software.c (RAUC bundle
// install/activate) and ietf-factory-default.c's factory_reset(), which
// simply shells out to "factory -y"; this translator keeps that
// one-command signal but routes it through the process supervisor like
// every other reload signal instead of calling systemf() directly.
package sysconf

import (
	"context"
	"strings"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/translator"
	"github.com/kernelkit/confd/internal/ports"
	"github.com/kernelkit/confd/internal/translators/moduleutil"
)

const xpath = "/system-software"

var activeSlotMarker = "/var/lib/confd/active-slot"

type Translator struct {
	priority int
	proc     ports.ProcessRunner
}

func New(priority int, proc ports.ProcessRunner) *Translator {
	return &Translator{priority: priority, proc: proc}
}

func (t *Translator) Metadata() translator.Metadata {
	return translator.Metadata{Name: "sysconf", Type: "sysconf", XPath: xpath, Priority: t.priority}
}

func (t *Translator) HandleEvent(ctx context.Context, ev translator.Event, diff []configtree.DiffEntry, dag ports.Dagger) error {
	if ev != translator.EventChange {
		return nil
	}
	for _, e := range diff {
		switch {
		case strings.HasSuffix(e.Path, "/active-slot") && e.Op != configtree.OpDelete:
			if err := moduleutil.WriteArtifactAtomically(activeSlotMarker, []byte(e.NewValue.String()+"\n"), 0o644); err != nil {
				return err
			}
		case strings.HasSuffix(e.Path, "/factory-reset-requested") && e.NewValue.Bool():
			if err := moduleutil.SignalReload(ctx, t.proc, "factory", []string{"-y"}); err != nil {
				return err
			}
		}
	}
	return nil
}
