// Package dns owns "/dns-resolver": it rewrites /etc/resolv.conf from the
// configured search list and server list and signals resolvconf to push
// the result live. Follows the common boundary-artifact convention used
// across the non-interface translators (scan, early-exit if untouched,
// atomic rewrite, reload signal).
package dns

import (
	"context"
	"fmt"
	"strings"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/translator"
	"github.com/kernelkit/confd/internal/ports"
	"github.com/kernelkit/confd/internal/translators/moduleutil"
)

const xpath = "/dns-resolver"

var resolvConf = "/etc/resolv.conf"

type Translator struct {
	priority int
	proc     ports.ProcessRunner
}

func New(priority int, proc ports.ProcessRunner) *Translator {
	return &Translator{priority: priority, proc: proc}
}

func (t *Translator) Metadata() translator.Metadata {
	return translator.Metadata{Name: "dns", Type: "dns", XPath: xpath, Priority: t.priority}
}

func (t *Translator) HandleEvent(ctx context.Context, ev translator.Event, diff []configtree.DiffEntry, dag ports.Dagger) error {
	if ev != translator.EventChange || len(diff) == 0 {
		return nil
	}

	if allDeleted(diff) {
		if err := moduleutil.AbandonArtifact(resolvConf); err != nil {
			return err
		}
		return moduleutil.SignalReload(ctx, t.proc, "resolvconf", []string{"-u"})
	}

	var b strings.Builder
	for _, e := range diff {
		switch {
		case strings.HasSuffix(e.Path, "/search"):
			fmt.Fprintf(&b, "search %s\n", e.NewValue.String())
		case strings.HasSuffix(e.Path, "/server/address"), strings.HasSuffix(e.Path, "/server"):
			if e.Op != configtree.OpDelete {
				fmt.Fprintf(&b, "nameserver %s\n", e.NewValue.String())
			}
		}
	}
	if b.Len() == 0 {
		return nil
	}
	if err := moduleutil.WriteArtifactAtomically(resolvConf, []byte(b.String()), 0o644); err != nil {
		return err
	}
	return moduleutil.SignalReload(ctx, t.proc, "resolvconf", []string{"-u"})
}

func allDeleted(diff []configtree.DiffEntry) bool {
	for _, e := range diff {
		if e.Op != configtree.OpDelete {
			return false
		}
	}
	return true
}
