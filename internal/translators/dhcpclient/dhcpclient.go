// Package dhcpclient owns "/dhcp-client": per-interface DHCP client
// supervisor configuration. Grounded on
// original_source/src/confd/src/infix-dhcp-client.c, which reads the
// configured hostname leaf and client-id, and enables a per-interface
// client supervisor unit named "dhcp-client@<ifname>".
package dhcpclient

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/translator"
	"github.com/kernelkit/confd/internal/ports"
	"github.com/kernelkit/confd/internal/translators/moduleutil"
)

const xpath = "/dhcp-client"

var configDir = "/etc/dhcp-client"

type Translator struct {
	priority int
	proc     ports.ProcessRunner
}

func New(priority int, proc ports.ProcessRunner) *Translator {
	return &Translator{priority: priority, proc: proc}
}

func (t *Translator) Metadata() translator.Metadata {
	return translator.Metadata{Name: "dhcpclient", Type: "dhcp-client", XPath: xpath, Priority: t.priority}
}

func (t *Translator) HandleEvent(ctx context.Context, ev translator.Event, diff []configtree.DiffEntry, dag ports.Dagger) error {
	if ev != translator.EventChange {
		return nil
	}
	for iface, entries := range groupByInterface(diff) {
		path := filepath.Join(configDir, iface+".conf")
		if ifaceDeleted(entries) {
			if err := moduleutil.AbandonArtifact(path); err != nil {
				return err
			}
			if err := moduleutil.SignalReload(ctx, t.proc, "initctl", []string{"disable", "dhcp-client@" + iface}); err != nil {
				return err
			}
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "interface %s\n", iface)
		if hostname := leafValue(entries, "client-id"); hostname != "" {
			fmt.Fprintf(&b, "send dhcp-client-identifier \"%s\";\n", hostname)
		}
		if err := moduleutil.WriteArtifactAtomically(path, []byte(b.String()), 0o644); err != nil {
			return err
		}
		if err := moduleutil.SignalReload(ctx, t.proc, "initctl", []string{"touch", "dhcp-client@" + iface}); err != nil {
			return err
		}
	}
	return nil
}

func groupByInterface(diff []configtree.DiffEntry) map[string][]configtree.DiffEntry {
	groups := make(map[string][]configtree.DiffEntry)
	for _, e := range diff {
		rel := strings.TrimPrefix(e.Path, xpath+"/client-if/")
		if rel == e.Path {
			continue
		}
		name := rel
		if idx := strings.Index(rel, "/"); idx >= 0 {
			name = rel[:idx]
		}
		groups[name] = append(groups[name], e)
	}
	return groups
}

func ifaceDeleted(entries []configtree.DiffEntry) bool {
	for _, e := range entries {
		if strings.HasSuffix(e.Path, "/if-name") && e.Op == configtree.OpDelete {
			return true
		}
	}
	return false
}

func leafValue(entries []configtree.DiffEntry, leaf string) string {
	for _, e := range entries {
		if strings.HasSuffix(e.Path, "/"+leaf) && e.Op != configtree.OpDelete {
			return e.NewValue.String()
		}
	}
	return ""
}
