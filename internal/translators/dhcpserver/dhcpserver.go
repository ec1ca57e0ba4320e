// Package dhcpserver owns "/dhcp-server": per-subnet dnsmasq.d files.
// Grounded on original_source/src/confd/src/dhcp-server.c, which renders
// one dnsmasq config fragment per subnet ("dhcp-range=...",
// "dhcp-option=..." lines) and relies on dnsmasq's own reload to pick it
// up once touched.
package dhcpserver

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

const xpath = "/dhcp-server"

var dnsmasqDir = "/etc/dnsmasq.d"

type Translator struct {
	priority int
	proc     ports.ProcessRunner
}

func New(priority int, proc ports.ProcessRunner) *Translator {
	return &Translator{priority: priority, proc: proc}
}

func (t *Translator) Metadata() translator.Metadata {
	return translator.Metadata{Name: "dhcpserver", Type: "dhcp-server", XPath: xpath, Priority: t.priority}
}

func (t *Translator) HandleEvent(ctx context.Context, ev translator.Event, diff []configtree.DiffEntry, dag ports.Dagger) error {
	if ev != translator.EventChange {
		return nil
	}
	touched := false
	for subnet, entries := range groupBySubnet(diff) {
		path := filepath.Join(dnsmasqDir, subnet+".conf")
		if subnetDeleted(entries) {
			if err := moduleutil.AbandonArtifact(path); err != nil {
				return err
			}
			touched = true
			continue
		}
		var b strings.Builder
		lo := leafValue(entries, "range/lower")
		hi := leafValue(entries, "range/upper")
		if lo != "" && hi != "" {
			fmt.Fprintf(&b, "dhcp-range=set:%s,%s,%s,12h\n", subnet, lo, hi)
		}
		if router := leafValue(entries, "option/router"); router != "" {
			fmt.Fprintf(&b, "dhcp-option=tag:%s,option:router,%s\n", subnet, router)
		}
		if dns := leafValue(entries, "option/dns-server"); dns != "" {
			fmt.Fprintf(&b, "dhcp-option=tag:%s,option:dns-server,%s\n", subnet, dns)
		}
		if b.Len() == 0 {
			continue
		}
		if err := moduleutil.WriteArtifactAtomically(path, []byte(b.String()), 0o644); err != nil {
			return err
		}
		touched = true
	}
	if !touched {
		return nil
	}
	return moduleutil.SignalReload(ctx, t.proc, "initctl", []string{"touch", "dnsmasq"})
}

func groupBySubnet(diff []configtree.DiffEntry) map[string][]configtree.DiffEntry {
	groups := make(map[string][]configtree.DiffEntry)
	for _, e := range diff {
		rel := strings.TrimPrefix(e.Path, xpath+"/subnet/")
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

func subnetDeleted(entries []configtree.DiffEntry) bool {
	for _, e := range entries {
		if strings.HasSuffix(e.Path, "/address") && e.Op == configtree.OpDelete {
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
