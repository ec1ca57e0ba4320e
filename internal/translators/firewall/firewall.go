// Package firewall owns "/firewall": firewalld zone/service/policy XML
// files. Grounded on original_source/src/confd/src/firewall.c, which
// stages a complete firewalld configuration tree under "/etc/firewalld+"
// and, once fully rendered, atomically rolls it onto "/etc/firewalld"
// before re-enabling the daemon — the same staged-directory-then-rename
// idiom moduleutil.WriteArtifactAtomically gives a single file, applied
// here to a whole directory tree.
package firewall

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/translator"
	"github.com/kernelkit/confd/internal/ports"
	"github.com/kernelkit/confd/internal/translators/moduleutil"
)

const xpath = "/firewall"

var (
	liveDir  = "/etc/firewalld"
	stageDir = "/etc/firewalld+"
)

var zoneAction = map[string]string{"reject": "%%REJECT%%", "accept": "ACCEPT", "drop": "DROP"}

type Translator struct {
	priority int
	proc     ports.ProcessRunner
}

func New(priority int, proc ports.ProcessRunner) *Translator {
	return &Translator{priority: priority, proc: proc}
}

func (t *Translator) Metadata() translator.Metadata {
	return translator.Metadata{Name: "firewall", Type: "firewall", XPath: xpath, Priority: t.priority}
}

func (t *Translator) HandleEvent(ctx context.Context, ev translator.Event, diff []configtree.DiffEntry, dag ports.Dagger) error {
	if ev != translator.EventChange || len(diff) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Join(stageDir, "zones"), 0o755); err != nil {
		return err
	}

	for zone, entries := range groupByZone(diff) {
		if err := t.renderZone(zone, entries); err != nil {
			return err
		}
	}

	if err := os.RemoveAll(liveDir); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Rename(stageDir, liveDir); err != nil {
		return err
	}
	return moduleutil.SignalReload(ctx, t.proc, "initctl", []string{"touch", "firewalld"})
}

func (t *Translator) renderZone(zone string, entries []configtree.DiffEntry) error {
	action := leafValue(entries, "default-action")
	target, ok := zoneAction[action]
	if !ok {
		target = "%%REJECT%%"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<zone target=\"%s\">\n", target)
	for _, iface := range collectLeaves(entries, "interface") {
		fmt.Fprintf(&b, "  <interface name=\"%s\"/>\n", iface)
	}
	for _, svc := range collectLeaves(entries, "service") {
		fmt.Fprintf(&b, "  <service name=\"%s\"/>\n", svc)
	}
	b.WriteString("</zone>\n")
	path := filepath.Join(stageDir, "zones", zone+".xml")
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func groupByZone(diff []configtree.DiffEntry) map[string][]configtree.DiffEntry {
	groups := make(map[string][]configtree.DiffEntry)
	for _, e := range diff {
		rel := strings.TrimPrefix(e.Path, xpath+"/zone/")
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

func leafValue(entries []configtree.DiffEntry, leaf string) string {
	for _, e := range entries {
		if strings.HasSuffix(e.Path, "/"+leaf) && e.Op != configtree.OpDelete {
			return e.NewValue.String()
		}
	}
	return ""
}

func collectLeaves(entries []configtree.DiffEntry, leaf string) []string {
	var out []string
	for _, e := range entries {
		if strings.Contains(e.Path, "/"+leaf+"/") && e.Op != configtree.OpDelete {
			out = append(out, filepath.Base(e.Path))
		}
	}
	return out
}
