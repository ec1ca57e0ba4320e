// Package syslog owns "/syslog": per-destination syslog.d action files.
// Grounded on original_source/src/confd/src/syslog.c, which renders one
// file per file-log or remote-log action under /etc/syslog.d and a
// shared rotate.conf/server.conf, then relies on sysklogd's SIGHUP-style
// reload.
package syslog

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

const xpath = "/syslog"

var syslogDir = "/etc/syslog.d"

type Translator struct {
	priority int
	proc     ports.ProcessRunner
}

func New(priority int, proc ports.ProcessRunner) *Translator {
	return &Translator{priority: priority, proc: proc}
}

func (t *Translator) Metadata() translator.Metadata {
	return translator.Metadata{Name: "syslog", Type: "syslog", XPath: xpath, Priority: t.priority}
}

func (t *Translator) HandleEvent(ctx context.Context, ev translator.Event, diff []configtree.DiffEntry, dag ports.Dagger) error {
	if ev != translator.EventChange {
		return nil
	}
	touched := false
	for action, entries := range groupByAction(diff, "file") {
		path := filepath.Join(syslogDir, "log-file-"+action+".conf")
		if err := t.renderAction(path, action, entries); err != nil {
			return err
		}
		touched = true
	}
	for action, entries := range groupByAction(diff, "remote") {
		path := filepath.Join(syslogDir, "remote-"+action+".conf")
		if err := t.renderAction(path, action, entries); err != nil {
			return err
		}
		touched = true
	}
	if !touched {
		return nil
	}
	return moduleutil.SignalReload(ctx, t.proc, "initctl", []string{"touch", "sysklogd"})
}

func (t *Translator) renderAction(path, name string, entries []configtree.DiffEntry) error {
	if actionDeleted(entries) {
		return moduleutil.AbandonArtifact(path)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", name)
	for _, e := range entries {
		if strings.HasSuffix(e.Path, "/facility-filter/facility-list") && e.Op != configtree.OpDelete {
			fmt.Fprintf(&b, "%s\n", e.NewValue.String())
		}
	}
	return moduleutil.WriteArtifactAtomically(path, []byte(b.String()), 0o644)
}

func groupByAction(diff []configtree.DiffEntry, kind string) map[string][]configtree.DiffEntry {
	groups := make(map[string][]configtree.DiffEntry)
	marker := "/actions/" + kind + "/"
	for _, e := range diff {
		idx := strings.Index(e.Path, marker)
		if idx < 0 {
			continue
		}
		rest := e.Path[idx+len(marker):]
		name := rest
		if slash := strings.Index(rest, "/"); slash >= 0 {
			name = rest[:slash]
		}
		groups[name] = append(groups[name], e)
	}
	return groups
}

func actionDeleted(entries []configtree.DiffEntry) bool {
	for _, e := range entries {
		if strings.HasSuffix(e.Path, "/name") && e.Op == configtree.OpDelete {
			return true
		}
	}
	return false
}
