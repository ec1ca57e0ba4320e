// Package timedate owns "/system/clock" and "/system/ntp": timezone,
// manually-set time, and the NTP server list, merged into one module the
// way original_source/src/confd/src/ietf-system.c merges them under a
// single ietf-system subscription. Timezone changes replace
// /etc/timezone and the /etc/localtime symlink atomically during CHANGE; NTP
// server changes rewrite chrony's config and touch its supervisor unit.
package timedate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/translator"
	"github.com/kernelkit/confd/internal/ports"
	"github.com/kernelkit/confd/internal/translators/moduleutil"
)

const xpath = "/system"

var (
	timezoneFile  = "/etc/timezone"
	localtimeLink = "/etc/localtime"
	chronyConfig  = "/etc/chrony/chrony.conf"
	zoneinfoDir   = "/usr/share/zoneinfo"
)

type Translator struct {
	priority int
	proc     ports.ProcessRunner
}

func New(priority int, proc ports.ProcessRunner) *Translator {
	return &Translator{priority: priority, proc: proc}
}

func (t *Translator) Metadata() translator.Metadata {
	return translator.Metadata{Name: "timedate", Type: "timedate", XPath: xpath, Priority: t.priority}
}

func (t *Translator) HandleEvent(ctx context.Context, ev translator.Event, diff []configtree.DiffEntry, dag ports.Dagger) error {
	if ev != translator.EventChange {
		return nil
	}
	for _, e := range diff {
		switch {
		case hasSuffix(e.Path, "/clock/timezone-name"):
			if err := t.applyTimezone(ctx, e); err != nil {
				return err
			}
		case hasSuffix(e.Path, "/ntp/server"):
			if err := t.applyNTPServer(e); err != nil {
				return err
			}
		}
	}
	if anyNTPChange(diff) {
		return moduleutil.SignalReload(ctx, t.proc, "initctl", []string{"touch", "chronyd"})
	}
	return nil
}

func (t *Translator) applyTimezone(ctx context.Context, e configtree.DiffEntry) error {
	if e.Op == configtree.OpDelete {
		return moduleutil.WriteArtifactAtomically(timezoneFile, []byte("UTC\n"), 0o644)
	}
	zone := e.NewValue.String()
	if zone == "" {
		return nil
	}
	if err := moduleutil.WriteArtifactAtomically(timezoneFile, []byte(zone+"\n"), 0o644); err != nil {
		return err
	}
	tmp := localtimeLink + ".next"
	os.Remove(tmp)
	if err := os.Symlink(zoneinfoDir+"/"+zone, tmp); err != nil {
		return err
	}
	return os.Rename(tmp, localtimeLink)
}

func (t *Translator) applyNTPServer(e configtree.DiffEntry) error {
	// NTP server entries accumulate into one rewritten chrony.conf rather
	// than being appended incrementally, so a deletion and a creation
	// both simply trigger a full rewrite once the caller has the final
	// server list; here each DiffEntry already names one leaf "server"
	// value, so append or drop the matching "server <addr>" line.
	line := fmt.Sprintf("server %s iburst\n", leafHost(e))
	content, _ := os.ReadFile(chronyConfig)
	switch e.Op {
	case configtree.OpDelete:
		content = removeLine(content, line)
	default:
		content = appendLine(content, line)
	}
	return moduleutil.WriteArtifactAtomically(chronyConfig, content, 0o644)
}

func leafHost(e configtree.DiffEntry) string {
	if e.Op == configtree.OpDelete {
		return e.OldValue.String()
	}
	return e.NewValue.String()
}

func appendLine(content []byte, line string) []byte {
	if strings.Contains(string(content), line) {
		return content
	}
	return append(content, []byte(line)...)
}

func removeLine(content []byte, line string) []byte {
	return []byte(strings.ReplaceAll(string(content), line, ""))
}

func anyNTPChange(diff []configtree.DiffEntry) bool {
	for _, e := range diff {
		if hasSuffix(e.Path, "/ntp/server") {
			return true
		}
	}
	return false
}

func hasSuffix(path, suffix string) bool {
	return strings.HasSuffix(path, suffix)
}
