// Package containers owns "/containers": per-container service-supervisor
// recipes. Grounded on original_source/src/confd/src/infix-containers.c's
// add(), which writes a numbered shell script into a job queue directory
// ("S01-<name>.sh") that stops, deletes, then recreates the container with
// the options derived from its configuration, rather than attempting an
// in-place "container update".
package containers

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

const xpath = "/containers"

var jobQueueDir = "/run/containers/queue"

type Translator struct {
	priority int
	proc     ports.ProcessRunner
}

func New(priority int, proc ports.ProcessRunner) *Translator {
	return &Translator{priority: priority, proc: proc}
}

func (t *Translator) Metadata() translator.Metadata {
	return translator.Metadata{Name: "containers", Type: "containers", XPath: xpath, Priority: t.priority}
}

func (t *Translator) HandleEvent(ctx context.Context, ev translator.Event, diff []configtree.DiffEntry, dag ports.Dagger) error {
	if ev != translator.EventChange {
		return nil
	}
	for name, entries := range groupByContainer(diff) {
		job := filepath.Join(jobQueueDir, "S01-"+name+".sh")
		if containerDeleted(entries) {
			if err := moduleutil.AbandonArtifact(job); err != nil {
				return err
			}
			if err := moduleutil.SignalReload(ctx, t.proc, "initctl", []string{"disable", "container@" + name}); err != nil {
				return err
			}
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "#!/bin/sh\ncontainer stop %s\ncontainer delete %s\ncontainer run --name %s",
			name, name, name)
		if image := leafValue(entries, "image"); image != "" {
			fmt.Fprintf(&b, " %s", image)
		}
		b.WriteString("\n")

		if err := moduleutil.WriteArtifactAtomically(job, []byte(b.String()), 0o755); err != nil {
			return err
		}
		if err := moduleutil.SignalReload(ctx, t.proc, "initctl", []string{"enable", "container@" + name}); err != nil {
			return err
		}
	}
	return nil
}

func groupByContainer(diff []configtree.DiffEntry) map[string][]configtree.DiffEntry {
	groups := make(map[string][]configtree.DiffEntry)
	for _, e := range diff {
		rel := strings.TrimPrefix(e.Path, xpath+"/container/")
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

func containerDeleted(entries []configtree.DiffEntry) bool {
	for _, e := range entries {
		if strings.HasSuffix(e.Path, "/name") && e.Op == configtree.OpDelete {
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
