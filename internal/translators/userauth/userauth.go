// Package userauth owns "/system/authentication": local user accounts and
// their authorized SSH keys. Each user's authorized_keys file is rewritten
// atomically on change, and the module runs "augtool save" once, after all
// users of the diff are processed in the CHANGE callback, rather than once
// per leaf. It assigns no groups; it writes only authorized_keys files.
package userauth

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

const xpath = "/system/authentication"

var authorizedKeysDir = "/etc/ssh/authorized_keys.d"

type Translator struct {
	priority int
	proc     ports.ProcessRunner
}

func New(priority int, proc ports.ProcessRunner) *Translator {
	return &Translator{priority: priority, proc: proc}
}

func (t *Translator) Metadata() translator.Metadata {
	return translator.Metadata{Name: "userauth", Type: "userauth", XPath: xpath, Priority: t.priority}
}

func (t *Translator) HandleEvent(ctx context.Context, ev translator.Event, diff []configtree.DiffEntry, dag ports.Dagger) error {
	if ev != translator.EventChange || len(diff) == 0 {
		return nil
	}

	byUser := make(map[string][]configtree.DiffEntry)
	for _, e := range diff {
		rel := strings.TrimPrefix(e.Path, xpath+"/user/")
		if rel == e.Path {
			continue
		}
		name := rel
		if idx := strings.Index(rel, "/"); idx >= 0 {
			name = rel[:idx]
		}
		byUser[name] = append(byUser[name], e)
	}

	touched := false
	for user, entries := range byUser {
		path := filepath.Join(authorizedKeysDir, user)
		if userDeleted(entries) {
			if err := moduleutil.AbandonArtifact(path); err != nil {
				return err
			}
			touched = true
			continue
		}
		var b strings.Builder
		for _, e := range entries {
			if strings.Contains(e.Path, "/authorized-key/") && strings.HasSuffix(e.Path, "/key-data") && e.Op != configtree.OpDelete {
				fmt.Fprintln(&b, e.NewValue.String())
			}
		}
		if b.Len() > 0 {
			if err := moduleutil.WriteArtifactAtomically(path, []byte(b.String()), 0o600); err != nil {
				return err
			}
			touched = true
		}
	}

	if !touched {
		return nil
	}
	return moduleutil.SignalReload(ctx, t.proc, "augtool", []string{"save"})
}

func userDeleted(entries []configtree.DiffEntry) bool {
	for _, e := range entries {
		if strings.HasSuffix(e.Path, "/name") && e.Op == configtree.OpDelete {
			return true
		}
	}
	return false
}
