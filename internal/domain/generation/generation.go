// Package generation models the staged-action generator's data model from
// spec §3 and §4.2: a monotonically increasing generation number, the
// action files deposited under it, and the dependency edges that order
// them. The package is pure data — the filesystem realization lives in
// internal/infrastructure/dagger.
package generation

import (
	"fmt"

	"github.com/kernelkit/confd/internal/domain/confderr"
)

// Number identifies a generation. -1 means "no generation yet".
type Number int

// None is the sentinel for "no current generation exists".
const None Number = -1

// Phase is the action-file phase an entity's scripts belong to.
type Phase string

const (
	PhaseInit Phase = "init"
	PhaseExit Phase = "exit"
)

// Ext is the interpreter-selecting extension of an action file's script
// name (spec §6: ".sh", ".ip", ".bridge", ".sysctl").
type Ext string

const (
	ExtShell   Ext = ".sh"
	ExtIP      Ext = ".ip"
	ExtBridge  Ext = ".bridge"
	ExtSysctl  Ext = ".sysctl"
)

// MaxPriority is the highest priority value an action file may carry
// (spec §3: "priority in [0, 99]").
const MaxPriority = 99

// ActionFile addresses a single script within a generation by
// (phase, entity, priority, script-name).
type ActionFile struct {
	Phase    Phase
	Entity   string
	Priority int
	Script   string
}

// Validate enforces the priority bound and non-empty fields.
func (a ActionFile) Validate() error {
	if a.Entity == "" {
		return confderr.New(confderr.ErrCodeMissing, "action file requires an entity", nil)
	}
	if a.Script == "" {
		return confderr.New(confderr.ErrCodeMissing, "action file requires a script name", nil)
	}
	if a.Priority < 0 || a.Priority > MaxPriority {
		return confderr.New(confderr.ErrCodeValidation, "action file priority out of range",
			map[string]interface{}{"priority": a.Priority, "max": MaxPriority})
	}
	if a.Phase != PhaseInit && a.Phase != PhaseExit {
		return confderr.New(confderr.ErrCodeValidation, "unknown action file phase",
			map[string]interface{}{"phase": string(a.Phase)})
	}
	return nil
}

// FileName renders the on-disk file name "<priority:02>-<script>", matching
// the layout dagger_fopen produces in the reference implementation.
func (a ActionFile) FileName() string {
	return fmt.Sprintf("%02d-%s", a.Priority, a.Script)
}

// Shebang returns the interpreter line written as the first line of a
// freshly created action file, selected by the script's extension. Files
// with an unrecognised extension get no shebang (they are not expected to
// be directly executed by the runner, e.g. auxiliary data files).
func Shebang(script string) string {
	switch ext(script) {
	case ExtShell:
		return "#!/bin/sh\n\n"
	case ExtBridge:
		return "#!/sbin/bridge -batch\n\n"
	case ExtIP:
		return "#!/sbin/ip -batch\n\n"
	case ExtSysctl:
		return "#!/sbin/sysctl -batch\n\n"
	default:
		return ""
	}
}

func ext(script string) Ext {
	for i := len(script) - 1; i >= 0; i-- {
		if script[i] == '.' {
			return Ext(script[i:])
		}
	}
	return ""
}
