// Package translator defines the per-module translator's identity and
// lifecycle vocabulary (spec §4.1, §4.3). The Translator interface itself
// lives in internal/ports, mirroring the teacher's split of domain/plugin
// (pure identity) from ports/plugins.go (the behavioural contract).
package translator

import "github.com/kernelkit/confd/internal/domain/confderr"

// Type identifies a translator's module, e.g. "interface", "firewall".
type Type string

// Event is one of the four transaction lifecycle phases delivered by the
// datastore (spec §4.1, §6).
type Event string

const (
	EventUpdate Event = "UPDATE"
	EventChange Event = "CHANGE"
	EventDone   Event = "DONE"
	EventAbort  Event = "ABORT"
)

// Metadata describes a translator's identity, subscription XPath, and
// ordering relative to other translators. Priority is a property of the
// subscription, not of the event (spec §4.1): a lower number runs earlier.
type Metadata struct {
	Name         string
	Type         Type
	XPath        string
	Priority     int
	Dependencies []Type
	// WantsUpdate marks a translator that wants UPDATE events (to infer
	// missing leaves) in addition to CHANGE/DONE/ABORT.
	WantsUpdate bool
}

// Validate checks that metadata is well-formed enough to register.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return confderr.New(confderr.ErrCodeMissing, "translator name is required", nil)
	}
	if m.Type == "" {
		return confderr.New(confderr.ErrCodeMissing, "translator type is required", nil)
	}
	if m.XPath == "" {
		return confderr.New(confderr.ErrCodeMissing, "translator xpath is required",
			map[string]interface{}{"name": m.Name})
	}
	return nil
}
