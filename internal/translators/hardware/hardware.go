// Package hardware owns "/hardware": physical component state such as USB
// port authorization. Grounded on original_source/src/confd/src/hardware.c's
// usb_authorize(), which toggles Linux's per-device "authorized" sysfs
// attribute to enable or disable a USB port, looked up by name against a
// board-specific table of USB port sysfs paths.
package hardware

import (
	"context"
	"strings"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/translator"
	"github.com/kernelkit/confd/internal/ports"
	"github.com/kernelkit/confd/internal/translators/moduleutil"
)

const xpath = "/hardware"

// usbPortPath maps a board's USB port name to its sysfs "authorized"
// attribute; populated from a board description at startup in the full
// system, left empty here since no board inventory is in scope.
var usbPortPath = map[string]string{}

type Translator struct {
	priority int
}

// New returns a hardware translator that subscribes to UPDATE events,
// though it does nothing on UPDATE. On CHANGE it writes the authorized
// attribute only for ports listed in usbPortPath and silently skips any
// other component.
func New(priority int) *Translator {
	return &Translator{priority: priority}
}

func (t *Translator) Metadata() translator.Metadata {
	return translator.Metadata{
		Name:        "hardware",
		Type:        "hardware",
		XPath:       xpath,
		Priority:    t.priority,
		WantsUpdate: true,
	}
}

func (t *Translator) HandleEvent(ctx context.Context, ev translator.Event, diff []configtree.DiffEntry, dag ports.Dagger) error {
	switch ev {
	case translator.EventUpdate:
		return nil // component inventory is read from the running system, not inferred from user input
	case translator.EventChange:
		return t.applyUSBAuthorization(diff)
	default:
		return nil
	}
}

func (t *Translator) applyUSBAuthorization(diff []configtree.DiffEntry) error {
	for name, entries := range groupByComponent(diff) {
		sysfsPath, ok := usbPortPath[name]
		if !ok {
			continue
		}
		enabled := true
		for _, e := range entries {
			if strings.HasSuffix(e.Path, "/infix-hardware:state/admin-state") {
				enabled = e.NewValue.String() != "disabled"
			}
		}
		content := "0\n"
		if enabled {
			content = "1\n"
		}
		if err := moduleutil.WriteArtifactAtomically(sysfsPath, []byte(content), 0o200); err != nil {
			return err
		}
	}
	return nil
}

func groupByComponent(diff []configtree.DiffEntry) map[string][]configtree.DiffEntry {
	groups := make(map[string][]configtree.DiffEntry)
	for _, e := range diff {
		rel := strings.TrimPrefix(e.Path, xpath+"/component/")
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
