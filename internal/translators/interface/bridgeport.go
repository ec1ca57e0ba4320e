package ifmod

import (
	"context"
	"fmt"
	"strings"

	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/domain/generation"
	"github.com/kernelkit/confd/internal/ports"
)

// handleBridgePort stages the "ip link set master" enslavement plus any
// VLAN-filtering or IGMP/MLD-snooping "bridge" batch commands for an
// interface that names a bridge via its bridge-port subtree, and an
// analogous "master" enslavement for a LAG port. Grounded on
// infix-if-bridge-port.c (per-port VLAN membership/PVID) and
// infix-if-bridge-mcd.c (multicast snooping knobs), adapted from their
// sysrepo per-leaf setters to one batched script per entity.
func (t *Translator) handleBridgePort(ctx context.Context, dag ports.Dagger, name string, entries []configtree.DiffEntry) error {
	bridge := leafValue(entries, "bridge-port/bridge")
	master := leafValue(entries, "lag/master")

	if bridge == "" && master == "" {
		return nil
	}

	w, err := dag.Open(ctx, generation.PhaseInit, name, 20, "port.ip")
	if err != nil {
		return err
	}
	defer w.Close()

	if bridge != "" {
		fmt.Fprintf(w, "link set dev %s master %s\n", name, bridge)
		if err := dag.AddDep(ctx, name, bridge); err != nil {
			return err
		}
		return t.writeBridgePortVLANs(ctx, dag, name, bridge, entries)
	}

	fmt.Fprintf(w, "link set dev %s master %s\n", name, master)
	return dag.AddDep(ctx, name, master)
}

// writeBridgePortVLANs emits one "bridge" batch script covering VLAN
// membership (tagged/untagged/PVID) and multicast-snooping enablement for
// a bridge port, run separately from the "ip" link-enslavement script
// because the two tools accept different batch syntaxes.
func (t *Translator) writeBridgePortVLANs(ctx context.Context, dag ports.Dagger, name, bridge string, entries []configtree.DiffEntry) error {
	vids := collectVIDs(entries, "bridge-port/vlan/tagged")
	untagged := collectVIDs(entries, "bridge-port/vlan/untagged")
	pvid := leafValue(entries, "bridge-port/vlan/pvid")

	if len(vids) == 0 && len(untagged) == 0 && pvid == "" && !hasLeaf(entries, "bridge-port/multicast-snooping") {
		return nil
	}

	w, err := dag.Open(ctx, generation.PhaseInit, name, 25, "vlan.bridge")
	if err != nil {
		return err
	}
	defer w.Close()

	for _, vid := range vids {
		fmt.Fprintf(w, "vlan add vid %s dev %s\n", vid, name)
	}
	for _, vid := range untagged {
		fmt.Fprintf(w, "vlan add vid %s dev %s pvid untagged\n", vid, name)
	}
	if pvid != "" {
		fmt.Fprintf(w, "vlan add vid %s dev %s pvid\n", pvid, name)
	}
	if hasLeaf(entries, "bridge-port/multicast-snooping") {
		state := "on"
		if leafValue(entries, "bridge-port/multicast-snooping") == "false" {
			state = "off"
		}
		fmt.Fprintf(w, "link set dev %s type bridge_slave mcast_flood %s\n", name, state)
	}
	return nil
}

func collectVIDs(entries []configtree.DiffEntry, leaf string) []string {
	var out []string
	for _, e := range entries {
		if !strings.Contains(e.Path, "/"+leaf+"/") {
			continue
		}
		if e.Op == configtree.OpDelete {
			continue
		}
		out = append(out, leafName(e.Path))
	}
	return out
}
