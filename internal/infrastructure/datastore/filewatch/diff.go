package filewatch

import (
	"sort"

	"github.com/google/uuid"

	"github.com/kernelkit/confd/internal/domain/configtree"
)

func newRequestID() string {
	return uuid.NewString()
}

// diffDocuments walks two decoded JSON documents recursively and produces
// leaf-level DiffEntry values, the JSON-tree-walk this module substitutes
// for sysrepo's native change iterator (spec §6.1).
func diffDocuments(prev, next map[string]interface{}) []configtree.DiffEntry {
	var out []configtree.DiffEntry
	walk("", prev, next, &out)
	return out
}

func walk(prefix string, prev, next map[string]interface{}, out *[]configtree.DiffEntry) {
	keys := make(map[string]bool)
	for k := range prev {
		keys[k] = true
	}
	for k := range next {
		keys[k] = true
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	for _, k := range sorted {
		path := prefix + "/" + k
		pv, pok := prev[k]
		nv, nok := next[k]

		pm, pIsMap := pv.(map[string]interface{})
		nm, nIsMap := nv.(map[string]interface{})
		if (pIsMap || !pok) && (nIsMap || !nok) && (pIsMap || nIsMap) {
			walk(path, pm, nm, out)
			continue
		}

		switch {
		case !pok && nok:
			*out = append(*out, configtree.DiffEntry{
				Path: path, NewValue: configtree.NewValue(nv), Op: configtree.OpCreate, Modified: true,
			})
		case pok && !nok:
			*out = append(*out, configtree.DiffEntry{
				Path: path, OldValue: configtree.NewValue(pv), Op: configtree.OpDelete, Modified: true,
			})
		case pok && nok && !valueEqual(pv, nv):
			*out = append(*out, configtree.DiffEntry{
				Path: path, OldValue: configtree.NewValue(pv), NewValue: configtree.NewValue(nv),
				Op: configtree.OpReplace, Modified: true,
			})
		}
	}
}

func valueEqual(a, b interface{}) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
