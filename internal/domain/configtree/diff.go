package configtree

// DiffEntry is the per-leaf diff record described in spec §3: the old and
// new value (either may be absent depending on Op), the operation, and the
// default-ness of the value before and after the change. Modified is true
// only when the value changed non-defaultly, matching the spec's
// definition: "modification is true only when the value changed
// non-defaultly".
type DiffEntry struct {
	Path       string
	OldValue   Value
	NewValue   Value
	Op         Op
	WasDefault bool
	IsDefault  bool
	Modified   bool
}

// Diff derives the flat list of DiffEntry values from an annotated tree.
// Entries are derived on demand and owned by the caller; they must not
// outlive the Tree they were derived from (spec §3: "Derived on demand,
// freed with the tree").
func Diff(t *Tree) []DiffEntry {
	if t == nil || t.Root == nil {
		return nil
	}
	var entries []DiffEntry
	Walk(t.Root, func(n *Node) {
		if len(n.Children) > 0 {
			return // only leaves carry a value-level diff entry
		}
		if n.Op == OpNone && n.IsDefault {
			return
		}
		entry := DiffEntry{
			Path:      n.Path,
			Op:        n.Op,
			IsDefault: n.IsDefault,
		}
		switch n.Op {
		case OpCreate:
			entry.NewValue = n.Value
		case OpDelete:
			entry.OldValue = n.Value
		case OpReplace:
			entry.NewValue = n.Value
		default:
			entry.NewValue = n.Value
		}
		entry.Modified = entry.Op != OpNone && !entry.IsDefault
		entries = append(entries, entry)
	})
	return entries
}

// DiffUnder filters a diff list to entries whose path falls under prefix,
// the operation every translator performs first against the full-tree diff
// it receives.
func DiffUnder(entries []DiffEntry, prefix string) []DiffEntry {
	var out []DiffEntry
	for _, e := range entries {
		if hasPathPrefix(e.Path, prefix) {
			out = append(out, e)
		}
	}
	return out
}

func hasPathPrefix(path, prefix string) bool {
	if len(path) < len(prefix) {
		return false
	}
	return path[:len(prefix)] == prefix
}
