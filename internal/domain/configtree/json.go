package configtree

import "sort"

// FromJSON builds a Tree from a decoded JSON document with no diff
// annotations (OpNone everywhere), the shape a freshly loaded startup,
// factory, or failure document takes before any edit has been applied
// against it.
func FromJSON(decoded map[string]interface{}) *Tree {
	root := &Node{Path: "/", Op: OpNone}
	buildChildren(root, "", decoded)
	return &Tree{Root: root}
}

func buildChildren(parent *Node, prefix string, m map[string]interface{}) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := prefix + "/" + k
		v := m[k]
		node := &Node{Path: path, Op: OpNone}
		switch typed := v.(type) {
		case map[string]interface{}:
			buildChildren(node, path, typed)
		default:
			node.Value = NewValue(typed)
		}
		parent.Children = append(parent.Children, node)
	}
}

// ToJSON flattens a Tree back into a plain JSON-marshalable map, discarding
// diff annotations — the representation SaveStartup persists.
func (t *Tree) ToJSON() map[string]interface{} {
	if t == nil || t.Root == nil {
		return map[string]interface{}{}
	}
	return nodeToJSON(t.Root)
}

func nodeToJSON(n *Node) map[string]interface{} {
	out := make(map[string]interface{}, len(n.Children))
	for _, child := range n.Children {
		name := leafName(child.Path)
		if len(child.Children) > 0 {
			out[name] = nodeToJSON(child)
		} else {
			out[name] = child.Value.Raw()
		}
	}
	return out
}

func leafName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
