// Package configtree models the annotated configuration tree described in
// spec §3: a schema-typed hierarchical structure keyed by path, where each
// node may carry a diff annotation (create/delete/replace/none) and a flag
// marking the value as schema-default. The datastore library owns the
// canonical tree; this package models the borrowed, read-only view that
// translators receive for the duration of one transaction.
package configtree

import (
	"sort"
	"strings"
)

// Op enumerates the per-node diff annotation.
type Op string

const (
	OpNone    Op = "none"
	OpCreate  Op = "create"
	OpDelete  Op = "delete"
	OpReplace Op = "replace"
)

// Node is a single element of the configuration tree, addressed by its
// slash-separated Path from the tree root (e.g. "/interfaces/interface[eth0]/type").
type Node struct {
	Path      string
	Value     Value
	Op        Op
	IsDefault bool
	Children  []*Node
}

// Tree is an immutable-by-convention snapshot of the post-change
// configuration, handed to translators alongside the Diff for the same
// transaction. Callers must not retain a Tree past the callback that
// received it (spec §9: "translators must not retain references past the
// callback").
type Tree struct {
	Root *Node
}

// New wraps a root node into a Tree.
func New(root *Node) *Tree {
	return &Tree{Root: root}
}

// Get returns the node at path, or nil if absent. Lookup is a linear walk
// from the root; configuration trees in this domain are shallow (a handful
// of list entries per subtree) so no index is maintained.
func (t *Tree) Get(path string) *Node {
	if t == nil || t.Root == nil {
		return nil
	}
	return find(t.Root, path)
}

func find(n *Node, path string) *Node {
	if n == nil {
		return nil
	}
	if n.Path == path {
		return n
	}
	for _, child := range n.Children {
		if strings.HasPrefix(path, child.Path) {
			if found := find(child, path); found != nil {
				return found
			}
		}
	}
	return nil
}

// Subtree returns the node at xpath together with every descendant,
// unchanged relative to the source tree; it is the structure translators
// iterate over to find entries under their module's XPath.
func (t *Tree) Subtree(xpath string) *Node {
	return t.Get(xpath)
}

// Walk invokes fn for every node in the subtree rooted at n, in
// depth-first, path-sorted order so that iteration is deterministic (an
// invariant tests rely on: "directory-listing order (stable across runs)").
func Walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	children := append([]*Node(nil), n.Children...)
	sort.Slice(children, func(i, j int) bool { return children[i].Path < children[j].Path })
	for _, child := range children {
		Walk(child, fn)
	}
}

// HasChanges reports whether any node in the subtree carries a non-none
// diff annotation. Translators call this at module entry so that a module
// untouched by the current diff can early-exit with ok and no side effects
// (spec §4.1: "A module that does not touch any node ... MUST return ok
// without side-effects").
func HasChanges(n *Node) bool {
	changed := false
	Walk(n, func(cur *Node) {
		if cur.Op != OpNone {
			changed = true
		}
	})
	return changed
}
