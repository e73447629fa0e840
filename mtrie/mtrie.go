// Copyright (c) 2025 The Rig Routing Tables Authors
// SPDX-License-Identifier: MIT

// Package mtrie implements the m-Trie engine: a per-route ternary trie
// with adjacent-sibling collapsing, used to minimise a routing table
// whose entries share the same outgoing route. Grounded on
// original_source/include/mtrie.h.
package mtrie

import (
	"github.com/project-rig/rig-routing-tables/rtable"
	"github.com/project-rig/rig-routing-tables/ternary"
)

// node is a level in the m-Trie. bit is the single-bit mask this level
// represents; the root's bit is 0x80000000, halving down to 0 at a leaf.
// A path from root to a leaf node (bit == 0) represents one ternary
// pattern; reaching a leaf means that pattern has been inserted.
type node struct {
	parent                 *node
	bit                    uint32
	child0, child1, childX *node
}

// Trie is an m-Trie: the route-partitioned ternary decomposition engine.
// The zero value is not ready to use; call New.
type Trie struct {
	root *node
}

// New returns an empty m-Trie.
func New() *Trie {
	return &Trie{root: &node{bit: 1 << 31}}
}

// getChild returns a pointer to the child slot that (key, mask) selects
// at n, or nil if the bit is a '!' (invalid, mask=0 key=1).
func getChild(n *node, key, mask uint32) **node {
	switch {
	case mask&n.bit != 0 && key&n.bit == 0:
		return &n.child0
	case mask&n.bit != 0 && key&n.bit != 0:
		return &n.child1
	case mask&n.bit == 0 && key&n.bit == 0:
		return &n.childX
	default:
		return nil // '!'
	}
}

// traverse walks from n along (key, mask), creating children as needed,
// and returns the leaf's parent (the node whose bit is 0 has no useful
// identity of its own, so insertion logic always deals with its parent).
func traverse(n *node, key, mask uint32) *node {
	for n.bit != 0 {
		child := getChild(n, key, mask)
		if child == nil {
			return nil
		}
		if *child == nil {
			*child = &node{parent: n, bit: n.bit >> 1}
		}
		n = *child
	}
	return n.parent
}

// pathExists reports whether following (key, mask) from n reaches a leaf.
func pathExists(n *node, key, mask uint32) bool {
	for n.bit != 0 {
		child := getChild(n, key, mask)
		if child == nil || *child == nil {
			return false
		}
		n = *child
	}
	return true
}

// untraverse follows (key, mask) from n, deleting any interior node that
// becomes childless as a result, and reports whether n itself should be
// unlinked by its caller.
func untraverse(n *node, key, mask uint32) bool {
	if n.bit == 0 {
		return true // leaf: always unlink
	}

	child := getChild(n, key, mask)
	if child != nil && *child != nil && untraverse(*child, key, mask) {
		*child = nil
	}

	return n.child0 == nil && n.child1 == nil && n.childX == nil
}

func untraverseInChild(child **node, key, mask uint32) {
	if *child != nil && untraverse(*child, key, mask) {
		*child = nil
	}
}

// Insert adds the ternary pattern (key, mask) to the trie, collapsing
// pairs of sibling subtrees that both already contain the pattern into a
// single X-subtree as it walks back up from the leaf.
func (t *Trie) Insert(key, mask uint32) {
	leaf := traverse(t.root, key, mask)

	for leaf != nil {
		child0, child1, childX := &leaf.child0, &leaf.child1, &leaf.childX

		switch {
		case *child0 != nil && pathExists(*child0, key, mask) &&
			*child1 != nil && pathExists(*child1, key, mask):
			if *childX == nil {
				*childX = &node{parent: leaf, bit: leaf.bit >> 1}
			}
			traverse(*childX, key, mask)
			untraverseInChild(child0, key, mask)
			untraverseInChild(child1, key, mask)
			key &^= leaf.bit
			mask &^= leaf.bit

		case *childX != nil && pathExists(*childX, key, mask) &&
			*child0 != nil && pathExists(*child0, key, mask):
			untraverseInChild(child0, key, mask)
			key &^= leaf.bit
			mask &^= leaf.bit

		case *childX != nil && pathExists(*childX, key, mask) &&
			*child1 != nil && pathExists(*child1, key, mask):
			untraverseInChild(child1, key, mask)
			key &^= leaf.bit
			mask &^= leaf.bit

		default:
			leaf = leaf.parent
			continue
		}

		leaf = leaf.parent
	}
}

// Count returns the number of leaves (distinct patterns) in the trie.
func (t *Trie) Count() int {
	return countRec(t.root)
}

func countRec(n *node) int {
	if n == nil {
		return 0
	}
	if n.bit == 0 {
		return 1
	}
	return countRec(n.child0) + countRec(n.child1) + countRec(n.childX)
}

// GetEntries emits every leaf's ternary pattern as a Keymask. Emission
// order is a fixed tree walk (child0, child1, childX at every node); this
// order is part of the contract, not an implementation detail.
func (t *Trie) GetEntries() []ternary.Keymask {
	var out []ternary.Keymask
	emitRec(t.root, 0, 0, &out)
	return out
}

func emitRec(n *node, key, mask uint32, out *[]ternary.Keymask) {
	if n == nil {
		return
	}
	if n.bit == 0 {
		*out = append(*out, ternary.Keymask{Key: key, Mask: mask})
		return
	}
	b := n.bit
	emitRec(n.child0, key, mask|b, out)
	emitRec(n.child1, key|b, mask|b, out)
	emitRec(n.childX, key, mask, out)
}

// MinimiseTable partitions the entries of table by route, minimises each
// partition with its own m-Trie, and returns a new table that
// concatenates the minimised partitions in the first-appearance order of
// their routes. Within each partition entries appear in the tree-walk
// order GetEntries produces. Output entries inherit their partition's
// route; Source is zeroed since m-Trie discards it.
func MinimiseTable(table *rtable.Table) *rtable.Table {
	visited := make([]bool, table.Size())

	var out []rtable.Entry
	for i := range table.Entries {
		if visited[i] {
			continue
		}

		route := table.Entries[i].Route
		trie := New()
		for j := i; j < table.Size(); j++ {
			if visited[j] || table.Entries[j].Route != route {
				continue
			}
			visited[j] = true
			km := table.Entries[j].Keymask
			trie.Insert(km.Key, km.Mask)
		}

		for _, km := range trie.GetEntries() {
			out = append(out, rtable.Entry{Keymask: km, Route: route})
		}
	}

	return rtable.New(out)
}
