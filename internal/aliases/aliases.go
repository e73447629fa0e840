// Copyright (c) 2025 The Rig Routing Tables Authors
// SPDX-License-Identifier: MIT

// Package aliases implements the trit-indexed aliases map: a trie keyed
// by ternary keymask that remembers, for each merged entry the Ordered
// Covering engine produces, the set of original keymasks it stands in
// for. Grounded on original_source/include/aliases.h.
package aliases

import "github.com/project-rig/rig-routing-tables/ternary"

const chunkSize = 8

// List is an insertion-ordered sequence of keymasks, represented as a
// linked chain of fixed-size arrays so that Splice never copies the
// spliced-in contents.
type List struct {
	head, tail *listChunk
	length     int
}

type listChunk struct {
	items [chunkSize]ternary.Keymask
	n     int
	next  *listChunk
}

// NewList returns an empty alias list.
func NewList() *List {
	return &List{}
}

// Len returns the number of keymasks in the list.
func (l *List) Len() int { return l.length }

// Append adds km to the end of the list.
func (l *List) Append(km ternary.Keymask) {
	if l.tail == nil || l.tail.n == chunkSize {
		c := &listChunk{}
		if l.tail == nil {
			l.head = c
		} else {
			l.tail.next = c
		}
		l.tail = c
	}
	l.tail.items[l.tail.n] = km
	l.tail.n++
	l.length++
}

// Splice appends the entire contents of other to the end of l, in O(1),
// without copying any keymask. other must not be used afterward.
func (l *List) Splice(other *List) {
	if other == nil || other.length == 0 {
		return
	}
	if l.head == nil {
		l.head = other.head
		l.tail = other.tail
	} else {
		l.tail.next = other.head
		l.tail = other.tail
	}
	l.length += other.length
}

// All returns every keymask in the list, in insertion order.
func (l *List) All() []ternary.Keymask {
	out := make([]ternary.Keymask, 0, l.length)
	for c := l.head; c != nil; c = c.next {
		out = append(out, c.items[:c.n]...)
	}
	return out
}

// node is an interior node of the trie. A nil child means "not present".
// value is non-nil only at depth 32 (a leaf).
type node struct {
	child0, child1, childX *node
	value                  any
}

// Map is a trie keyed by keymask, three-way branching on the ternary
// digit (0, 1, X) of each bit from MSB to LSB. A keymask containing a '!'
// position has no valid path and is silently rejected by Insert.
type Map struct {
	root node
}

// NewMap returns an empty aliases map.
func NewMap() *Map {
	return &Map{}
}

// digit classifies the position of km selected by the single-bit mask bit.
//
// returns 0, 1, or 2 for X; ok is false for an invalid '!' bit.
func digit(km ternary.Keymask, bit uint32) (which int, ok bool) {
	k := km.Key&bit != 0
	m := km.Mask&bit != 0
	switch {
	case !k && !m:
		return 2, true // X
	case !k && m:
		return 0, true // 0
	case k && m:
		return 1, true // 1
	default:
		return 0, false // '!'
	}
}

// childSlot returns a pointer to the field of n selected by which.
func childSlot(n *node, which int) **node {
	switch which {
	case 0:
		return &n.child0
	case 1:
		return &n.child1
	default:
		return &n.childX
	}
}

// Find returns the value stored for km, and whether it was present.
func (m *Map) Find(km ternary.Keymask) (any, bool) {
	n := &m.root
	for bit := uint32(1) << 31; bit > 0; bit >>= 1 {
		which, ok := digit(km, bit)
		if !ok {
			return nil, false
		}
		n = *childSlot(n, which)
		if n == nil {
			return nil, false
		}
	}
	return n.value, n.value != nil
}

// Contains reports whether km has a stored value.
func (m *Map) Contains(km ternary.Keymask) bool {
	_, ok := m.Find(km)
	return ok
}

// Insert stores value under km, overwriting any existing value. Inserting
// a keymask with a '!' position is a silent no-op.
func (m *Map) Insert(km ternary.Keymask, value any) {
	if !km.Valid() {
		return
	}

	n := &m.root
	for bit := uint32(1) << 31; bit > 1; bit >>= 1 {
		which, _ := digit(km, bit)
		slot := childSlot(n, which)
		if *slot == nil {
			*slot = &node{}
		}
		n = *slot
	}

	which, _ := digit(km, 1)
	slot := childSlot(n, which)
	if *slot == nil {
		*slot = &node{}
	}
	(*slot).value = value
}

// Remove unlinks the value stored for km, then frees any ancestor node
// that becomes childless, bottom-up.
func (m *Map) Remove(km ternary.Keymask) {
	if !km.Valid() {
		return
	}
	removeRec(&m.root, km, 1<<31)
}

// removeRec returns true if n itself became childless (and valueless) as
// a result of the removal, so the caller should unlink it.
func removeRec(n *node, km ternary.Keymask, bit uint32) bool {
	which, _ := digit(km, bit)
	slot := childSlot(n, which)

	if bit == 1 {
		if *slot != nil {
			(*slot).value = nil
			if isChildless(*slot) {
				*slot = nil
			}
		}
	} else if *slot != nil {
		if removeRec(*slot, km, bit>>1) {
			*slot = nil
		}
	}

	return isChildless(n) && n.value == nil
}

func isChildless(n *node) bool {
	return n.child0 == nil && n.child1 == nil && n.childX == nil
}

// Clear releases the entire trie. It does not release the opaque values
// stored in it; the caller must drain those first.
func (m *Map) Clear() {
	m.root = node{}
}
