// Copyright (c) 2025 The Rig Routing Tables Authors
// SPDX-License-Identifier: MIT

// Package merge implements the candidate-merge object shared by the
// Ordered Covering engine: a set of table entry indices together with
// their combined keymask and goodness. Grounded on
// original_source/include/merge.h.
package merge

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/project-rig/rig-routing-tables/rtable"
	"github.com/project-rig/rig-routing-tables/ternary"
)

// Merge is a candidate merge: a subset of a table's entries that share a
// route, together with the keymask their combination would produce and
// the number of slots the merge would save if applied (goodness).
type Merge struct {
	entries  *bitset.BitSet
	table    *rtable.Table
	Keymask  ternary.Keymask
	Goodness int
}

// New allocates an empty merge over table.
func New(table *rtable.Table) *Merge {
	m := &Merge{}
	m.Init(table)
	return m
}

// Init attaches table to m and resets m to the empty-merge state.
func (m *Merge) Init(table *rtable.Table) {
	m.table = table
	m.entries = bitset.New(uint(table.Size()))
	m.Clear()
}

// Clear resets m to contain no entries.
func (m *Merge) Clear() {
	m.entries.ClearAll()
	m.Keymask = ternary.Identity()
	m.Goodness = -1
}

// Delete releases m's resources.
func (m *Merge) Delete() {
	m.entries = nil
	m.table = nil
}

// Contains reports whether entry index i is included in the merge.
func (m *Merge) Contains(i int) bool {
	return m.entries.Test(uint(i))
}

// Count returns the number of entries currently included.
func (m *Merge) Count() int {
	return int(m.entries.Count())
}

// Indices returns the included entry indices in ascending order.
func (m *Merge) Indices() []int {
	out := make([]int, 0, m.Count())
	for i, ok := m.entries.NextSet(0); ok; i, ok = m.entries.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// Add includes entry index i in the merge, if i is in range and not
// already included. Goodness and the merged keymask are updated
// incrementally.
func (m *Merge) Add(i int) {
	if i < 0 || i >= m.table.Size() || m.entries.Test(uint(i)) {
		return
	}
	m.entries.Set(uint(i))

	km := m.table.Entries[i].Keymask
	if m.Keymask == ternary.Identity() {
		m.Keymask = km
	} else {
		m.Keymask = ternary.Merge(m.Keymask, km)
	}
	m.Goodness++
}

// Remove excludes entry index i from the merge and rebuilds the merged
// keymask from scratch, since keymask merging is not invertible.
func (m *Merge) Remove(i int) {
	if i < 0 || i >= m.table.Size() || !m.entries.Test(uint(i)) {
		return
	}
	m.entries.Clear(uint(i))
	m.Goodness--
	m.rebuild()
}

func (m *Merge) rebuild() {
	acc := ternary.Identity()
	for idx, ok := m.entries.NextSet(0); ok; idx, ok = m.entries.NextSet(idx + 1) {
		acc = ternary.Merge(acc, m.table.Entries[idx].Keymask)
	}
	m.Keymask = acc
}
