// Copyright (c) 2025 The Rig Routing Tables Authors
// SPDX-License-Identifier: MIT

// Package rtable holds the shared routing table data model: entries,
// ordered tables, and the generality ordering the Ordered Covering engine
// depends on.
package rtable

import (
	"slices"

	"github.com/project-rig/rig-routing-tables/ternary"
)

// Entry is a single TCAM routing table entry. Route is the outgoing-link
// bitfield; Source is the expected incoming-link bitfield, used only by
// the default-route filter and otherwise preserved opaquely.
type Entry struct {
	Keymask ternary.Keymask
	Route   uint32
	Source  uint32
}

// Table is an ordered sequence of entries. Order is significant: the
// router returns the first entry whose keymask matches an incoming key.
type Table struct {
	Entries []Entry
}

// New returns a table containing a copy of entries, preserving order.
func New(entries []Entry) *Table {
	return &Table{Entries: slices.Clone(entries)}
}

// Size returns the number of entries in the table.
func (t *Table) Size() int {
	return len(t.Entries)
}

// SortByGenerality sorts the table in place by ascending count_xs of each
// entry's keymask, the ordering required by the OC engine. The sort is
// stable so that entries of equal generality keep their relative order.
func (t *Table) SortByGenerality() {
	slices.SortStableFunc(t.Entries, func(a, b Entry) int {
		return ternary.CountXs(a.Keymask) - ternary.CountXs(b.Keymask)
	})
}

// IsSortedByGenerality reports whether t is currently sorted by ascending
// generality, the precondition OC requires.
func (t *Table) IsSortedByGenerality() bool {
	return slices.IsSortedFunc(t.Entries, func(a, b Entry) int {
		return ternary.CountXs(a.Keymask) - ternary.CountXs(b.Keymask)
	})
}

// InsertAt inserts e at index i, shifting later entries one slot down.
func (t *Table) InsertAt(i int, e Entry) {
	t.Entries = slices.Insert(t.Entries, i, e)
}

// DeleteIndices removes the entries at the given indices (which must be
// distinct and within range), preserving the relative order of survivors.
// indices need not be sorted.
func (t *Table) DeleteIndices(indices []int) {
	if len(indices) == 0 {
		return
	}

	doomed := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		doomed[i] = struct{}{}
	}

	survivors := t.Entries[:0:0]
	for i, e := range t.Entries {
		if _, dead := doomed[i]; !dead {
			survivors = append(survivors, e)
		}
	}
	t.Entries = survivors
}

// InsertionPoint returns the smallest index i such that the generality of
// t.Entries[i] exceeds g, i.e. the end of the run of entries whose
// generality is <= g. Valid only when t is sorted by generality. Returns
// len(t.Entries) if every entry has generality <= g.
func (t *Table) InsertionPoint(g int) int {
	if i := slices.IndexFunc(t.Entries, func(e Entry) bool {
		return ternary.CountXs(e.Keymask) > g
	}); i >= 0 {
		return i
	}
	return len(t.Entries)
}
