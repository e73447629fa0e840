// Copyright (c) 2025 The Rig Routing Tables Authors
// SPDX-License-Identifier: MIT

// Package oc implements the Ordered Covering engine: a greedy merge
// search that repeatedly folds same-route entries together while
// preserving order-of-match semantics, guarded by an upcheck and a
// downcheck. Grounded on original_source/include/ordered_covering.h and
// original_source/tests/test_ordered_covering.c.
package oc

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/project-rig/rig-routing-tables/internal/aliases"
	"github.com/project-rig/rig-routing-tables/merge"
	"github.com/project-rig/rig-routing-tables/rtable"
	"github.com/project-rig/rig-routing-tables/ternary"
)

// insertionPoint returns the index at which m's merged entry would be
// inserted into table, were it applied now.
func insertionPoint(table *rtable.Table, m *merge.Merge) int {
	return table.InsertionPoint(ternary.CountXs(m.Keymask))
}

// Upcheck removes from m any entries that, merged, would themselves be
// shadowed by an existing entry sitting between their original position
// and m's insertion point. It iterates from the highest table index
// downward; once m's goodness falls to or below minGoodness it empties m
// and stops. It reports whether it removed anything.
func Upcheck(table *rtable.Table, m *merge.Merge, minGoodness int) bool {
	changed := false
	insertion := insertionPoint(table, m)

	for i := table.Size() - 1; i >= 0; i-- {
		if !m.Contains(i) {
			continue
		}

		km := table.Entries[i].Keymask
		for j := i + 1; j < insertion; j++ {
			if ternary.Intersect(km, table.Entries[j].Keymask) {
				m.Remove(i)
				changed = true
				insertion = insertionPoint(table, m)
				break
			}
		}

		if m.Goodness <= minGoodness {
			m.Clear()
			return true
		}
	}

	return changed
}

// stringency is a single-bit requirement a merge's keymask would need to
// satisfy to stop matching a guarded address: the merge's bit at position
// bit must become value instead of staying wild.
type stringency struct {
	bit   uint32
	value bool
}

// guardKeymasks returns the keymasks that table.Entries[i] stands for:
// its alias list if one is recorded, otherwise just its own keymask.
func guardKeymasks(table *rtable.Table, al *aliases.Map, i int) []ternary.Keymask {
	km := table.Entries[i].Keymask
	if v, ok := al.Find(km); ok {
		if list, ok := v.(*aliases.List); ok {
			return list.All()
		}
	}
	return []ternary.Keymask{km}
}

// stringencyOptions returns every bit at which merged has gone wild but
// guard has not, paired with the value merged would need to take at that
// bit to exclude guard.
func stringencyOptions(merged, guard ternary.Keymask) []stringency {
	var out []stringency
	for bit := uint32(1) << 31; bit > 0; bit >>= 1 {
		if guard.Mask&bit != 0 && merged.Mask&bit == 0 {
			out = append(out, stringency{bit: bit, value: guard.Key&bit == 0})
		}
	}
	return out
}

// opposes reports whether km would force the merge to remain wild at bit
// rather than settle on value: either km is itself wild there, or km's
// own bit disagrees with value.
func opposes(km ternary.Keymask, s stringency) bool {
	if km.Mask&s.bit == 0 {
		return true
	}
	bitSet := km.Key&s.bit != 0
	return bitSet != s.value
}

// Downcheck removes from m the entries necessary so that its merged
// keymask, inserted at its insertion point, does not cover any existing
// entry (or any of that entry's recorded aliases) lying below the
// insertion point. It proceeds greedily: find every bit position that
// would resolve a covered guard, fix the most broadly useful one, drop
// every merge member that opposes it, and repeat. If goodness ever falls
// to or below minGoodness, or no fix can be found, m is emptied.
func Downcheck(table *rtable.Table, m *merge.Merge, minGoodness int, al *aliases.Map) {
	for {
		if m.Count() == 0 {
			return
		}

		insertion := insertionPoint(table, m)

		counts := make(map[stringency]int)
		problem := false
		for j := insertion; j < table.Size(); j++ {
			if m.Contains(j) {
				continue
			}
			for _, guard := range guardKeymasks(table, al, j) {
				if !ternary.Intersect(m.Keymask, guard) {
					continue
				}
				problem = true
				for _, s := range stringencyOptions(m.Keymask, guard) {
					counts[s]++
				}
			}
		}

		if !problem {
			return
		}

		// Pick the stringency option cited by the most problem guards;
		// ties favour the lowest bit position, for a deterministic and
		// minimally disruptive fix.
		var best stringency
		bestCount := 0
		for bit := uint32(1); bit != 0; bit <<= 1 {
			for _, value := range []bool{false, true} {
				s := stringency{bit: bit, value: value}
				if c := counts[s]; c > bestCount {
					bestCount = c
					best = s
				}
			}
		}

		if bestCount == 0 {
			// No single bit flip can exclude every covered guard: the
			// covering cannot be resolved by narrowing, so give up on
			// the whole merge.
			m.Clear()
			return
		}

		for _, idx := range m.Indices() {
			if opposes(table.Entries[idx].Keymask, best) {
				m.Remove(idx)
			}
		}

		if m.Goodness <= minGoodness {
			m.Clear()
			return
		}
	}
}

// GetBestMerge searches table for the most profitable merge of entries
// sharing a route, refining each candidate with a downcheck and upcheck
// before comparing it against the best merge found so far.
func GetBestMerge(table *rtable.Table, al *aliases.Map) *merge.Merge {
	considered := bitset.New(uint(table.Size()))
	best := merge.New(table)
	working := merge.New(table)

	for i := 0; i < table.Size(); i++ {
		if considered.Test(uint(i)) {
			continue
		}

		working.Clear()
		working.Add(i)
		considered.Set(uint(i))

		route := table.Entries[i].Route
		for j := i + 1; j < table.Size(); j++ {
			if table.Entries[j].Route == route {
				working.Add(j)
				considered.Set(uint(j))
			}
		}

		if working.Goodness <= best.Goodness {
			continue
		}

		Downcheck(table, working, best.Goodness, al)
		if working.Goodness <= best.Goodness {
			continue
		}

		changed := Upcheck(table, working, best.Goodness)

		if working.Goodness > best.Goodness && changed {
			Downcheck(table, working, best.Goodness, al)
		}

		if working.Goodness > best.Goodness {
			best, working = working, best
		}
	}

	return best
}

// ApplyMerge folds m's entries into a single table entry at the correct
// insertion point, recording the displaced keymasks (and any aliases
// they themselves stood for) under the new entry's keymask in al.
func ApplyMerge(table *rtable.Table, m *merge.Merge, al *aliases.Map) {
	indices := m.Indices()
	if len(indices) == 0 {
		return
	}

	var source uint32
	for _, idx := range indices {
		source |= table.Entries[idx].Source
	}

	merged := rtable.Entry{
		Keymask: m.Keymask,
		Route:   table.Entries[indices[0]].Route,
		Source:  source,
	}

	insertion := table.InsertionPoint(ternary.CountXs(m.Keymask))

	list := aliases.NewList()
	for _, idx := range indices {
		km := table.Entries[idx].Keymask
		if v, ok := al.Find(km); ok {
			if existing, ok := v.(*aliases.List); ok {
				list.Splice(existing)
			}
			al.Remove(km)
		} else {
			list.Append(km)
		}
	}
	al.Insert(merged.Keymask, list)

	adjusted := insertion
	for _, idx := range indices {
		if idx < insertion {
			adjusted--
		}
	}

	table.DeleteIndices(indices)
	table.InsertAt(adjusted, merged)
}

// Minimise repeatedly applies the best available merge until table.Size()
// is at most targetLength or no merge of two or more entries is
// possible. It returns the final table size.
func Minimise(table *rtable.Table, targetLength int, al *aliases.Map) int {
	for table.Size() > targetLength {
		m := GetBestMerge(table, al)
		count := m.Count()

		if count > 1 {
			ApplyMerge(table, m, al)
		}
		if count < 2 {
			break
		}
	}

	return table.Size()
}
