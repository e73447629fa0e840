// Copyright (c) 2025 The Rig Routing Tables Authors
// SPDX-License-Identifier: MIT

// Package defaultroute implements the default-route removal pre-pass: a
// single independent scan that drops entries the chip's own default
// routing hardware already reproduces, so they never need a TCAM slot at
// all. It is deliberately separate from mtrie and oc and must not be
// imported by either; it runs before minimisation, not as part of it.
// Grounded on spec.md's collaborator contract and
// original_source/tests/test_remove_default_routes.c.
package defaultroute

import (
	"math/bits"

	"github.com/project-rig/rig-routing-tables/rtable"
	"github.com/project-rig/rig-routing-tables/ternary"
)

// numLinks is the number of inter-chip links on the router; link bits
// 0..numLinks-1 pair up opposite each other three apart (0-3, 1-4, 2-5).
// Any other set bit (a local core target, or more than one link) rules
// an entry out of default-route elimination.
const numLinks = 6

// isDefaultRoutable reports whether route and source are each a single
// link bit, and that pair of links is diametrically opposite, i.e. a
// packet arriving on source and leaving on route is exactly what the
// router's own default (unmatched-packet) behaviour would do.
func isDefaultRoutable(route, source uint32) bool {
	if bits.OnesCount32(route) != 1 || bits.OnesCount32(source) != 1 {
		return false
	}
	routeLink := bits.TrailingZeros32(route)
	sourceLink := bits.TrailingZeros32(source)
	if routeLink >= numLinks || sourceLink >= numLinks {
		return false
	}
	return routeLink == (sourceLink+numLinks/2)%numLinks
}

// Minimise drops every entry that is default-routable and whose keymask
// intersects no other entry in the table, preserving the relative order
// of survivors. It returns the resulting table size.
func Minimise(table *rtable.Table) int {
	var doomed []int

	for i, e := range table.Entries {
		if !isDefaultRoutable(e.Route, e.Source) {
			continue
		}

		shadowed := false
		for j, f := range table.Entries {
			if j == i {
				continue
			}
			if ternary.Intersect(e.Keymask, f.Keymask) {
				shadowed = true
				break
			}
		}
		if !shadowed {
			doomed = append(doomed, i)
		}
	}

	table.DeleteIndices(doomed)
	return table.Size()
}
