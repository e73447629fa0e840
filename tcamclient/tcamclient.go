// Copyright (c) 2025 The Rig Routing Tables Authors
// SPDX-License-Identifier: MIT

// Package tcamclient defines the boundary between a minimised table and
// the router it ultimately gets loaded into. spec.md §6 describes
// try_load(table, app_id) as a collaborator whose shape the core does not
// depend on; this package gives that shape a Go interface and a fake
// implementation for testing and dry runs, without binding to any real
// allocation-API transport.
package tcamclient

import (
	"context"
	"fmt"

	"github.com/project-rig/rig-routing-tables/rtable"
)

// Loader attempts to allocate contiguous TCAM slots for a table and
// program them into a router.
type Loader interface {
	// TryLoad writes t's entries into the router in order, tagging each
	// entry's route with appID in the router's configured field layout.
	// It returns an error if the router could not allocate t.Size()
	// contiguous slots.
	TryLoad(ctx context.Context, t *rtable.Table, appID uint32) error
}

// appIDShift is the bit position at which try_load packs the application
// ID into an entry's route field, per spec.md §6.
const appIDShift = 24

// FakeLoader is an in-memory Loader over a fixed-capacity slot array,
// useful for dry runs and tests. It never touches real hardware.
type FakeLoader struct {
	Capacity int
	loaded   []rtable.Entry
}

// NewFakeLoader returns a FakeLoader with room for capacity entries.
func NewFakeLoader(capacity int) *FakeLoader {
	return &FakeLoader{Capacity: capacity}
}

// TryLoad records t's entries, each with appID<<24 folded into Route, if
// they fit within the loader's capacity. It leaves any previous load
// untouched on failure.
func (f *FakeLoader) TryLoad(ctx context.Context, t *rtable.Table, appID uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.Size() > f.Capacity {
		return fmt.Errorf("tcamclient: table has %d entries, capacity is %d", t.Size(), f.Capacity)
	}

	loaded := make([]rtable.Entry, t.Size())
	for i, e := range t.Entries {
		e.Route |= appID << appIDShift
		loaded[i] = e
	}
	f.loaded = loaded
	return nil
}

// Loaded returns the entries recorded by the most recent successful
// TryLoad call.
func (f *FakeLoader) Loaded() []rtable.Entry {
	return f.loaded
}
