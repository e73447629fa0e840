// Copyright (c) 2025 The Rig Routing Tables Authors
// SPDX-License-Identifier: MIT

package tcamclient

import (
	"context"
	"testing"

	"github.com/project-rig/rig-routing-tables/rtable"
	"github.com/project-rig/rig-routing-tables/ternary"
)

func km(key, mask uint32) ternary.Keymask { return ternary.Keymask{Key: key, Mask: mask} }

func TestFakeLoaderTagsAppID(t *testing.T) {
	l := NewFakeLoader(4)
	table := rtable.New([]rtable.Entry{
		{Keymask: km(0, 0xFFFFFFFF), Route: 0x04},
		{Keymask: km(1, 0xFFFFFFFF), Route: 0x10},
	})

	if err := l.TryLoad(context.Background(), table, 7); err != nil {
		t.Fatalf("TryLoad: %v", err)
	}

	loaded := l.Loaded()
	if len(loaded) != 2 {
		t.Fatalf("loaded %d entries, want 2", len(loaded))
	}
	if loaded[0].Route != 0x04|(7<<appIDShift) {
		t.Errorf("entry 0 route = %#x, want %#x", loaded[0].Route, 0x04|(7<<appIDShift))
	}
	if loaded[1].Route != 0x10|(7<<appIDShift) {
		t.Errorf("entry 1 route = %#x, want %#x", loaded[1].Route, 0x10|(7<<appIDShift))
	}
}

func TestFakeLoaderRejectsOversizedTable(t *testing.T) {
	l := NewFakeLoader(1)
	table := rtable.New([]rtable.Entry{
		{Keymask: km(0, 0xFFFFFFFF)},
		{Keymask: km(1, 0xFFFFFFFF)},
	})

	if err := l.TryLoad(context.Background(), table, 0); err == nil {
		t.Fatal("expected a capacity error")
	}
	if l.Loaded() != nil {
		t.Fatal("a failed load must not modify the recorded state")
	}
}

func TestFakeLoaderHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewFakeLoader(4)
	table := rtable.New([]rtable.Entry{{Keymask: km(0, 0xFFFFFFFF)}})

	if err := l.TryLoad(ctx, table, 0); err == nil {
		t.Fatal("expected a cancellation error")
	}
}
