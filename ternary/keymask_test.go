// Copyright (c) 2025 The Rig Routing Tables Authors
// SPDX-License-Identifier: MIT

package ternary

import (
	"math/bits"
	"testing"
)

func TestCountXs(t *testing.T) {
	cases := []struct {
		km   Keymask
		want int
	}{
		{Keymask{0, 0xFFFFFFFF}, 0},
		{Keymask{0, 0}, 32},
		{Keymask{0b0101, 0b1111}, 28},
		{Keymask{0b0000, 0b0111}, 29},
	}
	for _, c := range cases {
		if got := CountXs(c.km); got != c.want {
			t.Errorf("CountXs(%+v) = %d, want %d", c.km, got, c.want)
		}
		if got := bits.OnesCount32(^(c.km.Key | c.km.Mask)); got != c.want {
			t.Errorf("popcount definition mismatch for %+v", c.km)
		}
	}
}

func TestIntersectSymmetric(t *testing.T) {
	a := Keymask{0b1000, 0b1111}
	b := Keymask{0b1000, 0b1000}
	if Intersect(a, b) != Intersect(b, a) {
		t.Fatal("Intersect must be symmetric")
	}
	if !Intersect(a, b) {
		t.Fatal("expected a and b to intersect")
	}

	c := Keymask{0b0000, 0b1111}
	if Intersect(a, c) {
		t.Fatal("0000/1111 and 1000/1111 must not intersect")
	}
}

func TestMergeInvariants(t *testing.T) {
	a := Keymask{0, 0xFFFFFFFF}
	b := Keymask{1, 0xFFFFFFFF}
	m := Merge(a, b)

	if !m.Valid() {
		t.Fatalf("merged keymask %+v is invalid", m)
	}
	if m != (Keymask{0, 0xFFFFFFFE}) {
		t.Fatalf("Merge(0,1) = %+v, want {0, 0xFFFFFFFE}", m)
	}

	// merge must cover every word matched by either operand
	if !Covers(m, a) || !Covers(m, b) {
		t.Fatalf("merge result does not cover both operands")
	}
}

func TestMergeCommutative(t *testing.T) {
	a := Keymask{0b0101, 0b1111}
	b := Keymask{0b0000, 0b1111}
	if Merge(a, b) != Merge(b, a) {
		t.Fatal("Merge must be commutative")
	}
}

func TestMergeReduceIdentity(t *testing.T) {
	if got := MergeReduce(); got != Identity() {
		t.Fatalf("MergeReduce() = %+v, want identity", got)
	}

	km := Keymask{0b1010, 0b1111}
	if got := MergeReduce(km); got != km {
		t.Fatalf("MergeReduce(km) = %+v, want %+v unchanged", got, km)
	}
}

func TestCovers(t *testing.T) {
	general := Keymask{0, 0} // X...X
	specific := Keymask{0b1, 0b1}

	if !Covers(general, specific) {
		t.Fatal("fully general keymask must cover everything")
	}
	if Covers(specific, general) {
		t.Fatal("a specific keymask cannot cover a more general one")
	}
}
