// Copyright (c) 2025 The Rig Routing Tables Authors
// SPDX-License-Identifier: MIT

// Package stream reads and writes the desktop binary file format: a
// concatenation of routing tables, each preceded by a small header
// identifying the chip it belongs to. Grounded on spec.md §6 and
// original_source/desktop/mtrie.c and ordered_covering.c, whose
// header_t/fentry_t structs and read/write loops this mirrors.
package stream

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/project-rig/rig-routing-tables/rtable"
	"github.com/project-rig/rig-routing-tables/ternary"
)

// header is the fixed, naturally-packed, little-endian table header.
type header struct {
	X, Y   uint8
	Length uint16
}

// fileEntry is the on-disk entry layout: four little-endian uint32s in
// key, mask, source, route order. This differs from rtable.Entry's field
// order and grouping (Keymask holds key+mask together), so ReadTable and
// WriteTable translate explicitly rather than reusing binary.Read/Write
// on rtable.Entry directly.
type fileEntry struct {
	Key, Mask, Source, Route uint32
}

// Table is one chip's routing table together with the (x, y) coordinates
// its header identifies it by.
type Table struct {
	X, Y  uint8
	Table *rtable.Table
}

// ReadTable reads a single header-prefixed table from r. io.EOF is
// returned (unwrapped) only if r is exhausted before any header bytes are
// read; a header followed by too few entries is a hard error.
func ReadTable(r io.Reader) (Table, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Table{}, fmt.Errorf("stream: truncated table header: %w", err)
		}
		return Table{}, err
	}

	entries := make([]rtable.Entry, h.Length)
	for i := range entries {
		var fe fileEntry
		if err := binary.Read(r, binary.LittleEndian, &fe); err != nil {
			return Table{}, fmt.Errorf("stream: reading entry %d of %d: %w", i, h.Length, err)
		}
		entries[i] = rtable.Entry{
			Keymask: ternary.Keymask{Key: fe.Key, Mask: fe.Mask},
			Source:  fe.Source,
			Route:   fe.Route,
		}
	}

	return Table{X: h.X, Y: h.Y, Table: rtable.New(entries)}, nil
}

// ReadAll reads every header-prefixed table in r until it is exhausted.
func ReadAll(r io.Reader) ([]Table, error) {
	var out []Table
	for {
		t, err := ReadTable(r)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
}

// WriteTable writes t to w in the §6 binary format. When zeroSource is
// true every entry's source is written as 0, the contract an m-Trie-only
// pass must honour since m-Trie discards source information entirely.
func WriteTable(w io.Writer, t Table, zeroSource bool) error {
	if t.Table.Size() > 1<<16-1 {
		return fmt.Errorf("stream: table has %d entries, exceeds uint16 length field", t.Table.Size())
	}

	h := header{X: t.X, Y: t.Y, Length: uint16(t.Table.Size())}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}

	for _, e := range t.Table.Entries {
		source := e.Source
		if zeroSource {
			source = 0
		}
		fe := fileEntry{Key: e.Keymask.Key, Mask: e.Keymask.Mask, Source: source, Route: e.Route}
		if err := binary.Write(w, binary.LittleEndian, fe); err != nil {
			return err
		}
	}
	return nil
}

// WriteAll writes every table in tables to w, in order.
func WriteAll(w io.Writer, tables []Table, zeroSource bool) error {
	for _, t := range tables {
		if err := WriteTable(w, t, zeroSource); err != nil {
			return err
		}
	}
	return nil
}
