// Copyright (c) 2025 The Rig Routing Tables Authors
// SPDX-License-Identifier: MIT

// Command rigminimise streams routing tables from a binary file, applies
// the m-Trie and/or Ordered Covering minimisation passes, and writes the
// result back out, logging per-table progress the way the original
// desktop mtrie/ordered_covering tools did.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/project-rig/rig-routing-tables/defaultroute"
	"github.com/project-rig/rig-routing-tables/internal/aliases"
	"github.com/project-rig/rig-routing-tables/mtrie"
	"github.com/project-rig/rig-routing-tables/oc"
	"github.com/project-rig/rig-routing-tables/stream"
)

type options struct {
	inPath         string
	outPath        string
	pass           string
	targetLength   int
	dropDefaultRts bool
}

func main() {
	log.SetFlags(log.Lmicroseconds)

	opts := &options{}
	root := &cobra.Command{
		Use:   "rigminimise",
		Short: "Minimise streamed TCAM routing tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	root.Flags().StringVar(&opts.inPath, "in", "", "input table stream file (required)")
	root.Flags().StringVar(&opts.outPath, "out", "", "output table stream file (required)")
	root.Flags().StringVar(&opts.pass, "pass", "both", "minimisation pass to run: mtrie, oc, or both")
	root.Flags().IntVar(&opts.targetLength, "target", 0, "target table length for the OC pass (0 = minimise as much as possible)")
	root.Flags().BoolVar(&opts.dropDefaultRts, "drop-default-routes", false, "run the default-route pre-pass before minimising")
	root.MarkFlagRequired("in")
	root.MarkFlagRequired("out")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(opts *options) error {
	switch opts.pass {
	case "mtrie", "oc", "both":
	default:
		return fmt.Errorf("unknown pass %q: want mtrie, oc, or both", opts.pass)
	}

	in, err := os.Open(opts.inPath)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(opts.outPath)
	if err != nil {
		return fmt.Errorf("opening output: %w", err)
	}
	defer out.Close()

	tables, err := stream.ReadAll(bufio.NewReader(in))
	if err != nil {
		return fmt.Errorf("reading tables: %w", err)
	}

	w := bufio.NewWriter(out)
	mTrieOnly := opts.pass == "mtrie"

	for _, t := range tables {
		before := t.Table.Size()
		// Unbuffered, newline-deferred progress line: before and after
		// sizes on the same row, matching the original tools' output.
		fmt.Printf("(%3d, %3d)\t%4d\t", t.X, t.Y, before)

		if opts.dropDefaultRts {
			defaultroute.Minimise(t.Table)
		}

		switch opts.pass {
		case "mtrie":
			t.Table = mtrie.MinimiseTable(t.Table)
		case "oc":
			t.Table.SortByGenerality()
			oc.Minimise(t.Table, opts.targetLength, aliases.NewMap())
		case "both":
			t.Table = mtrie.MinimiseTable(t.Table)
			t.Table.SortByGenerality()
			oc.Minimise(t.Table, opts.targetLength, aliases.NewMap())
		}

		fmt.Printf("%d\n", t.Table.Size())

		if err := stream.WriteTable(w, t, mTrieOnly); err != nil {
			return fmt.Errorf("writing table (%d, %d): %w", t.X, t.Y, err)
		}
	}

	return w.Flush()
}
