package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func queryEdgesCmd() *cobra.Command {
	var relation string
	var incoming bool
	cmd := &cobra.Command{
		Use:   "edges <kind> <vnum>",
		Short: "List edges leaving (or with --to, arriving at) an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryEdges(cmd, args[0], args[1], relation, incoming)
		},
	}
	cmd.Flags().StringVar(&relation, "relation", "", "Relation to filter")
	cmd.Flags().BoolVar(&incoming, "to", false, "List incoming edges instead of outgoing")
	return cmd
}

func runQueryEdges(cmd *cobra.Command, kindArg, vnumArg, relation string, incoming bool) error {
	ctx := context.Background()

	kind, vnum, err := parseKindVnum(kindArg, vnumArg)
	if err != nil {
		return err
	}

	idx, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer idx.Close(ctx)

	list := idx.svc.EdgesFrom
	if incoming {
		list = idx.svc.EdgesTo
	}
	edges, err := list(ctx, kind, vnum, relation)
	if err != nil {
		return err
	}
	if len(edges) == 0 {
		fmt.Fprintln(os.Stdout, "No edges found.")
		return nil
	}

	for _, e := range edges {
		fmt.Fprintf(os.Stdout, "%s (zone %d, %s)\n", formatEdge(e), e.Zone, e.SourcePath)
	}
	return nil
}
