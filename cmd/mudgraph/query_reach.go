package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mudgraph/internal/reach"
)

func queryReachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reach <object-vnum>",
		Short: "Decide whether an object can be obtained and how likely it is",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryReach(cmd, args[0])
		},
	}
	return cmd
}

func runQueryReach(cmd *cobra.Command, vnumArg string) error {
	ctx := context.Background()

	vnum, err := parseVnum(vnumArg)
	if err != nil {
		return err
	}

	idx, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer idx.Close(ctx)

	res, err := idx.svc.Reach(ctx, vnum)
	if err != nil {
		return err
	}
	printReach(res)
	return nil
}

func printReach(res *reach.Result) {
	fmt.Fprintf(os.Stdout, "Object:      %d\n", res.Vnum)
	fmt.Fprintf(os.Stdout, "Reachable:   %t\n", res.Reachable)
	fmt.Fprintf(os.Stdout, "Basis:       %s\n", res.Basis)
	if res.Basis == reach.BasisHeuristic {
		fmt.Fprintf(os.Stdout, "Tier:        %s\n", res.Tier)
	} else {
		fmt.Fprintf(os.Stdout, "Probability: %.2f%%\n", res.Probability)
	}
	fmt.Fprintf(os.Stdout, "Explanation: %s\n", res.Explanation)

	if len(res.Via) > 0 {
		fmt.Fprintln(os.Stdout, "Via:")
		for _, e := range res.Via {
			fmt.Fprintf(os.Stdout, "  - %s\n", formatEdge(e))
		}
	}
	if len(res.Hints) > 0 {
		fmt.Fprintln(os.Stdout, "Hints:")
		for _, h := range res.Hints {
			fmt.Fprintf(os.Stdout, "  - %s [%s]: %s\n", formatRef(h.Source), h.Tier, h.Reason)
		}
	}
}
