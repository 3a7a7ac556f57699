package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mudgraph/internal/world"
)

func querySearchCmd() *cobra.Command {
	var kindArg string
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search entities by name, keywords and short description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuerySearch(cmd, strings.Join(args, " "), kindArg)
		},
	}
	cmd.Flags().StringVar(&kindArg, "kind", "", "Entity kind to filter")
	return cmd
}

func runQuerySearch(cmd *cobra.Command, text, kindArg string) error {
	ctx := context.Background()

	var kind world.Kind
	if kindArg != "" {
		k, err := world.ParseKind(kindArg)
		if err != nil {
			return err
		}
		kind = k
	}

	idx, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer idx.Close(ctx)

	results, err := idx.svc.Search(ctx, text, kind)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stdout, "No matches found.")
		return nil
	}

	for _, r := range results {
		fmt.Fprintf(os.Stdout, "%s %d %s [zone %d] score=%.2f\n", r.Kind, r.Vnum, r.Name, r.Zone, r.Score)
	}
	return nil
}
