package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mudgraph/internal/world"
)

func queryListCmd() *cobra.Command {
	var kindArg string
	var zone int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed entities of one kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var zonep *int
			if cmd.Flags().Changed("zone") {
				zonep = &zone
			}
			return runQueryList(cmd, kindArg, zonep)
		},
	}
	cmd.Flags().StringVar(&kindArg, "kind", string(world.KindObject), "Entity kind to list")
	cmd.Flags().IntVar(&zone, "zone", 0, "Zone to filter")
	return cmd
}

func runQueryList(cmd *cobra.Command, kindArg string, zone *int) error {
	ctx := context.Background()

	kind, err := world.ParseKind(kindArg)
	if err != nil {
		return err
	}

	idx, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer idx.Close(ctx)

	entities, err := idx.svc.ListEntities(ctx, kind, zone)
	if err != nil {
		return err
	}
	if len(entities) == 0 {
		fmt.Fprintln(os.Stdout, "No entities found.")
		return nil
	}

	for _, e := range entities {
		fmt.Fprintf(os.Stdout, "%d %s [zone %d]\n", e.Vnum, e.Name, e.Zone)
	}
	return nil
}
