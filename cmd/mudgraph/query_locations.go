package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func queryLocationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locations <object-vnum>",
		Short: "List where an object loads, most likely first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryLocations(cmd, args[0])
		},
	}
	return cmd
}

func runQueryLocations(cmd *cobra.Command, vnumArg string) error {
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

	locs, err := idx.svc.LoadLocations(ctx, vnum)
	if err != nil {
		return err
	}
	if len(locs) == 0 {
		fmt.Fprintf(os.Stdout, "No load locations found for object %d.\n", vnum)
		return nil
	}

	for _, loc := range locs {
		fmt.Fprintf(os.Stdout, "[zone %d] %s\n", loc.Zone, loc)
	}
	return nil
}
