package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func queryZoneCmd() *cobra.Command {
	var hint int
	cmd := &cobra.Command{
		Use:   "zone <vnum>",
		Short: "Find the zone that owns a vnum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var hintp *int
			if cmd.Flags().Changed("hint") {
				hintp = &hint
			}
			return runQueryZone(cmd, args[0], hintp)
		},
	}
	cmd.Flags().IntVar(&hint, "hint", 0, "Zone the caller already knows")
	return cmd
}

func runQueryZone(cmd *cobra.Command, vnumArg string, hint *int) error {
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

	zone, err := idx.svc.ResolveZone(ctx, vnum, hint)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, zone)
	return nil
}
