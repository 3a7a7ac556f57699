package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func queryCmdsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cmds <zone>",
		Short: "Show a zone's reset commands as indexed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryCmds(cmd, args[0])
		},
	}
	return cmd
}

func runQueryCmds(cmd *cobra.Command, zoneArg string) error {
	ctx := context.Background()

	zone, err := parseVnum(zoneArg)
	if err != nil {
		return err
	}

	idx, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer idx.Close(ctx)

	cmds, err := idx.svc.ZoneCommands(ctx, zone)
	if err != nil {
		return err
	}
	if len(cmds) == 0 {
		fmt.Fprintf(os.Stdout, "No reset commands found for zone %d.\n", zone)
		return nil
	}

	for _, c := range cmds {
		fmt.Fprintf(os.Stdout, "%4d  %s  if=%s arg1=%s arg2=%s arg3=%s prob=%s\n",
			c.Index, c.Code, formatOptInt(c.IfFlag), formatOptInt(c.Arg1), formatOptInt(c.Arg2), formatOptInt(c.Arg3), formatOptInt(c.Prob))
	}
	return nil
}
