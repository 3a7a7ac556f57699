package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"mudgraph/internal/world"
)

func queryStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index row counts and the last build",
		Args:  cobra.NoArgs,
		RunE:  runQueryStats,
	}
	return cmd
}

func runQueryStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	idx, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer idx.Close(ctx)

	st, err := idx.svc.Stats(ctx)
	if err != nil {
		return err
	}

	tables := make([]string, 0, len(st.Tables))
	for name := range st.Tables {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	fmt.Fprintln(os.Stdout, "Tables:")
	for _, name := range tables {
		fmt.Fprintf(os.Stdout, "  %-14s %d\n", name, st.Tables[name])
	}

	fmt.Fprintln(os.Stdout, "Entities:")
	for _, kind := range append([]world.Kind{world.KindZone}, world.EntityKinds...) {
		fmt.Fprintf(os.Stdout, "  %-14s %d\n", kind, st.Kinds[kind])
	}

	if run := st.LastRun; run != nil {
		fmt.Fprintln(os.Stdout, "Last build:")
		fmt.Fprintf(os.Stdout, "  %s %s run %s\n", run.FinishedAt.Format(time.RFC3339), run.Mode, run.ID)
		if run.Zones != "" {
			fmt.Fprintf(os.Stdout, "  zones %s\n", run.Zones)
		}
		fmt.Fprintf(os.Stdout, "  files=%d changed=%d entities=%d edges=%d errors=%d\n",
			run.FilesScanned, run.FilesChanged, run.Entities, run.Edges, run.Errors)
	}
	return nil
}
