package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mudgraph/internal/config"
	"mudgraph/internal/ingest"
)

// buildFlags are shared by build and watch. Flags override the config
// only when given.
type buildFlags struct {
	zones    string
	full     bool
	hash     bool
	workers  int
	batch    int
	deepRefs string
	raw      bool
}

func (f *buildFlags) register(cmd *cobra.Command, withFull bool) {
	cmd.Flags().StringVar(&f.zones, "zones", "", `Zones to index, e.g. "134", "134,712" or "1-500,900"`)
	if withFull {
		cmd.Flags().BoolVar(&f.full, "full", false, "Drop the index and rebuild every selected zone")
	}
	cmd.Flags().BoolVar(&f.hash, "hash", false, "Detect changes by content hash instead of mtime and size")
	cmd.Flags().IntVar(&f.workers, "workers", config.DefaultWorkers, "Parallel file parsers")
	cmd.Flags().IntVar(&f.batch, "batch", config.DefaultBatchSize, "Rows per write batch")
	cmd.Flags().StringVar(&f.deepRefs, "deep-refs", config.DeepRefsScripts, "Deep reference scan: scripts, all or none")
	cmd.Flags().BoolVar(&f.raw, "raw", false, "Keep the raw JSON of every entity")
}

func (f *buildFlags) options(cmd *cobra.Command) (ingest.Options, error) {
	opts := ingest.OptionsFromConfig(cfg)
	zones, err := config.ParseZoneSpec(f.zones)
	if err != nil {
		return opts, err
	}
	opts.Zones = zones
	opts.Full = f.full

	flags := cmd.Flags()
	if flags.Changed("hash") && f.hash {
		opts.Detection = config.DetectHash
	}
	if flags.Changed("workers") {
		opts.Workers = f.workers
	}
	if flags.Changed("batch") {
		opts.BatchSize = f.batch
	}
	if flags.Changed("deep-refs") {
		switch f.deepRefs {
		case config.DeepRefsScripts, config.DeepRefsAll, config.DeepRefsNone:
			opts.DeepRefs = f.deepRefs
		default:
			return opts, fmt.Errorf("unknown --deep-refs mode: %q", f.deepRefs)
		}
	}
	if flags.Changed("raw") {
		opts.StoreRaw = f.raw
	}
	if opts.Workers <= 0 || opts.BatchSize <= 0 {
		return opts, fmt.Errorf("--workers and --batch must be positive")
	}
	return opts, nil
}

func buildCmd() *cobra.Command {
	var flags buildFlags
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build or incrementally refresh the index from the world tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}
			return runBuild(cmd, opts)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func runBuild(cmd *cobra.Command, opts ingest.Options) error {
	ctx := context.Background()

	reader, err := openWorld()
	if err != nil {
		return err
	}

	db, err := openStore(ctx, storeDSN(reader))
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	result, err := ingest.Run(ctx, reader, db, opts, logger)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Build complete.")
	fmt.Fprintf(os.Stdout, "  Zones:          %d\n", result.Zones)
	fmt.Fprintf(os.Stdout, "  Files scanned:  %d\n", result.FilesScanned)
	fmt.Fprintf(os.Stdout, "  Files changed:  %d\n", result.FilesChanged)
	fmt.Fprintf(os.Stdout, "  Files removed:  %d\n", result.FilesRemoved)
	fmt.Fprintf(os.Stdout, "  Entities:       %d\n", result.Entities)
	fmt.Fprintf(os.Stdout, "  Edges:          %d\n", result.Edges)
	fmt.Fprintf(os.Stdout, "  Zone commands:  %d\n", result.ZoneCommands)
	fmt.Fprintf(os.Stdout, "  References:     %d\n", result.Refs)
	fmt.Fprintf(os.Stdout, "  Elapsed:        %s\n", result.Elapsed.Round(time.Millisecond))

	if result.Errors > 0 {
		fmt.Fprintf(os.Stdout, "\n%d file(s) could not be parsed; run `mudgraph validate` for details.\n", result.Errors)
	}
	return nil
}
