package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mudgraph/internal/ingest"
)

func watchCmd() *cobra.Command {
	var flags buildFlags
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the index up to date while the world tree is edited",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}
			return runWatch(cmd, opts, debounce)
		},
	}
	flags.register(cmd, false)
	cmd.Flags().DurationVar(&debounce, "debounce", ingest.DefaultDebounce, "Quiet period before a changed zone is rebuilt")
	return cmd
}

func runWatch(cmd *cobra.Command, opts ingest.Options, debounce time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader, err := openWorld()
	if err != nil {
		return err
	}

	db, err := openStore(ctx, storeDSN(reader))
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	w, err := ingest.NewWatcher(reader, db, opts, ingest.WatchOptions{
		Debounce: debounce,
		OnBuild: func(res *ingest.Result, err error) {
			if err != nil || res == nil {
				return
			}
			fmt.Fprintf(os.Stdout, "%s %s\n", time.Now().Format(time.TimeOnly), res)
		},
	}, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Watching %s (Ctrl-C to stop).\n", reader.Root())
	return w.Run(ctx)
}
