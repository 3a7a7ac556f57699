package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mudgraph/internal/config"
)

func initCmd() *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter project config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(configPath, worldRoot, dsn)
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "Index DSN to record (default: sqlite file under the world root)")
	return cmd
}

func runInit(path, root, dsn string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	project := config.Default()
	if root != "" {
		project.World.Root = root
	}
	project.Database.DSN = dsn
	if err := config.Validate(project); err != nil {
		return err
	}

	contents, err := yaml.Marshal(project)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(os.Stdout, "Wrote %s.\n", path)
	return nil
}
