package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mudgraph/internal/config"
	"mudgraph/internal/logging"
)

var (
	configPath string
	worldRoot  string
	dsnFlag    string
	logPath    string
	verbose    bool

	cfg    *config.ProjectConfig
	logger *zap.Logger
)

func main() {
	root := &cobra.Command{
		Use:   "mudgraph",
		Short: "Index a MUD world tree and answer questions about it",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadProjectConfig(configPath)
			if err != nil {
				return err
			}
			if logPath != "" {
				cfg.Log.Path = logPath
			}
			logger, err = logging.New(logging.Options{
				Level:   cfg.Log.Level,
				Verbose: verbose,
				Path:    cfg.Log.Path,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().StringVar(&configPath, "config", "mudgraph.yaml", "Project config file")
	root.PersistentFlags().StringVar(&worldRoot, "root", "", "World root directory (overrides config)")
	root.PersistentFlags().StringVar(&dsnFlag, "db", "", "Index DSN, sqlite:// path or postgres:// URL (overrides config)")
	root.PersistentFlags().StringVar(&logPath, "log", "", "Also write logs to this file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(buildCmd())
	root.AddCommand(watchCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(initCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
