package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"poser-sync/internal/config"
	"poser-sync/internal/logging"
	"poser-sync/internal/skeleton"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
	dataDir    string
	dbPath     string
	logLevel   string
	workers    int
}

// load resolves configuration with flag overrides and builds the logger.
func (o *rootOptions) load() (config.Config, zerolog.Logger, error) {
	cfg, err := config.FromEnvironment(o.configFile)
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	cfg.Resolve(config.Flags{
		BaseDir:  o.dataDir,
		DBPath:   o.dbPath,
		LogLevel: o.logLevel,
		Workers:  o.workers,
	})
	return cfg, logging.New(cfg.Env, cfg.LogLevel), nil
}

// loadCatalog returns the configured catalog, or the built-in one.
func loadCatalog(cfg config.Config) (*skeleton.Catalog, error) {
	if cfg.CatalogXML == "" {
		return skeleton.Default(), nil
	}
	return skeleton.LoadXML(cfg.CatalogXML)
}

func NewPoserCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "poser",
		Short:         "Pose characters and keep poses in sync with collaborators",
		SilenceUsage:  true,
		SilenceErrors: false,
		Example: `  poser relay
  poser peer --ask 6f1c0e52-7b9e-4b8e-9a57-2a1d4f9f0c11
  poser pose list`,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "poser.json", "Path to config JSON file")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data", "", "Base directory for relative paths (default: auto-detect)")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Pose database path (default: <data>/poses.db)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().IntVar(&opts.workers, "workers", 0, "Worker goroutines for bulk export (default: NumCPU)")

	cmd.AddCommand(
		newCatalogCommand(opts),
		newWireCommand(),
		newRelayCommand(opts),
		newPeerCommand(opts),
		newPoseCommand(opts),
	)

	return cmd
}

func main() {
	cmd := NewPoserCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
