package main

import (
	"cosmossdk.io/log"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/go-ismrmrd/internal/config"
	"github.com/robert-malhotra/go-ismrmrd/ismrmrd"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var configPath, logLevel string

	root := &cobra.Command{
		Use:           "ismrmrd",
		Short:         "Inspect and generate ISMRMRD datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level = logLevel
			}
			logger, err := cfg.NewLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "ismrmrd.yaml", "YAML configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	root.AddCommand(
		a.infoCmd(),
		a.dumpCmd(),
		a.statsCmd(),
		a.generateCmd(),
		a.exportCmd(),
		a.importCmd(),
	)
	return root
}

// datasetPath returns the optional second argument or the configured path.
func (a *app) datasetPath(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return a.cfg.Dataset.Path
}

func (a *app) openDataset(filename, path string) (*ismrmrd.Dataset, error) {
	return ismrmrd.OpenDataset(filename, path, ismrmrd.ReadOnly,
		ismrmrd.WithFileOptions(a.cfg.FileOptions(a.logger)...))
}
