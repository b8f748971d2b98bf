package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/anima-assets/engine"
)

const (
	configFlag   = "config"
	logLevelFlag = "log-level"
	basePathFlag = "base-path"
)

// Execute runs the root command, called by main.main().
func Execute() {
	if err := New().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anima-assets [sub-command]",
		Short: "Load, inspect and hot reload game assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	cmd.PersistentFlags().String(configFlag, "", `Path to a TOML configuration file.`)
	cmd.PersistentFlags().String(logLevelFlag, "", `Log level (debug, info, warn, error), overriding the config file value.`)
	cmd.PersistentFlags().String(basePathFlag, "", `Directory relative identifiers are resolved against, overriding the config file value.`)

	cmd.AddCommand(newLoadCmd(), newWatchCmd())
	return cmd
}

// configFromFlags reads the config file, if any, and applies flag overrides.
func configFromFlags(cmd *cobra.Command) (*engine.Config, error) {
	cfg := engine.DefaultConfig()
	if path, _ := cmd.Flags().GetString(configFlag); path != "" {
		var err error
		if cfg, err = engine.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if lvl, _ := cmd.Flags().GetString(logLevelFlag); lvl != "" {
		cfg.Log.Level = lvl
	}
	if base, _ := cmd.Flags().GetString(basePathFlag); base != "" {
		cfg.Fetch.BasePath = base
	}
	return cfg, nil
}

func startEngine(cfg *engine.Config) (*engine.Engine, error) {
	e, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := e.Initialize(); err != nil {
		return nil, err
	}
	return e, nil
}
