package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fuersten/statemachine/internal/config"
	"github.com/fuersten/statemachine/internal/logging"
)

// app carries the settings resolved before a subcommand runs.
type app struct {
	version string

	envFile   string
	logLevel  string
	logFormat string
	name      string

	cfg config.Config
	log zerolog.Logger
}

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	a := &app{version: version}

	rootCmd := &cobra.Command{
		Use:   "countingsm",
		Short: "Counting state machine demo",
		Long: `countingsm drives the counting state machine through its reference scenario
and exports its transition table.

Settings are read from STATEMACHINE_* environment variables, an optional .env
file and the flags below, in increasing order of precedence.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.resolve(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&a.name, "name", "", "machine name")

	rootCmd.AddCommand(newRunCommand(a))
	rootCmd.AddCommand(newGraphCommand(a))
	rootCmd.AddCommand(newTableCommand(a))

	return rootCmd
}

func (a *app) resolve(cmd *cobra.Command) error {
	var files []string
	if a.envFile != "" {
		files = append(files, a.envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	if flags.Changed("name") {
		cfg.Name = a.name
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	return nil
}
