// Package main is the entry point for the exlang CLI tool.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/szaher/exlang/internal/config"
	"github.com/szaher/exlang/internal/optimizer/dynamic"
	"github.com/szaher/exlang/internal/telemetry"
)

// Version information set at build time.
var version = "0.1.0"

// Global flags.
var (
	configFile string
	verbose    bool
)

var (
	cfg    *config.Config
	policy *dynamic.Optimizer
	logger *slog.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "exlang",
		Short: "Expression evaluation with adaptive accessor optimization",
		Long: `exlang resolves property expressions against typed contexts and
variable scopes. Hot expressions are promoted to specialized accessors
tuned to the observed context types, and demoted again when the types
change.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newEvalCmd())
	root.AddCommand(newBenchCmd())

	return root
}

// setup loads configuration and installs the dynamic optimizer tier.
func setup() error {
	var err error
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	logger = telemetry.NewLogger(os.Stderr, level)

	policy = dynamic.New()
	cfg.Apply(policy)
	policy.SetLogger(logger)
	dynamic.Install(policy)
	return nil
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
