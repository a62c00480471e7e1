package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marketlab/internal/cli/backtest"
	"github.com/rustyeddy/marketlab/internal/cli/config"
	"github.com/rustyeddy/marketlab/internal/cli/journal"
	"github.com/rustyeddy/marketlab/internal/cli/panel"
)

const version = "0.1.0"

func NewRootCmd() *cobra.Command {
	rc := &config.RootConfig{}

	cmd := &cobra.Command{
		Use:           "marketlab",
		Short:         "Marketlab: daily-close portfolio backtests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&rc.DBPath, "db", "", "SQLite journal database (overrides journal.db_path)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return rc.SetupLogger(cmd.ErrOrStderr())
	}

	// Subcommands
	cmd.AddCommand(
		backtest.New(rc),
		config.New(rc),
		journal.New(rc),
		panel.New(rc),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "marketlab version %s\n", version)
		},
	})

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
