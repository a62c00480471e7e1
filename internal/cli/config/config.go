package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marketlab/config"
)

func New(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate configuration files",
		Long: `Manage backtest configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  marketlab config init -o backtest.yaml
  marketlab config validate -f backtest.yaml`,
	}

	cmd.AddCommand(newInitCmd(), newValidateCmd(rc))
	return cmd
}

func newInitCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if err := cfg.SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Created default configuration: %s\n", output)
			fmt.Fprintln(out, "\nEdit the file and run with:")
			fmt.Fprintf(out, "  marketlab backtest --config %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "backtest.yaml", "output config file path")
	return cmd
}

func newValidateCmd(rc *RootConfig) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = rc.ConfigPath
			}
			if path == "" {
				return fmt.Errorf("--file (or --config) is required")
			}

			cfg, err := config.LoadFromFile(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Configuration is valid: %s\n", path)
			fmt.Fprintf(out, "  Panel:    %s\n", cfg.Panel.Path)
			fmt.Fprintf(out, "  Cash:     %.2f\n", cfg.Account.InitialCash)
			fmt.Fprintf(out, "  Costs:    fee %.2f bps, slippage %.2f bps, fixed %.2f\n",
				cfg.Costs.FeeBps, cfg.Costs.SlippageBps, cfg.Costs.FixedPerTrade)
			fmt.Fprintf(out, "  Strategy: %s %s\n", cfg.Strategy.Policy, cfg.Strategy.Interval)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "path to config file (defaults to --config)")
	return cmd
}
