package panel

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marketlab/internal/cli/config"
	"github.com/rustyeddy/marketlab/market"
)

func New(rc *config.RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Build and inspect close panels",
	}
	cmd.AddCommand(newBuildCmd(rc), newCheckCmd())
	return cmd
}

func newBuildCmd(rc *config.RootConfig) *cobra.Command {
	var dir, out string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Inner-join per-asset close files into one panel",
		Long: `Build reads every <TICKER>.csv in --dir (Date and close columns), keeps
only the dates every asset priced, and writes a validated panel CSV.

Example:
  marketlab panel build --dir data/raw --out data/panel_close.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := market.BuildPanel(dir)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create panel: %w", err)
			}
			if err := p.WriteCSV(f); err != nil {
				f.Close()
				return fmt.Errorf("write panel: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}

			if rc.Logger != nil {
				rc.Logger.Info("panel built", "dir", dir, "out", out, "assets", p.Assets().Len(), "days", p.Len())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s: %d assets × %d days (%s .. %s)\n",
				out, p.Assets().Len(), p.Len(),
				p.First().Format(market.DateLayout), p.Last().Format(market.DateLayout))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory of per-asset CSV files (required)")
	cmd.Flags().StringVar(&out, "out", "panel_close.csv", "output panel CSV")
	cmd.MarkFlagRequired("dir")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <panel.csv>",
		Short: "Validate a panel and print its shape",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := market.LoadPanelCSV(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Panel is valid: %s\n", args[0])
			fmt.Fprintf(out, "  Assets: %v\n", p.Assets())
			fmt.Fprintf(out, "  Days:   %d (%s .. %s)\n", p.Len(),
				p.First().Format(market.DateLayout), p.Last().Format(market.DateLayout))
			return nil
		},
	}
}
