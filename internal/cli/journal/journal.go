package journal

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marketlab/backtest"
	"github.com/rustyeddy/marketlab/internal/cli/config"
	"github.com/rustyeddy/marketlab/journal"
	"github.com/rustyeddy/marketlab/market"
	"github.com/rustyeddy/marketlab/report"
)

func New(rc *config.RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query stored backtest runs",
		Long: `Query backtest runs recorded in the SQLite journal (--db).

Subcommands:
  runs            - List every run, oldest first
  show <run-id>   - Print one run's summary
  trades <run-id> - Print one run's trade ledger
  report <run-id> - Re-render the markdown report and charts for a run

Examples:
  marketlab journal runs --db marketlab.sqlite
  marketlab journal report 01HZ... --out reports/01HZ`,
	}

	cmd.AddCommand(
		newRunsCmd(rc),
		newShowCmd(rc),
		newTradesCmd(rc),
		newReportCmd(rc),
	)
	return cmd
}

func open(rc *config.RootConfig) (*journal.SQLiteJournal, error) {
	path := rc.DBPath
	if path == "" {
		cfg, err := rc.Load()
		if err != nil {
			return nil, err
		}
		path = cfg.Journal.DBPath
	}
	if path == "" {
		return nil, fmt.Errorf("--db is required")
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func newRunsCmd(rc *config.RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open(rc)
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.ListRuns(cmd.Context())
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RUN ID\tPOLICY\tSTART\tEND\tTRADES\tEND EQUITY\tCAGR %\tMAX DD %")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2f\t%.2f\t%.2f\n",
					r.RunID, r.Policy,
					r.Start.Format(market.DateLayout), r.End.Format(market.DateLayout),
					r.Trades, r.EndEquity, r.CAGRPct, r.MaxDDPct)
			}
			return w.Flush()
		},
	}
}

func newShowCmd(rc *config.RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print one run's summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open(rc)
			if err != nil {
				return err
			}
			defer j.Close()

			run, err := j.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			backtest.PrintRun(cmd.OutOrStdout(), run)
			return nil
		},
	}
}

func newTradesCmd(rc *config.RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "trades <run-id>",
		Short: "Print one run's trade ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open(rc)
			if err != nil {
				return err
			}
			defer j.Close()

			if _, err := j.GetRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			trades, err := j.ListTradesByRunID(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("list trades: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tASSET\tSIDE\tQTY\tPRICE\tNOTIONAL\tFEES")
			for _, t := range trades {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.6f\t%.4f\t%.2f\t%.4f\n",
					t.Date.Format(market.DateLayout), t.Asset, t.Side,
					t.Qty, t.Price, t.Notional, t.FeeTotal)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d trades\n", len(trades))
			return nil
		},
	}
}

func newReportCmd(rc *config.RootConfig) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "report <run-id>",
		Short: "Re-render the report for a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open(rc)
			if err != nil {
				return err
			}
			defer j.Close()

			run, err := j.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			equity, err := j.ListEquityByRunID(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load equity: %w", err)
			}

			dir := out
			if dir == "" {
				dir = run.RunID
			}
			if err := report.New(run, equity, nil).Write(dir); err != nil {
				return fmt.Errorf("report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Report written to %s\n", dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (defaults to the run id)")
	return cmd
}
