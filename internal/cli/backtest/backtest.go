package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marketlab/backtest"
	"github.com/rustyeddy/marketlab/config"
	cliconfig "github.com/rustyeddy/marketlab/internal/cli/config"
	"github.com/rustyeddy/marketlab/journal"
	"github.com/rustyeddy/marketlab/market"
	"github.com/rustyeddy/marketlab/pkg/id"
	"github.com/rustyeddy/marketlab/report"
)

// overrides are the flags that replace config file values when set.
type overrides struct {
	panel       string
	initialCash float64
	feeBps      float64
	slippageBps float64
	fixed       float64
	policy      string
	interval    string
	outEquity   string
	outTrades   string
	summary     string
	reportDir   string
	notes       []string
}

func New(rc *cliconfig.RootConfig) *cobra.Command {
	var o overrides
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run an equal-weight backtest over a close panel",
		Long: `Backtest replays a rebalance policy over a daily close panel and writes
the trade ledger, the equity curve and a summary.

Policies:
  - periodic:     equal-weight rebalance on the first trading day of each
                  interval (monthly, quarterly, yearly, weekly)
  - buy-and-hold: one equal-weight entry on the first day, held to the end

Example:
  marketlab backtest --panel data/panel_close.csv --fee-bps 5 --slippage-bps 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rc.Load()
			if err != nil {
				return err
			}
			o.apply(cmd, cfg)
			if rc.DBPath != "" {
				cfg.Journal.DBPath = rc.DBPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			run, err := Run(cmd.Context(), cfg, rc, o.notes)
			if err != nil {
				return err
			}

			backtest.PrintRun(cmd.OutOrStdout(), run)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.panel, "panel", def.Panel.Path, "close panel CSV (Date + one column per asset)")
	f.Float64Var(&o.initialCash, "initial", def.Account.InitialCash, "initial cash")
	f.Float64Var(&o.feeBps, "fee-bps", def.Costs.FeeBps, "variable fee in basis points of notional")
	f.Float64Var(&o.slippageBps, "slippage-bps", def.Costs.SlippageBps, "slippage in basis points of price")
	f.Float64Var(&o.fixed, "fixed", def.Costs.FixedPerTrade, "fixed charge per trade")
	f.StringVar(&o.policy, "policy", def.Strategy.Policy, "rebalance policy: periodic|buy-and-hold")
	f.StringVar(&o.interval, "interval", def.Strategy.Interval, "periodic interval: monthly|quarterly|yearly|weekly")
	f.StringVar(&o.outEquity, "out-equity", def.Journal.EquityFile, "equity curve CSV")
	f.StringVar(&o.outTrades, "out-trades", def.Journal.TradesFile, "trade ledger CSV")
	f.StringVar(&o.summary, "summary", def.Journal.SummaryFile, "summary JSON (optional)")
	f.StringVar(&o.reportDir, "report-dir", def.Report.Dir, "write markdown report and charts to this directory (optional)")
	f.StringArrayVar(&o.notes, "note", nil, "free-form note stored with the run (repeatable)")

	return cmd
}

// apply copies every explicitly set flag over the loaded config.
func (o *overrides) apply(cmd *cobra.Command, cfg *config.Config) {
	set := cmd.Flags().Changed
	if set("panel") {
		cfg.Panel.Path = o.panel
	}
	if set("initial") {
		cfg.Account.InitialCash = o.initialCash
	}
	if set("fee-bps") {
		cfg.Costs.FeeBps = o.feeBps
	}
	if set("slippage-bps") {
		cfg.Costs.SlippageBps = o.slippageBps
	}
	if set("fixed") {
		cfg.Costs.FixedPerTrade = o.fixed
	}
	if set("policy") {
		cfg.Strategy.Policy = o.policy
	}
	if set("interval") {
		cfg.Strategy.Interval = o.interval
	}
	if set("out-equity") {
		cfg.Journal.EquityFile = o.outEquity
	}
	if set("out-trades") {
		cfg.Journal.TradesFile = o.outTrades
	}
	if set("summary") {
		cfg.Journal.SummaryFile = o.summary
	}
	if set("report-dir") {
		cfg.Report.Dir = o.reportDir
	}
}

// Run executes one backtest described by cfg and writes every configured
// output. Nothing is written unless the simulation completes.
func Run(ctx context.Context, cfg *config.Config, rc *cliconfig.RootConfig, notes []string) (journal.BacktestRun, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log := rc.Logger

	panel, err := market.LoadPanelCSV(cfg.Panel.Path)
	if err != nil {
		return journal.BacktestRun{}, err
	}
	if log != nil {
		log.Info("panel loaded",
			"path", cfg.Panel.Path,
			"assets", panel.Assets().Len(),
			"days", panel.Len(),
			"start", panel.First().Format(market.DateLayout),
			"end", panel.Last().Format(market.DateLayout),
		)
	}

	costs, err := backtest.NewCostModel(cfg.Costs.FeeBps, cfg.Costs.SlippageBps, cfg.Costs.FixedPerTrade)
	if err != nil {
		return journal.BacktestRun{}, err
	}
	policy, err := backtest.ParsePolicy(cfg.Strategy.Policy, cfg.Strategy.Interval)
	if err != nil {
		return journal.BacktestRun{}, err
	}

	bcfg := backtest.Config{
		InitialCash: cfg.Account.InitialCash,
		Costs:       costs,
		Policy:      policy,
		Logger:      log,
	}
	engine, err := backtest.NewEngine(panel, bcfg)
	if err != nil {
		return journal.BacktestRun{}, err
	}

	res, err := engine.Run(ctx)
	if err != nil {
		return journal.BacktestRun{}, fmt.Errorf("backtest: %w", err)
	}

	created := time.Now().UTC()
	run := backtest.NewBacktestRun(id.NewRun(created), created, cfg.Panel.Path, cfg.Costs, bcfg, res)
	run.Notes = notes

	if err := writeCSV(cfg, panel.Assets(), res); err != nil {
		return run, err
	}
	if cfg.Journal.DBPath != "" {
		if err := writeSQLite(ctx, cfg.Journal.DBPath, run, res); err != nil {
			return run, err
		}
	}
	if cfg.Journal.SummaryFile != "" {
		if err := backtest.WriteSummaryJSON(cfg.Journal.SummaryFile, res.Summary); err != nil {
			return run, err
		}
	}
	if cfg.Report.Dir != "" {
		if err := report.New(run, res.Equity, panel).Write(cfg.Report.Dir); err != nil {
			return run, fmt.Errorf("report: %w", err)
		}
	}

	return run, nil
}

func writeCSV(cfg *config.Config, assets market.Universe, res *backtest.Result) error {
	j, err := journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile, assets)
	if err != nil {
		return fmt.Errorf("create csv journal: %w", err)
	}
	if err := res.Write(j); err != nil {
		j.Close()
		return err
	}
	return j.Close()
}

func writeSQLite(ctx context.Context, path string, run journal.BacktestRun, res *backtest.Result) error {
	j, err := journal.NewSQLite(path)
	if err != nil {
		return fmt.Errorf("open journal db: %w", err)
	}
	if err := j.RecordRun(ctx, run); err != nil {
		j.Abort()
		return fmt.Errorf("record run: %w", err)
	}
	if err := res.Write(j); err != nil {
		j.Abort()
		return err
	}
	return j.Close()
}
