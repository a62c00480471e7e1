// Package report renders a finished backtest for people: a markdown page,
// JSON summaries and PNG charts of the equity curve.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/rustyeddy/marketlab/backtest"
	"github.com/rustyeddy/marketlab/journal"
	"github.com/rustyeddy/marketlab/market"
)

// Output file names inside the report directory.
const (
	SummaryFile  = "summary.json"
	MarketFile   = "market.json"
	MarkdownFile = "report.md"
	EquityPNG    = "equity.png"
	DrawdownPNG  = "drawdown.png"
	RollingPNG   = "rolling_vol.png"
)

// Move is one asset's last close and last daily return.
type Move struct {
	Asset  string  `json:"asset"`
	Close  float64 `json:"close"`
	Return float64 `json:"return"`
}

// Report is everything needed to render one run.
type Report struct {
	Run     journal.BacktestRun
	Equity  []journal.EquitySnapshot
	Summary backtest.Summary
	Moves   []Move   // best first; empty without a panel
	Charts  []string // chart files written by Write
}

// New builds a report. panel may be nil, e.g. when re-rendering a stored run.
func New(run journal.BacktestRun, equity []journal.EquitySnapshot, panel *market.Panel) *Report {
	r := &Report{
		Run:     run,
		Equity:  equity,
		Summary: backtest.Summarize(equity),
	}
	if panel != nil {
		r.Moves = lastMoves(panel)
	}
	return r
}

func lastMoves(p *market.Panel) []Move {
	last := p.Len() - 1
	returns := p.Returns()
	moves := make([]Move, p.Assets().Len())
	for a, name := range p.Assets() {
		m := Move{Asset: name, Close: p.Close(last, a)}
		if len(returns) > 0 {
			m.Return = returns[len(returns)-1][a]
		}
		moves[a] = m
	}
	sort.SliceStable(moves, func(i, j int) bool { return moves[i].Return > moves[j].Return })
	return moves
}

// AsOf is the last equity date, or the run end when there is no curve.
func (r *Report) AsOf() string {
	if n := len(r.Equity); n > 0 {
		return r.Equity[n-1].Date.Format(market.DateLayout)
	}
	return r.Run.End.Format(market.DateLayout)
}

// Write renders every artifact into dir, creating it if needed.
func (r *Report) Write(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	if err := backtest.WriteSummaryJSON(filepath.Join(dir, SummaryFile), r.Summary); err != nil {
		return err
	}
	if len(r.Moves) > 0 {
		if err := r.writeMarket(filepath.Join(dir, MarketFile)); err != nil {
			return err
		}
	}

	charts, err := writeCharts(dir, r.Equity)
	if err != nil {
		return err
	}
	r.Charts = charts

	var buf bytes.Buffer
	if err := r.WriteMarkdown(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, MarkdownFile), buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

func (r *Report) writeMarket(path string) error {
	doc := struct {
		AsOf   string   `json:"asof"`
		Assets []string `json:"assets"`
		Moves  []Move   `json:"moves"`
	}{r.AsOf(), r.Run.Universe, r.Moves}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal market summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write market summary: %w", err)
	}
	return nil
}

var markdownFuncs = template.FuncMap{
	"pct":    func(x float64) string { return fmt.Sprintf("%.2f%%", x*100) },
	"f2":     func(x float64) string { return fmt.Sprintf("%.2f", x) },
	"finite": func(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) },
}

var markdownTmpl = template.Must(template.New("report").Funcs(markdownFuncs).Parse(MarkdownTemplate))

func (r *Report) WriteMarkdown(w io.Writer) error {
	if err := markdownTmpl.Execute(w, r); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	return nil
}

const MarkdownTemplate = `# marketlab backtest report ({{.AsOf}})

| Property     | Value |
|--------------|-------|
| Run ID       | {{if .Run.RunID}}{{.Run.RunID}}{{else}}(unsaved){{end}} |
| Policy       | {{.Run.Policy}} |
| Dataset      | {{.Run.Dataset}} |
| Period       | {{.Run.Start.Format "2006-01-02"}} .. {{.Run.End.Format "2006-01-02"}} |
| Initial cash | {{f2 .Run.InitialCash}} |
| Costs        | fee {{f2 .Run.FeeBps}} bps, slippage {{f2 .Run.SlippageBps}} bps, fixed {{f2 .Run.FixedPerTrade}} |
| Trades       | {{.Run.Trades}} |

## Universe ({{len .Run.Universe}} assets)

{{range $i, $a := .Run.Universe}}{{if $i}}, {{end}}{{$a}}{{end}}
{{if .Moves}}
## Last day move

| Asset | Close | Return |
|-------|------:|-------:|
{{range .Moves}}| {{.Asset}} | {{f2 .Close}} | {{if finite .Return}}{{pct .Return}}{{else}}n/a{{end}} |
{{end}}{{end}}
## Performance

- End equity: **{{f2 .Summary.EndEquity}}**
- CAGR: **{{pct .Summary.CAGR}}**
- Volatility: **{{pct .Summary.Volatility}}**
- Max drawdown: **{{pct .Summary.MaxDrawdown}}**
- Years: {{printf "%.2f" .Summary.Years}} ({{.Summary.TradingDays}} trading days)
{{if .Charts}}
## Charts
{{range .Charts}}
![{{.}}]({{.}}){{end}}
{{end}}{{if .Run.Notes}}
## Notes
{{range .Run.Notes}}
- {{.}}{{end}}
{{end}}`
