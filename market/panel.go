package market

import (
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strconv"
	"time"
)

// DateLayout is the ISO-8601 calendar date used by every panel file.
const DateLayout = "2006-01-02"

// Universe is the fixed, ascending set of asset identifiers a panel prices.
// The position of an asset in the Universe is its index everywhere else
// (holdings, snapshots, chart series).
type Universe []string

// Index returns the position of asset in the universe.
func (u Universe) Index(asset string) (int, bool) {
	i := sort.SearchStrings(u, asset)
	if i < len(u) && u[i] == asset {
		return i, true
	}
	return 0, false
}

func (u Universe) Len() int { return len(u) }

// Panel is an immutable, gap-free table of daily closes.
// Dates are strictly increasing, every date prices every asset, every price is > 0.
type Panel struct {
	assets Universe
	dates  []time.Time
	closes [][]float64 // [date][asset]
}

// NewPanel validates and builds a Panel. assets may be in any order; columns
// are re-ordered so the resulting Universe is ascending.
func NewPanel(assets []string, dates []time.Time, closes [][]float64) (*Panel, error) {
	if len(assets) == 0 {
		return nil, &DataIntegrityError{Reason: "panel has no asset columns"}
	}
	if len(dates) == 0 {
		return nil, &DataIntegrityError{Reason: "panel has no rows"}
	}
	if len(closes) != len(dates) {
		return nil, &DataIntegrityError{Reason: "closes and dates have different lengths"}
	}

	order := make([]int, len(assets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return assets[order[a]] < assets[order[b]] })

	u := make(Universe, len(assets))
	for i, src := range order {
		u[i] = assets[src]
		if u[i] == "" {
			return nil, &DataIntegrityError{Reason: "empty asset identifier"}
		}
		if i > 0 && u[i] == u[i-1] {
			return nil, &DataIntegrityError{Column: u[i], Reason: "duplicate asset column"}
		}
	}

	p := &Panel{
		assets: u,
		dates:  make([]time.Time, len(dates)),
		closes: make([][]float64, len(dates)),
	}

	for r, d := range dates {
		d = truncateDay(d)
		if r > 0 && !d.After(p.dates[r-1]) {
			return nil, &DataIntegrityError{
				Row:    r + 1,
				Column: "Date",
				Reason: "dates must be strictly ascending (" + d.Format(DateLayout) + " after " + p.dates[r-1].Format(DateLayout) + ")",
			}
		}
		if len(closes[r]) != len(assets) {
			return nil, &DataIntegrityError{Row: r + 1, Reason: "row has " + strconv.Itoa(len(closes[r])) + " prices, want " + strconv.Itoa(len(assets))}
		}
		row := make([]float64, len(assets))
		for i, src := range order {
			v := closes[r][src]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &DataIntegrityError{Row: r + 1, Column: u[i], Reason: "missing price"}
			}
			if v <= 0 {
				return nil, &DataIntegrityError{Row: r + 1, Column: u[i], Reason: "price must be positive"}
			}
			row[i] = v
		}
		p.dates[r] = d
		p.closes[r] = row
	}

	return p, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (p *Panel) Assets() Universe { return p.assets }

// Len is the number of trading dates.
func (p *Panel) Len() int { return len(p.dates) }

func (p *Panel) Date(i int) time.Time { return p.dates[i] }

func (p *Panel) Dates() []time.Time {
	out := make([]time.Time, len(p.dates))
	copy(out, p.dates)
	return out
}

// Close returns the close of asset a on date index i.
func (p *Panel) Close(i, a int) float64 { return p.closes[i][a] }

// Row returns the closes for date index i in universe order.
// The slice is shared with the panel and must not be modified.
func (p *Panel) Row(i int) []float64 { return p.closes[i] }

func (p *Panel) First() time.Time { return p.dates[0] }
func (p *Panel) Last() time.Time  { return p.dates[len(p.dates)-1] }

// Returns gives simple daily returns per asset; the result has Len()-1 rows.
func (p *Panel) Returns() [][]float64 {
	if len(p.dates) < 2 {
		return nil
	}
	out := make([][]float64, len(p.dates)-1)
	for i := 1; i < len(p.dates); i++ {
		row := make([]float64, len(p.assets))
		for a := range p.assets {
			row[a] = p.closes[i][a]/p.closes[i-1][a] - 1
		}
		out[i-1] = row
	}
	return out
}

// WriteCSV writes the panel in the same layout ReadPanel accepts.
func (p *Panel) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{"Date"}, p.assets...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, d := range p.dates {
		rec := make([]string, 0, len(p.assets)+1)
		rec = append(rec, d.Format(DateLayout))
		for _, v := range p.closes[i] {
			rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
