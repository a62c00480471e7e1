package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// LoadPanelCSV reads a panel file from disk. See ReadPanel.
func LoadPanelCSV(path string) (*Panel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := ReadPanel(f)
	if err != nil {
		return nil, withSource(err, path)
	}
	return p, nil
}

type rawRow struct {
	line   int
	date   time.Time
	fields []string
}

// ReadPanel parses a date-indexed close table:
//
//	Date,SPY,TLT,GLD
//	2024-01-02,472.65,97.1,190.2
//
// The Date header is matched case-insensitively, asset headers are upper-cased.
// Rows are sorted by date and de-duplicated on date (the last row wins) before
// any price is validated, so a bad cell in a superseded duplicate is ignored.
func ReadPanel(r io.Reader) (*Panel, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &DataIntegrityError{Reason: "empty panel source"}
	}
	if err != nil {
		return nil, &DataIntegrityError{Reason: err.Error()}
	}

	dateCol := -1
	var assets []string
	var assetCols []int
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if strings.EqualFold(h, "date") && dateCol == -1 {
			dateCol = i
			continue
		}
		if h == "" {
			return nil, &DataIntegrityError{Reason: fmt.Sprintf("column %d has an empty header", i+1)}
		}
		assets = append(assets, strings.ToUpper(h))
		assetCols = append(assetCols, i)
	}
	if dateCol == -1 {
		return nil, &DataIntegrityError{Column: "Date", Reason: "missing required column"}
	}
	if len(assets) == 0 {
		return nil, &DataIntegrityError{Reason: "panel has no asset columns"}
	}

	var rows []rawRow
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &DataIntegrityError{Row: line, Reason: err.Error()}
		}
		line, _ = cr.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) != len(header) {
			return nil, &DataIntegrityError{Row: line, Reason: fmt.Sprintf("row has %d fields, want %d", len(rec), len(header))}
		}
		d, err := ParseDate(rec[dateCol])
		if err != nil {
			return nil, &DataIntegrityError{Row: line, Column: "Date", Reason: err.Error()}
		}
		fields := make([]string, len(assetCols))
		for i, c := range assetCols {
			fields[i] = rec[c]
		}
		rows = append(rows, rawRow{line: line, date: d, fields: fields})
	}

	rows = sortDedupe(rows)

	dates := make([]time.Time, len(rows))
	closes := make([][]float64, len(rows))
	for r, row := range rows {
		vals := make([]float64, len(assets))
		for i, s := range row.fields {
			v, err := coerce(s)
			if err != nil {
				return nil, &DataIntegrityError{Row: row.line, Column: assets[i], Reason: err.Error()}
			}
			if v <= 0 {
				return nil, &DataIntegrityError{Row: row.line, Column: assets[i], Reason: "price must be positive"}
			}
			vals[i] = v
		}
		dates[r] = row.date
		closes[r] = vals
	}

	return NewPanel(assets, dates, closes)
}

// sortDedupe orders rows by date and keeps the last row seen for each date.
func sortDedupe(rows []rawRow) []rawRow {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })

	out := rows[:0]
	for _, r := range rows {
		if n := len(out); n > 0 && out[n-1].date.Equal(r.date) {
			out[n-1] = r
			continue
		}
		out = append(out, r)
	}
	return out
}

func coerce(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing price")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric price %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("missing price")
	}
	return v, nil
}

// ParseDate accepts 2006-01-02 and full RFC3339 timestamps, returning UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range []string{DateLayout, time.RFC3339, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}
