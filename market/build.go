package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// BuildPanel aligns per-asset close files into one Panel.
//
// Every *.csv in dir (except names starting with "_" or containing "log")
// must carry Date and close columns; the file stem upper-cased is the ticker.
// Only dates present in every file survive (inner join).
func BuildPanel(dir string) (*Panel, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}

	var files []string
	for _, m := range matches {
		base := filepath.Base(m)
		if strings.HasPrefix(base, "_") || strings.Contains(strings.ToLower(base), "log") {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, &DataIntegrityError{Source: dir, Reason: "no asset CSV files found"}
	}

	assets := make([]string, 0, len(files))
	series := make([]map[time.Time]float64, 0, len(files))
	for _, path := range files {
		s, err := readCloseSeries(path)
		if err != nil {
			return nil, withSource(err, path)
		}
		name := strings.ToUpper(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		assets = append(assets, name)
		series = append(series, s)
	}

	var dates []time.Time
	for d := range series[0] {
		inAll := true
		for _, s := range series[1:] {
			if _, ok := s[d]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	if len(dates) == 0 {
		return nil, &DataIntegrityError{Source: dir, Reason: "asset files share no common dates"}
	}

	closes := make([][]float64, len(dates))
	for r, d := range dates {
		row := make([]float64, len(series))
		for a, s := range series {
			row[a] = s[d]
		}
		closes[r] = row
	}

	p, err := NewPanel(assets, dates, closes)
	if err != nil {
		return nil, withSource(err, dir)
	}
	return p, nil
}

func readCloseSeries(path string) (map[time.Time]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, &DataIntegrityError{Reason: fmt.Sprintf("read header: %v", err)}
	}
	dateCol, closeCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date":
			dateCol = i
		case "close":
			closeCol = i
		}
	}
	if dateCol == -1 || closeCol == -1 {
		return nil, &DataIntegrityError{Reason: fmt.Sprintf("expected columns Date, close; got %v", header)}
	}

	out := make(map[time.Time]float64)
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &DataIntegrityError{Row: line, Reason: err.Error()}
		}
		if len(rec) <= dateCol || len(rec) <= closeCol {
			return nil, &DataIntegrityError{Row: line, Reason: "short row"}
		}
		d, err := ParseDate(rec[dateCol])
		if err != nil {
			return nil, &DataIntegrityError{Row: line, Column: "Date", Reason: err.Error()}
		}
		v, err := coerce(rec[closeCol])
		if err != nil {
			return nil, &DataIntegrityError{Row: line, Column: "close", Reason: err.Error()}
		}
		out[d] = v
	}
	return out, nil
}
