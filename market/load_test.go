package market

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReadPanel(t *testing.T) {
	t.Parallel()

	src := `Date,tlt,SPY
2024-01-03,97.5,470.0
2024-01-02,97.1,472.65
2024-01-04,98.0,468.5
`
	p, err := ReadPanel(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, Universe{"SPY", "TLT"}, p.Assets())
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, day(2024, 1, 2), p.First())
	assert.Equal(t, day(2024, 1, 4), p.Last())

	// columns are re-ordered to universe order
	assert.Equal(t, []float64{472.65, 97.1}, p.Row(0))
	assert.Equal(t, 98.0, p.Close(2, 1))
}

func TestReadPanelDuplicateDateKeepsLast(t *testing.T) {
	t.Parallel()

	src := `Date,SPY
2024-01-02,100
2024-01-03,bad
2024-01-03,101
2024-01-02,99
`
	p, err := ReadPanel(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 2, p.Len())
	assert.Equal(t, 99.0, p.Close(0, 0))
	assert.Equal(t, 101.0, p.Close(1, 0))
}

func TestReadPanelErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    string
		errMsg string
	}{
		{"empty", "", "empty panel source"},
		{"missing date column", "Day,SPY\n2024-01-02,1\n", "missing required column"},
		{"no assets", "Date\n2024-01-02\n", "no asset columns"},
		{"missing cell", "Date,SPY,TLT\n2024-01-02,1,\n", "missing price"},
		{"nan cell", "Date,SPY\n2024-01-02,NaN\n", "missing price"},
		{"non numeric", "Date,SPY\n2024-01-02,abc\n", "non-numeric"},
		{"negative price", "Date,SPY\n2024-01-02,-3\n", "price must be positive"},
		{"bad date", "Date,SPY\nyesterday,1\n", "bad date"},
		{"ragged row", "Date,SPY,TLT\n2024-01-02,1\n", "row has 2 fields"},
		{"duplicate asset", "Date,spy,SPY\n2024-01-02,1,2\n", "duplicate asset column"},
		{"no rows", "Date,SPY\n", "no rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPanel(strings.NewReader(tt.src))
			require.Error(t, err)

			var die *DataIntegrityError
			require.True(t, errors.As(err, &die), "want DataIntegrityError, got %T", err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestReadPanelErrorCitesLine(t *testing.T) {
	t.Parallel()

	src := "Date,SPY,TLT\n2024-01-02,1,2\n2024-01-03,1,x\n"
	_, err := ReadPanel(strings.NewReader(src))

	var die *DataIntegrityError
	require.True(t, errors.As(err, &die))
	assert.Equal(t, 3, die.Row)
	assert.Equal(t, "TLT", die.Column)
}

func TestLoadPanelCSVSetsSource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "panel.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date,SPY\n2024-01-02,\n"), 0644))

	_, err := LoadPanelCSV(path)
	var die *DataIntegrityError
	require.True(t, errors.As(err, &die))
	assert.Equal(t, path, die.Source)
	assert.Contains(t, err.Error(), path)
}

func TestLoadPanelCSVMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadPanelCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestPanelWriteCSVRoundTrip(t *testing.T) {
	t.Parallel()

	src := "Date,GLD,SPY\n2024-01-02,190.25,472.65\n2024-01-03,191,470\n"
	p, err := ReadPanel(strings.NewReader(src))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.WriteCSV(&buf))
	assert.Equal(t, src, buf.String())
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"2024-03-01", "2024-03-01T15:04:05Z", "2024-03-01 09:30:00"} {
		d, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, day(2024, 3, 1), d)
	}

	_, err := ParseDate("")
	assert.Error(t, err)
}
